package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adzunaBody = `{
  "results": [
    {
      "id": 4711,
      "title": "<strong>Senior Go</strong> Developer",
      "company": {"display_name": "acme Labs"},
      "location": {"display_name": "Bengaluru, Karnataka"},
      "salary_min": 1250000,
      "contract_type": "permanent",
      "category": {"label": "IT Jobs and Software"},
      "redirect_url": "https://adzuna.example/jobs/4711"
    },
    {
      "id": "ab-12",
      "title": "Remote Data Engineer",
      "company": {"display_name": "Globex"},
      "location": {"display_name": "India"},
      "contract_type": "contract",
      "category": {"label": ""},
      "redirect_url": "https://adzuna.example/jobs/ab-12"
    },
    {
      "id": 5,
      "title": "   ",
      "company": {"display_name": "Nobody"}
    }
  ]
}`

func TestAdzunaFeedSearch(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(adzunaBody))
	}))
	defer srv.Close()

	feed := NewAdzunaFeed(config.AdzunaConfig{
		AppID:   "id",
		AppKey:  "key",
		Country: "in",
		BaseURL: srv.URL + "/",
	}, 30, srv.Client())

	postings, err := feed.Search(context.Background(), Query{Term: "Go Developer", Location: "Bengaluru", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "/in/search/1", gotPath)
	assert.Equal(t, "id", gotQuery["app_id"])
	assert.Equal(t, "key", gotQuery["app_key"])
	assert.Equal(t, "10", gotQuery["results_per_page"])
	assert.Equal(t, "Go Developer", gotQuery["what"])
	assert.Equal(t, "Bengaluru", gotQuery["where"])
	assert.Equal(t, "application/json", gotQuery["content-type"])

	require.Len(t, postings, 2)
	assert.Equal(t, types.JobPosting{
		ID:           "4711",
		Title:        "Senior Go Developer",
		Company:      "acme Labs",
		Logo:         "A",
		Location:     "Bengaluru, Karnataka",
		Salary:       "₹12.5L+",
		Type:         "Full-time",
		Requirements: []string{"IT", "Jobs", "and"},
		URL:          "https://adzuna.example/jobs/4711",
		Source:       FeedAdzuna,
	}, postings[0])

	second := postings[1]
	assert.Equal(t, "ab-12", second.ID)
	assert.Equal(t, "Contract", second.Type)
	assert.Empty(t, second.Salary)
	assert.Nil(t, second.Requirements)
	assert.True(t, second.Remote)
}

func TestAdzunaFeedNotConfigured(t *testing.T) {
	feed := NewAdzunaFeed(config.AdzunaConfig{BaseURL: "http://127.0.0.1:1"}, 30, nil)
	assert.False(t, feed.Configured())

	_, err := feed.Search(context.Background(), Query{Term: "Go", Location: "India"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnavailable))
	assert.Equal(t, errors.ErrCodeFeedNotConfigured, errors.CodeOf(err))
}

func TestAdzunaFeedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	feed := NewAdzunaFeed(config.AdzunaConfig{AppID: "id", AppKey: "key", BaseURL: srv.URL}, 30, srv.Client())
	_, err := feed.Search(context.Background(), Query{Term: "Go", Location: "India"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, FeedAdzuna, statusErr.Feed)
}

func TestAdzunaFormatSalary(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		min    float64
		want   string
	}{
		{name: "lakhs", min: 850000, want: "₹8.5L+"},
		{name: "rounds to one decimal", min: 1234567, want: "₹12.3L+"},
		{name: "missing", min: 0, want: ""},
		{name: "custom symbol", symbol: "Rs ", min: 500000, want: "Rs 5.0L+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := NewAdzunaFeed(config.AdzunaConfig{CurrencySymbol: tt.symbol}, 0, nil)
			assert.Equal(t, tt.want, feed.formatSalary(tt.min))
		})
	}
}

const remoteOKBody = `[
  {"legal": "API terms of service"},
  {
    "id": "1001",
    "slug": "remote-golang-engineer-initech-1001",
    "position": "Golang Engineer",
    "company": "Initech",
    "tags": ["golang", "contract", "backend", "cloud"],
    "location": "",
    "salary_min": 90000,
    "salary_max": 120000
  },
  {
    "id": 1002,
    "position": "Frontend Developer",
    "company": "Hooli",
    "tags": [],
    "location": "Europe",
    "url": "https://remoteok.com/remote-jobs/1002"
  },
  {"id": 1003, "position": ""}
]`

func TestRemoteOKFeedSearch(t *testing.T) {
	var gotTag, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTag = r.URL.Query().Get("tag")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(remoteOKBody))
	}))
	defer srv.Close()

	feed := NewRemoteOKFeed(config.RemoteOKConfig{BaseURL: srv.URL, UserAgent: "dreamforge-test"}, srv.Client())
	postings, err := feed.Search(context.Background(), Query{Term: "Senior Golang Engineer", Location: "India"})
	require.NoError(t, err)

	assert.Equal(t, "golang", gotTag)
	assert.Equal(t, "dreamforge-test", gotUA)

	require.Len(t, postings, 2)
	first := postings[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, "Contract", first.Type)
	assert.Equal(t, "Remote", first.Location)
	assert.Equal(t, "$90000 - $120000", first.Salary)
	assert.Equal(t, []string{"golang", "contract", "backend"}, first.Requirements)
	assert.Equal(t, remoteOKJobsBaseURL+"remote-golang-engineer-initech-1001", first.URL)
	assert.True(t, first.Remote)
	assert.Equal(t, FeedRemoteOK, first.Source)

	second := postings[1]
	assert.Equal(t, "1002", second.ID)
	assert.Equal(t, "Full-time", second.Type)
	assert.Empty(t, second.Salary)
	assert.Nil(t, second.Requirements)
	assert.Equal(t, "H", second.Logo)
}

func TestRemoteOKFeedLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(remoteOKBody))
	}))
	defer srv.Close()

	feed := NewRemoteOKFeed(config.RemoteOKConfig{BaseURL: srv.URL}, srv.Client())
	postings, err := feed.Search(context.Background(), Query{Term: "go", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestParseRemoteOKEmpty(t *testing.T) {
	postings, err := parseRemoteOK([]byte(`[{"legal": "notice"}]`))
	require.NoError(t, err)
	assert.Empty(t, postings)

	_, err = parseRemoteOK([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestPickTag(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Senior Golang Engineer", "golang"},
		{"Software Engineer", "software"},
		{"Lead Engineer", "lead"},
		{"", ""},
		{"go", "go"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, pickTag(tt.term))
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<strong>Go</strong> Developer", "Go Developer"},
		{"Data &amp; ML   Engineer", "Data & ML Engineer"},
		{"  plain   text ", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
