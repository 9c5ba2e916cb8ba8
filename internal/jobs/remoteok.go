package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"
)

const (
	FeedRemoteOK        = "remoteok"
	remoteOKJobsBaseURL = "https://remoteok.com/remote-jobs/"
)

var remoteOKStopWords = map[string]bool{
	"senior": true, "junior": true, "lead": true, "staff": true,
	"principal": true, "remote": true, "job": true, "jobs": true,
	"developer": true, "engineer": true, "position": true, "role": true,
	"and": true, "or": true, "the": true, "for": true, "with": true,
}

// RemoteOKFeed searches the RemoteOK public API. Every posting it returns is remote.
type RemoteOKFeed struct {
	cfg    config.RemoteOKConfig
	client *http.Client
}

type remoteOKJob struct {
	ID        flexID   `json:"id"`
	Slug      string   `json:"slug"`
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	Tags      []string `json:"tags"`
	Location  string   `json:"location"`
	SalaryMin int      `json:"salary_min"`
	SalaryMax int      `json:"salary_max"`
	URL       string   `json:"url"`
}

// NewRemoteOKFeed creates the feed
func NewRemoteOKFeed(cfg config.RemoteOKConfig, client *http.Client) *RemoteOKFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteOKFeed{cfg: cfg, client: client}
}

// Name implements Feed
func (r *RemoteOKFeed) Name() string { return FeedRemoteOK }

// Search implements Feed
func (r *RemoteOKFeed) Search(ctx context.Context, q Query) ([]types.JobPosting, error) {
	u, err := url.Parse(r.cfg.BaseURL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid RemoteOK base URL", err)
	}
	if tag := pickTag(q.Term); tag != "" {
		params := u.Query()
		params.Set("tag", tag)
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build RemoteOK request", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.cfg.UserAgent != "" {
		// RemoteOK rejects requests without a user agent
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedBodyBytes))
		return nil, &StatusError{Feed: FeedRemoteOK, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, err
	}

	postings, err := parseRemoteOK(body)
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(postings) > q.Limit {
		postings = postings[:q.Limit]
	}
	return postings, nil
}

// parseRemoteOK decodes the API array. The first element is a legal notice, not a job.
func parseRemoteOK(body []byte) ([]types.JobPosting, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("remoteok: decode response: %w", err)
	}
	if len(raw) <= 1 {
		return []types.JobPosting{}, nil
	}

	postings := make([]types.JobPosting, 0, len(raw)-1)
	for _, item := range raw[1:] {
		var j remoteOKJob
		if err := json.Unmarshal(item, &j); err != nil {
			continue
		}
		title := stripHTML(j.Position)
		if title == "" {
			continue
		}

		jobURL := j.URL
		if jobURL == "" && j.Slug != "" {
			jobURL = remoteOKJobsBaseURL + j.Slug
		}

		jobType := "Full-time"
		if slices.ContainsFunc(j.Tags, func(t string) bool { return strings.EqualFold(t, "contract") }) {
			jobType = "Contract"
		}

		company := stripHTML(j.Company)
		location := stripHTML(j.Location)
		if location == "" {
			location = "Remote"
		}

		postings = append(postings, types.JobPosting{
			ID:           string(j.ID),
			Title:        title,
			Company:      company,
			Logo:         logoFor(company),
			Location:     location,
			Salary:       formatUSDSalary(j.SalaryMin, j.SalaryMax),
			Type:         jobType,
			Requirements: firstN(j.Tags, 3),
			URL:          jobURL,
			Source:       FeedRemoteOK,
			Remote:       true,
		})
	}
	return postings, nil
}

func formatUSDSalary(minimum, maximum int) string {
	switch {
	case minimum <= 0 && maximum <= 0:
		return ""
	case minimum <= 0 || minimum == maximum:
		return fmt.Sprintf("$%d", maximum)
	case maximum <= 0:
		return fmt.Sprintf("$%d", minimum)
	default:
		return fmt.Sprintf("$%d - $%d", minimum, maximum)
	}
}

// pickTag picks the most specific keyword of a search term for RemoteOK's tag filter
func pickTag(term string) string {
	fields := strings.Fields(strings.ToLower(term))
	if len(fields) == 0 {
		return ""
	}
	for _, f := range fields {
		if !remoteOKStopWords[f] && len(f) > 2 {
			return f
		}
	}
	return fields[0]
}

func firstN(items []string, n int) []string {
	out := make([]string, 0, n)
	for _, item := range items {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
