package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"golang.org/x/time/rate"
)

const (
	FeedAdzuna       = "adzuna"
	maxFeedBodyBytes = 4 << 20
)

// AdzunaFeed searches the Adzuna jobs API
type AdzunaFeed struct {
	cfg     config.AdzunaConfig
	perPage int
	client  *http.Client
	limiter *rate.Limiter
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	ID      flexID `json:"id"`
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin    float64 `json:"salary_min"`
	ContractType string  `json:"contract_type"`
	Category     struct {
		Label string `json:"label"`
	} `json:"category"`
	RedirectURL string `json:"redirect_url"`
}

// NewAdzunaFeed creates the feed. Outbound calls are paced by requestsPerSecond when set.
func NewAdzunaFeed(cfg config.AdzunaConfig, perPage int, client *http.Client) *AdzunaFeed {
	if client == nil {
		client = http.DefaultClient
	}
	if perPage <= 0 {
		perPage = 30
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &AdzunaFeed{cfg: cfg, perPage: perPage, client: client, limiter: limiter}
}

// Name implements Feed
func (a *AdzunaFeed) Name() string { return FeedAdzuna }

// Configured reports whether credentials are present
func (a *AdzunaFeed) Configured() bool {
	return a.cfg.AppID != "" && a.cfg.AppKey != ""
}

// Search implements Feed
func (a *AdzunaFeed) Search(ctx context.Context, q Query) ([]types.JobPosting, error) {
	if !a.Configured() {
		return nil, errors.NewUnavailableError(errors.ErrCodeFeedNotConfigured,
			"Adzuna credentials are not configured", nil).WithContext("feed", FeedAdzuna)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL(q), nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build Adzuna request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedBodyBytes))
		return nil, &StatusError{Feed: FeedAdzuna, StatusCode: resp.StatusCode}
	}

	var payload adzunaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("adzuna: decode response: %w", err)
	}

	postings := make([]types.JobPosting, 0, len(payload.Results))
	for _, j := range payload.Results {
		if p, ok := a.normalize(j); ok {
			postings = append(postings, p)
		}
	}
	return postings, nil
}

func (a *AdzunaFeed) searchURL(q Query) string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	country := a.cfg.Country
	if country == "" {
		country = "in"
	}

	perPage := a.perPage
	if q.Limit > 0 && q.Limit < perPage {
		perPage = q.Limit
	}

	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("app_key", a.cfg.AppKey)
	params.Set("results_per_page", strconv.Itoa(perPage))
	params.Set("what", q.Term)
	params.Set("where", q.Location)
	params.Set("content-type", "application/json")

	return fmt.Sprintf("%s/%s/search/1?%s", base, url.PathEscape(country), params.Encode())
}

func (a *AdzunaFeed) normalize(j adzunaJob) (types.JobPosting, bool) {
	title := stripHTML(j.Title)
	if title == "" {
		return types.JobPosting{}, false
	}

	company := stripHTML(j.Company.DisplayName)
	location := stripHTML(j.Location.DisplayName)

	jobType := "Contract"
	if j.ContractType == "permanent" {
		jobType = "Full-time"
	}

	return types.JobPosting{
		ID:           string(j.ID),
		Title:        title,
		Company:      company,
		Logo:         logoFor(company),
		Location:     location,
		Salary:       a.formatSalary(j.SalaryMin),
		Type:         jobType,
		Requirements: firstWords(j.Category.Label, 3),
		URL:          j.RedirectURL,
		Source:       FeedAdzuna,
		Remote:       looksRemote(title, location),
	}, true
}

// formatSalary renders the minimum salary in lakhs, e.g. ₹12.5L+
func (a *AdzunaFeed) formatSalary(minimum float64) string {
	if minimum <= 0 {
		return ""
	}
	symbol := a.cfg.CurrencySymbol
	if symbol == "" {
		symbol = "₹"
	}
	return fmt.Sprintf("%s%.1fL+", symbol, minimum/100000)
}
