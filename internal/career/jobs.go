package career

import (
	"context"
	"strings"

	"dreamforge/internal/auth"
	"dreamforge/internal/jobs"
	"dreamforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

const jobFeedErrorMessage = "Could not fetch real-time jobs."

// SearchJobs fetches live postings for the principal and scores them against the profile.
// Feed failures are reported in the result, not as an error.
func (s *Service) SearchJobs(ctx context.Context, p auth.Principal, query string) (types.JobSearchResult, error) {
	if err := p.Require(); err != nil {
		return types.JobSearchResult{}, err
	}

	user, err := s.loadUser(ctx, s.repo, p)
	if err != nil {
		return types.JobSearchResult{}, err
	}

	targetRoles := user.TargetRoles()
	q := jobs.Query{
		Term:     firstNonBlank(query, first(targetRoles), user.CurrentRole, s.cfg.Jobs.DefaultQuery, "Software Engineer"),
		Location: firstNonBlank(user.Location, s.cfg.Jobs.DefaultLocation, "India"),
		Limit:    s.cfg.Jobs.ResultsPerPage,
	}
	result := types.JobSearchResult{Query: q.Term, Location: q.Location, Jobs: []types.JobPosting{}}

	if s.searcher == nil {
		result.Error = jobFeedErrorMessage
		return result, nil
	}

	postings, source, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.logger.LogError(err, "Job search failed", "user_id", p.UserID, "query", q.Term)
		s.record(ctx, EventJobSearch, false)
		result.Error = jobFeedErrorMessage
		return result, nil
	}

	var rules *jobs.RuleSet
	if s.rules != nil {
		rules = s.rules.Current()
	}
	result.Source = source
	result.Jobs = jobs.ScoreJobs(jobs.Profile{
		TargetRoles: targetRoles,
		CurrentRole: user.CurrentRole,
		Location:    user.Location,
	}, postings, rules)

	s.record(ctx, EventJobSearch, true, attribute.String("source", source), attribute.Int("results", len(result.Jobs)))
	return result, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
