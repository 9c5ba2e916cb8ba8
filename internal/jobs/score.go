package jobs

import (
	"strings"

	"dreamforge/internal/types"

	"golang.org/x/text/cases"
)

// Profile is what scoring knows about the user
type Profile struct {
	TargetRoles []string
	CurrentRole string
	Location    string
}

// ScoreJobs assigns a match score to each posting and fills display placeholders.
// It is pure: the input slice is not modified and output order equals input order.
func ScoreJobs(profile Profile, postings []types.JobPosting, rules *RuleSet) []types.JobPosting {
	if rules == nil {
		rules = DefaultRuleSet()
	}

	// a Caser keeps state, so each call gets its own
	caser := cases.Fold()
	fold := func(s string) string { return caser.String(strings.TrimSpace(s)) }

	targets := make([]string, 0, len(profile.TargetRoles))
	for _, r := range profile.TargetRoles {
		if f := fold(r); f != "" {
			targets = append(targets, f)
		}
	}
	current := fold(profile.CurrentRole)
	location := fold(profile.Location)

	scored := make([]types.JobPosting, len(postings))
	for i, p := range postings {
		title := fold(p.Title)
		postingLocation := fold(p.Location)

		score := rules.Baseline
		for _, rule := range rules.Rules {
			var hit bool
			switch rule.When {
			case CondTitleContainsTargetRole:
				hit = containsAny(title, targets)
			case CondTitleContainsCurrentRole:
				hit = current != "" && strings.Contains(title, current)
			case CondRemoteWithoutLocation:
				hit = p.Remote && location == ""
			case CondLocationMatchesUser:
				hit = location != "" && strings.Contains(postingLocation, location)
			}
			if hit {
				score += rule.Weight
			}
		}
		p.Match = min(max(score, rules.Min), rules.Max, MaxMatchScore)

		if strings.TrimSpace(p.Salary) == "" {
			p.Salary = rules.SalaryPlaceholder
		}
		if len(p.Requirements) == 0 {
			p.Requirements = append([]string(nil), rules.RequirementPlaceholders...)
		} else {
			p.Requirements = append([]string(nil), p.Requirements...)
		}
		scored[i] = p
	}
	return scored
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
