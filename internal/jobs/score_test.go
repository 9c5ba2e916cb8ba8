package jobs

import (
	"testing"

	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreJobs(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		posting types.JobPosting
		want    int
	}{
		{
			name:    "baseline",
			profile: Profile{TargetRoles: []string{"Data Scientist"}, Location: "Pune"},
			posting: types.JobPosting{Title: "Accountant", Location: "Mumbai"},
			want:    75,
		},
		{
			name:    "target role",
			profile: Profile{TargetRoles: []string{"platform engineer"}, Location: "Pune"},
			posting: types.JobPosting{Title: "Senior Platform Engineer", Location: "Mumbai"},
			want:    90,
		},
		{
			name:    "current role",
			profile: Profile{CurrentRole: "Backend Developer", Location: "Pune"},
			posting: types.JobPosting{Title: "Backend Developer (Go)", Location: "Mumbai"},
			want:    80,
		},
		{
			name:    "remote without location preference",
			profile: Profile{},
			posting: types.JobPosting{Title: "Accountant", Remote: true},
			want:    80,
		},
		{
			name:    "remote ignored when user has a location",
			profile: Profile{Location: "Pune"},
			posting: types.JobPosting{Title: "Accountant", Remote: true, Location: "Remote"},
			want:    75,
		},
		{
			name:    "location match",
			profile: Profile{Location: "bengaluru"},
			posting: types.JobPosting{Title: "Accountant", Location: "Bengaluru, Karnataka"},
			want:    85,
		},
		{
			name: "all bonuses clamp at 99",
			profile: Profile{
				TargetRoles: []string{"Go Engineer"},
				CurrentRole: "Engineer",
				Location:    "Pune",
			},
			posting: types.JobPosting{Title: "Go Engineer", Location: "Pune"},
			want:    99,
		},
		{
			name:    "blank target roles are ignored",
			profile: Profile{TargetRoles: []string{"", "  "}, Location: "Pune"},
			posting: types.JobPosting{Title: "Anything", Location: "Mumbai"},
			want:    75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreJobs(tt.profile, []types.JobPosting{tt.posting}, nil)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Match)
		})
	}
}

func TestScoreJobsClampsWithCustomRules(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Baseline = 95
	rules.Rules = append(rules.Rules, Rule{Name: "penalty", When: CondRemoteWithoutLocation, Weight: -200})

	got := ScoreJobs(Profile{TargetRoles: []string{"go"}}, []types.JobPosting{
		{Title: "Go Developer"},
		{Title: "Accountant", Remote: true},
	}, rules)

	require.Len(t, got, 2)
	assert.Equal(t, 99, got[0].Match)
	assert.Equal(t, 0, got[1].Match)
}

func TestScoreJobsNeverReaches100(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Max = 100 // bypasses Validate, as a hand-built table can

	got := ScoreJobs(Profile{TargetRoles: []string{"Platform Engineer"}, CurrentRole: "Engineer", Location: "Pune"},
		[]types.JobPosting{{Title: "Platform Engineer", Location: "Pune, India"}}, rules)

	require.Len(t, got, 1)
	assert.Equal(t, MaxMatchScore, got[0].Match)
}

func TestScoreJobsTargetRoleOutranks(t *testing.T) {
	profile := Profile{TargetRoles: []string{"SRE"}, Location: "Delhi"}
	base := types.JobPosting{Company: "Acme", Location: "Chennai", Salary: "₹10.0L+"}

	matching := base
	matching.Title = "SRE II"
	other := base
	other.Title = "QA II"

	got := ScoreJobs(profile, []types.JobPosting{other, matching}, nil)
	assert.Greater(t, got[1].Match, got[0].Match)
}

func TestScoreJobsPlaceholdersAndPurity(t *testing.T) {
	input := []types.JobPosting{
		{ID: "1", Title: "Go Developer", Requirements: []string{"go", "sql"}, Salary: "$100"},
		{ID: "2", Title: "Rust Developer"},
	}

	got := ScoreJobs(Profile{}, input, nil)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "$100", got[0].Salary)
	assert.Equal(t, []string{"go", "sql"}, got[0].Requirements)
	assert.Equal(t, "Competitive", got[1].Salary)
	assert.Equal(t, []string{"Systems", "Tech"}, got[1].Requirements)

	// the input is left as it was
	assert.Zero(t, input[0].Match)
	assert.Empty(t, input[1].Salary)
	assert.Nil(t, input[1].Requirements)

	got[0].Requirements[0] = "changed"
	assert.Equal(t, "go", input[0].Requirements[0])
}

func TestScoreJobsEmpty(t *testing.T) {
	got := ScoreJobs(Profile{}, nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
