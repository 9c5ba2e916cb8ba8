package ai

import (
	"testing"

	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullAnalysis = `{
  "level": 4,
  "currentRole": "Backend Engineer",
  "location": "Bengaluru",
  "skills": [
    {"name": "Go", "category": "backend", "proficiency": 8},
    {"name": "Kubernetes", "category": "Cloud", "proficiency": "6"}
  ],
  "analysis": {"strengths": ["APIs"], "weaknesses": ["Frontend"], "marketPosition": "Strong"},
  "insights": {
    "immediate": "Ship a side project",
    "strategic": "Move towards platform work",
    "targetRoles": ["Platform Engineer"],
    "recommendedResources": [{"title": "SRE Book", "url": "https://sre.google/books/", "type": "book"}]
  },
  "matchScore": 72
}`

func TestParseResumeAnalysis(t *testing.T) {
	got, err := ParseResumeAnalysis(fullAnalysis)
	require.NoError(t, err)

	assert.Equal(t, 4, got.Level)
	assert.Equal(t, "Backend Engineer", got.CurrentRole)
	assert.Equal(t, "Bengaluru", got.Location)
	assert.Equal(t, []types.ExtractedSkill{
		{Name: "Go", Category: "backend", Proficiency: 8},
		{Name: "Kubernetes", Category: "cloud", Proficiency: 6},
	}, got.Skills)
	assert.Equal(t, []string{"APIs"}, got.Analysis.Strengths)
	assert.Equal(t, "Strong", got.Analysis.MarketPosition)
	assert.Equal(t, []string{"Platform Engineer"}, got.Insights.TargetRoles)
	require.Len(t, got.Insights.RecommendedResources, 1)
	assert.Equal(t, "SRE Book", got.Insights.RecommendedResources[0].Title)
	assert.Equal(t, 72, got.MatchScore)
}

func TestParseResumeAnalysisTolerance(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, got types.ResumeAnalysis)
	}{
		{
			name: "code fence",
			raw:  "```json\n{\"level\": 3, \"currentRole\": \"Dev\"}\n```",
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.Equal(t, 3, got.Level)
				assert.Equal(t, "Dev", got.CurrentRole)
			},
		},
		{
			name: "prose around object",
			raw:  "Sure! Here is the analysis: {\"level\": 2, \"note\": \"uses {braces} in text\"} Hope it helps.",
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.Equal(t, 2, got.Level)
			},
		},
		{
			name: "missing recommended resources",
			raw:  `{"level": 5, "insights": {"immediate": "Learn SQL"}}`,
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.NotNil(t, got.Insights.RecommendedResources)
				assert.Empty(t, got.Insights.RecommendedResources)
				assert.Empty(t, got.Insights.TargetRoles)
				assert.Empty(t, got.Skills)
			},
		},
		{
			name: "values clamped",
			raw:  `{"level": 42, "matchScore": -3, "skills": [{"name": "Rust", "proficiency": 99}, {"name": "Zig", "proficiency": 0}]}`,
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.Equal(t, 10, got.Level)
				assert.Equal(t, 0, got.MatchScore)
				assert.Equal(t, 10, got.Skills[0].Proficiency)
				assert.Equal(t, 1, got.Skills[1].Proficiency)
			},
		},
		{
			name: "floats truncated and percent strings accepted",
			raw:  `{"level": 3.9, "matchScore": "81%"}`,
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.Equal(t, 3, got.Level)
				assert.Equal(t, 81, got.MatchScore)
			},
		},
		{
			name: "wrong types fall back to defaults",
			raw:  `{"level": "senior", "currentRole": 7, "skills": "Go, Rust", "analysis": [], "insights": {"targetRoles": "SRE"}}`,
			check: func(t *testing.T, got types.ResumeAnalysis) {
				assert.Equal(t, 1, got.Level)
				assert.Equal(t, "7", got.CurrentRole)
				assert.Empty(t, got.Skills)
				assert.Empty(t, got.Analysis.Strengths)
				assert.Empty(t, got.Insights.TargetRoles)
			},
		},
		{
			name: "skills without a name are dropped and category defaults to core",
			raw:  `{"skills": [{"category": "ai"}, {"name": "  "}, "Terraform", {"name": "Python", "category": ""}]}`,
			check: func(t *testing.T, got types.ResumeAnalysis) {
				require.Len(t, got.Skills, 2)
				assert.Equal(t, types.ExtractedSkill{Name: "Terraform", Category: "core", Proficiency: 1}, got.Skills[0])
				assert.Equal(t, "core", got.Skills[1].Category)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResumeAnalysis(tt.raw)
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestParseResumeAnalysisRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not read this resume.",
		"[1, 2, 3]",
		`{"level": 3,`,
		// cut off by the output token limit inside the skills array
		"```json\n{\"level\": 7, \"currentRole\": \"Staff Engineer\", \"matchScore\": 88, \"skills\": [{\"name\": \"Go\", \"category\": \"backend\", \"proficiency\": 9}, {\"name\": \"Kube",
		`{"level": 5, "analysis": {"strengths": ["APIs"]}, "insights": {"immediate": "ship`,
	} {
		_, err := ParseResumeAnalysis(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse), raw)
		assert.Equal(t, errors.ErrCodeAIParseFailed, errors.CodeOf(err))
	}
}

func TestParseInterviewFeedback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.InterviewFeedback
	}{
		{
			name: "well formed",
			raw:  `{"percentile": 80, "pace": "Fast", "fillers": 4, "sentiment": "Strategic", "feedback": "Good depth.", "strengths": ["Clear"], "improvements": ["Slow down"]}`,
			want: types.InterviewFeedback{
				Percentile: 80, Pace: "Fast", Fillers: 4, Sentiment: "Strategic", Feedback: "Good depth.",
				Strengths: []string{"Clear"}, Improvements: []string{"Slow down"},
			},
		},
		{
			name: "unknown enums and out of range numbers",
			raw:  `{"percentile": 100, "pace": "Blazing", "fillers": -2, "sentiment": "angry"}`,
			want: types.InterviewFeedback{
				Percentile: 99, Pace: "Steady", Fillers: 0, Sentiment: "Analytical",
				Strengths: []string{}, Improvements: []string{},
			},
		},
		{
			name: "case insensitive enums and low percentile",
			raw:  `{"percentile": 1, "pace": "deliberate", "sentiment": "COLLABORATIVE"}`,
			want: types.InterviewFeedback{
				Percentile: 5, Pace: "Deliberate", Sentiment: "Collaborative",
				Strengths: []string{}, Improvements: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInterviewFeedback(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseInterviewFeedback("no json here")
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}

func TestParseGapResult(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []types.MissingSkill
	}{
		{
			name: "objects",
			raw:  `{"missingSkills": [{"name": "Kafka", "reason": "Event streaming"}, {"name": "gRPC", "reason": "Service APIs"}]}`,
			want: []types.MissingSkill{{Name: "Kafka", Reason: "Event streaming"}, {Name: "gRPC", Reason: "Service APIs"}},
		},
		{
			name: "snake case key with plain strings",
			raw:  `{"missing_skills": ["Terraform", "", "Go"]}`,
			want: []types.MissingSkill{{Name: "Terraform"}, {Name: "Go"}},
		},
		{
			name: "capped at three",
			raw:  `{"skills": ["A", "B", "C", "D", "E"]}`,
			want: []types.MissingSkill{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		},
		{
			name: "no list",
			raw:  `{"answer": "none"}`,
			want: []types.MissingSkill{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGapResult(tt.raw, "Staff Engineer")
			require.NoError(t, err)
			assert.Equal(t, "Staff Engineer", got.TargetRole)
			assert.Equal(t, tt.want, got.MissingSkills)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "escaped quote in string", in: `x {"a":"say \"}\" now"} y`, want: `{"a":"say \"}\" now"}`, ok: true},
		{name: "nested", in: "```\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, ok: true},
		{name: "skips invalid leading block", in: `{not json} then {"ok":true}`, want: `{"ok":true}`, ok: true},
		{name: "unbalanced", in: `{"a":1`, ok: false},
		{name: "truncated outer with complete nested object", in: `{"level": 7, "skills": [{"name": "Go"}, {"name": "Ku`, ok: false},
		{name: "nested object inside invalid block is not used", in: `{oops {"a":1}}`, ok: false},
		{name: "none", in: "nothing", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
