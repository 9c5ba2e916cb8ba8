package formatters

import (
	"encoding/json"
	"testing"

	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() types.AnalysisResult {
	return types.AnalysisResult{
		SkillsLinked: 2,
		XP:           4000,
		Analysis: types.ResumeAnalysis{
			Level:       4,
			CurrentRole: "Backend Engineer",
			Location:    "Bengaluru",
			MatchScore:  72,
			Skills: []types.ExtractedSkill{
				{Name: "Go", Category: "backend", Proficiency: 8},
				{Name: "Kubernetes", Category: "cloud", Proficiency: 6},
			},
			Analysis: types.ProfessionalAnalysis{
				Strengths:      []string{"Distributed systems"},
				MarketPosition: "Strong mid-level candidate",
			},
			Insights: types.CareerInsights{
				Immediate:   "Publish a Terraform module",
				TargetRoles: []string{"Platform Engineer"},
				RecommendedResources: []types.Resource{
					{Title: "SRE Book", URL: "https://sre.google/books/", Type: "book"},
				},
			},
		},
	}
}

func sampleJobs() types.JobSearchResult {
	return types.JobSearchResult{
		Query:    "Platform Engineer",
		Location: "India",
		Source:   "adzuna",
		Jobs: []types.JobPosting{
			{Title: "Platform Engineer", Company: "Acme", Location: "Pune", Type: "Full-time", Salary: "₹18.0L+", Match: 92,
				Requirements: []string{"IT", "Jobs"}, URL: "https://example.com/1"},
		},
	}
}

func TestFormatByType(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		format   string
		contains []string
	}{
		{"analysis text", sampleAnalysis(), "text", []string{"=== RESUME ANALYSIS ===", "Level: 4/10  XP: 4000", "- Go (backend) 8/10", "- SRE Book [book]"}},
		{"analysis markdown", sampleAnalysis(), "markdown", []string{"# Resume Analysis", "| Kubernetes | cloud | 6/10 |", "### Target Roles", "[SRE Book](https://sre.google/books/)"}},
		{"jobs text", sampleJobs(), "text", []string{"=== JOBS: Platform Engineer in India ===", "1. [92%] Platform Engineer at Acme", "Requirements: IT, Jobs"}},
		{"jobs markdown", sampleJobs(), "markdown", []string{"| 92% | [Platform Engineer](https://example.com/1) | Acme |", "_Source: adzuna_"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GlobalRegistry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatJSONForAnyType(t *testing.T) {
	out, err := GlobalRegistry.Format(types.Projection{Years: 2, Focus: "AI/ML"}, "json")
	require.NoError(t, err)

	var got types.Projection
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "AI/ML", got.Focus)
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(types.Projection{}, "text")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(sampleJobs(), "yaml")
	assert.Error(t, err)
}

func TestJobsEmptyResult(t *testing.T) {
	out, err := GlobalRegistry.Format(types.JobSearchResult{Query: "Rust", Location: "India", Jobs: []types.JobPosting{}, Error: "job feeds are unavailable"}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "> job feeds are unavailable")
	assert.Contains(t, out, "No postings found.")
}

func TestSupportedFormats(t *testing.T) {
	assert.ElementsMatch(t, []string{"json", "text", "markdown"}, GlobalRegistry.GetSupportedFormats())
}
