package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"dreamforge/internal/errors"
	"dreamforge/internal/types"
)

// Interview enumerations. Unknown values collapse to the last-resort default.
var (
	interviewPaces      = []string{"Perfect", "Fast", "Steady", "Deliberate"}
	interviewSentiments = []string{"Decisive", "Strategic", "Collaborative", "Analytical"}
)

const (
	defaultPace      = "Steady"
	defaultSentiment = "Analytical"
	defaultCategory  = "core"
	maxMissingSkills = 3
)

// ParseResumeAnalysis turns a raw model reply into a ResumeAnalysis.
// Code fences and surrounding prose are ignored; wrong-typed fields fall back to zero values.
func ParseResumeAnalysis(raw string) (types.ResumeAnalysis, error) {
	obj, err := decodeObject(raw, "resume analysis")
	if err != nil {
		return types.ResumeAnalysis{}, err
	}

	analysis := objectField(obj, "analysis")
	insights := objectField(obj, "insights")

	result := types.ResumeAnalysis{
		Level:       clamp(intField(obj, "level"), 1, 10),
		CurrentRole: stringField(obj, "currentRole"),
		Location:    stringField(obj, "location"),
		Skills:      parseSkills(obj["skills"]),
		Analysis: types.ProfessionalAnalysis{
			Strengths:      stringList(analysis["strengths"]),
			Weaknesses:     stringList(analysis["weaknesses"]),
			MarketPosition: stringField(analysis, "marketPosition"),
		},
		Insights: types.CareerInsights{
			Immediate:            stringField(insights, "immediate"),
			Strategic:            stringField(insights, "strategic"),
			TargetRoles:          stringList(insights["targetRoles"]),
			RecommendedResources: parseResources(insights["recommendedResources"]),
		},
		MatchScore: clamp(intField(obj, "matchScore"), 0, 100),
	}
	return result, nil
}

// ParseInterviewFeedback turns a raw model reply into InterviewFeedback
func ParseInterviewFeedback(raw string) (types.InterviewFeedback, error) {
	obj, err := decodeObject(raw, "interview feedback")
	if err != nil {
		return types.InterviewFeedback{}, err
	}

	return types.InterviewFeedback{
		Percentile:   clamp(intField(obj, "percentile"), 5, 99),
		Pace:         oneOf(stringField(obj, "pace"), interviewPaces, defaultPace),
		Fillers:      max(intField(obj, "fillers"), 0),
		Sentiment:    oneOf(stringField(obj, "sentiment"), interviewSentiments, defaultSentiment),
		Feedback:     stringField(obj, "feedback"),
		Strengths:    stringList(obj["strengths"]),
		Improvements: stringList(obj["improvements"]),
	}, nil
}

// ParseGapResult turns a raw model reply into a GapResult holding at most three skills.
// Models name the list inconsistently, so a few common keys are accepted.
func ParseGapResult(raw, targetRole string) (types.GapResult, error) {
	obj, err := decodeObject(raw, "gap analysis")
	if err != nil {
		return types.GapResult{}, err
	}

	var list any
	for _, key := range []string{"missingSkills", "missing_skills", "skills"} {
		if v, ok := obj[key]; ok {
			list = v
			break
		}
	}

	missing := make([]types.MissingSkill, 0, maxMissingSkills)
	items, _ := list.([]any)
	for _, item := range items {
		var skill types.MissingSkill
		switch v := item.(type) {
		case string:
			skill.Name = strings.TrimSpace(v)
		case map[string]any:
			skill.Name = stringField(v, "name")
			skill.Reason = stringField(v, "reason")
		}
		if skill.Name == "" {
			continue
		}
		missing = append(missing, skill)
		if len(missing) == maxMissingSkills {
			break
		}
	}

	return types.GapResult{TargetRole: targetRole, MissingSkills: missing}, nil
}

func decodeObject(raw, what string) (map[string]any, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return nil, errors.NewParseError(errors.ErrCodeAIParseFailed,
			"AI response for "+what+" did not contain a JSON object", nil)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, errors.NewParseError(errors.ErrCodeAIParseFailed,
			"AI response for "+what+" is not valid JSON", err)
	}
	return obj, nil
}

// extractJSONObject returns the first balanced {...} block in text that is valid JSON.
// Braces inside JSON strings are skipped. An object that never closes fails the
// whole extraction, so a truncated reply cannot yield one of its nested objects.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		end := balancedEnd(text, start)
		if end < 0 {
			return "", false
		}
		if candidate := text[start:end]; json.Valid([]byte(candidate)) {
			return candidate, true
		}

		// retry only after the invalid block
		next := strings.IndexByte(text[end:], '{')
		if next < 0 {
			break
		}
		start = end + next
	}
	return "", false
}

// balancedEnd returns the index just past the brace closing text[start], or -1
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func parseSkills(v any) []types.ExtractedSkill {
	items, _ := v.([]any)
	skills := make([]types.ExtractedSkill, 0, len(items))
	for _, item := range items {
		var skill types.ExtractedSkill
		switch s := item.(type) {
		case string:
			skill.Name = strings.TrimSpace(s)
		case map[string]any:
			skill.Name = stringField(s, "name")
			skill.Category = strings.ToLower(stringField(s, "category"))
			skill.Proficiency = intField(s, "proficiency")
		}
		if skill.Name == "" {
			continue
		}
		if skill.Category == "" {
			skill.Category = defaultCategory
		}
		skill.Proficiency = clamp(skill.Proficiency, 1, 10)
		skills = append(skills, skill)
	}
	return skills
}

func parseResources(v any) []types.Resource {
	items, _ := v.([]any)
	resources := make([]types.Resource, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := types.Resource{
			Title: stringField(m, "title"),
			URL:   stringField(m, "url"),
			Type:  stringField(m, "type"),
		}
		if r.Title == "" && r.URL == "" {
			continue
		}
		resources = append(resources, r)
	}
	return resources
}

func objectField(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// intField accepts JSON numbers and numeric strings. Fractions are truncated.
func intField(obj map[string]any, key string) int {
	var text string
	switch v := obj[key].(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	default:
		return 0
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func oneOf(value string, allowed []string, fallback string) string {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a
		}
	}
	return fallback
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
