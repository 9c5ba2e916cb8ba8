package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"dreamforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobSearchResult", &JobsTextFormatter{})
	registry.RegisterFormatter("markdown", "JobSearchResult", &JobsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.JobSearchResult:
		return "JobSearchResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter renders an ingestion result as plain text
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}
	a := result.Analysis

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	fmt.Fprintf(&output, "Current role: %s\n", a.CurrentRole)
	fmt.Fprintf(&output, "Location: %s\n", a.Location)
	fmt.Fprintf(&output, "Level: %d/10  XP: %d  Match score: %d/100\n", a.Level, result.XP, a.MatchScore)
	fmt.Fprintf(&output, "Skills linked: %d\n\n", result.SkillsLinked)

	output.WriteString("=== SKILLS ===\n")
	for _, s := range a.Skills {
		fmt.Fprintf(&output, "- %s (%s) %d/10\n", s.Name, s.Category, s.Proficiency)
	}
	output.WriteString("\n")

	output.WriteString("=== ANALYSIS ===\n")
	writeTextList(&output, "Strengths", a.Analysis.Strengths)
	writeTextList(&output, "Weaknesses", a.Analysis.Weaknesses)
	output.WriteString("Market position:\n")
	output.WriteString(a.Analysis.MarketPosition)
	output.WriteString("\n\n")

	output.WriteString("=== INSIGHTS ===\n")
	output.WriteString("Immediate:\n")
	output.WriteString(a.Insights.Immediate)
	output.WriteString("\n\n")
	output.WriteString("Strategic:\n")
	output.WriteString(a.Insights.Strategic)
	output.WriteString("\n\n")
	writeTextList(&output, "Target roles", a.Insights.TargetRoles)

	if len(a.Insights.RecommendedResources) > 0 {
		output.WriteString("Recommended resources:\n")
		for _, r := range a.Insights.RecommendedResources {
			fmt.Fprintf(&output, "- %s [%s] %s\n", r.Title, r.Type, r.URL)
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter renders an ingestion result as markdown
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}
	a := result.Analysis

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	fmt.Fprintf(&output, "**Current role:** %s  \n", a.CurrentRole)
	fmt.Fprintf(&output, "**Location:** %s  \n", a.Location)
	fmt.Fprintf(&output, "**Level:** %d/10 | **XP:** %d | **Match score:** %d/100\n\n", a.Level, result.XP, a.MatchScore)

	output.WriteString("## Skills\n\n")
	output.WriteString("| Skill | Category | Proficiency |\n|---|---|---|\n")
	for _, s := range a.Skills {
		fmt.Fprintf(&output, "| %s | %s | %d/10 |\n", s.Name, s.Category, s.Proficiency)
	}
	output.WriteString("\n")

	output.WriteString("## Analysis\n\n")
	writeMarkdownList(&output, "Strengths", a.Analysis.Strengths)
	writeMarkdownList(&output, "Weaknesses", a.Analysis.Weaknesses)
	output.WriteString("### Market Position\n")
	output.WriteString(a.Analysis.MarketPosition)
	output.WriteString("\n\n")

	output.WriteString("## Insights\n\n")
	output.WriteString("### Immediate\n")
	output.WriteString(a.Insights.Immediate)
	output.WriteString("\n\n")
	output.WriteString("### Strategic\n")
	output.WriteString(a.Insights.Strategic)
	output.WriteString("\n\n")
	writeMarkdownList(&output, "Target Roles", a.Insights.TargetRoles)

	if len(a.Insights.RecommendedResources) > 0 {
		output.WriteString("### Recommended Resources\n")
		for _, r := range a.Insights.RecommendedResources {
			fmt.Fprintf(&output, "- [%s](%s) (%s)\n", r.Title, r.URL, r.Type)
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// JobsTextFormatter renders scored postings as plain text
type JobsTextFormatter struct{}

func (jtf *JobsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobSearchResult)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "=== JOBS: %s in %s ===\n", result.Query, result.Location)
	if result.Source != "" {
		fmt.Fprintf(&output, "Source: %s\n", result.Source)
	}
	if result.Error != "" {
		fmt.Fprintf(&output, "Error: %s\n", result.Error)
	}
	output.WriteString("\n")

	for i, job := range result.Jobs {
		fmt.Fprintf(&output, "%d. [%d%%] %s at %s\n", i+1, job.Match, job.Title, job.Company)
		fmt.Fprintf(&output, "   %s | %s | %s\n", job.Location, job.Type, job.Salary)
		if len(job.Requirements) > 0 {
			fmt.Fprintf(&output, "   Requirements: %s\n", strings.Join(job.Requirements, ", "))
		}
		if job.URL != "" {
			fmt.Fprintf(&output, "   %s\n", job.URL)
		}
	}
	if len(result.Jobs) == 0 {
		output.WriteString("No postings found.\n")
	}

	return output.String(), nil
}

func (jtf *JobsTextFormatter) SupportedType() string {
	return "JobSearchResult"
}

// JobsMarkdownFormatter renders scored postings as a markdown table
type JobsMarkdownFormatter struct{}

func (jmf *JobsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobSearchResult)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Jobs: %s in %s\n\n", result.Query, result.Location)
	if result.Error != "" {
		fmt.Fprintf(&output, "> %s\n\n", result.Error)
	}
	if len(result.Jobs) == 0 {
		output.WriteString("No postings found.\n")
		return output.String(), nil
	}

	output.WriteString("| Match | Title | Company | Location | Type | Salary |\n|---|---|---|---|---|---|\n")
	for _, job := range result.Jobs {
		title := job.Title
		if job.URL != "" {
			title = fmt.Sprintf("[%s](%s)", job.Title, job.URL)
		}
		fmt.Fprintf(&output, "| %d%% | %s | %s | %s | %s | %s |\n",
			job.Match, title, job.Company, job.Location, job.Type, job.Salary)
	}
	if result.Source != "" {
		fmt.Fprintf(&output, "\n_Source: %s_\n", result.Source)
	}

	return output.String(), nil
}

func (jmf *JobsMarkdownFormatter) SupportedType() string {
	return "JobSearchResult"
}

func writeTextList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeMarkdownList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
