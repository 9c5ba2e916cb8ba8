package jobs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Condition names a predicate over a posting and a profile
type Condition string

const (
	CondTitleContainsTargetRole  Condition = "title_contains_target_role"
	CondTitleContainsCurrentRole Condition = "title_contains_current_role"
	CondRemoteWithoutLocation    Condition = "remote_without_location_preference"
	CondLocationMatchesUser      Condition = "location_matches_user"
)

var knownConditions = []Condition{
	CondTitleContainsTargetRole,
	CondTitleContainsCurrentRole,
	CondRemoteWithoutLocation,
	CondLocationMatchesUser,
}

// Rule adds Weight to a posting's score when its condition holds
type Rule struct {
	Name   string    `yaml:"name" json:"name"`
	When   Condition `yaml:"when" json:"when"`
	Weight int       `yaml:"weight" json:"weight"`
}

// MaxMatchScore is the highest score any posting can get; 100 is reserved as unreachable
const MaxMatchScore = 99

// RuleSet is the declarative scoring table
type RuleSet struct {
	Baseline                int      `yaml:"baseline" json:"baseline"`
	Min                     int      `yaml:"min" json:"min"`
	Max                     int      `yaml:"max" json:"max"`
	SalaryPlaceholder       string   `yaml:"salaryPlaceholder" json:"salaryPlaceholder"`
	RequirementPlaceholders []string `yaml:"requirementPlaceholders" json:"requirementPlaceholders"`
	Rules                   []Rule   `yaml:"rules" json:"rules"`
}

// DefaultRuleSet returns the built-in scoring table
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Baseline:                75,
		Min:                     0,
		Max:                     MaxMatchScore,
		SalaryPlaceholder:       "Competitive",
		RequirementPlaceholders: []string{"Systems", "Tech"},
		Rules: []Rule{
			{Name: "target role in title", When: CondTitleContainsTargetRole, Weight: 15},
			{Name: "current role in title", When: CondTitleContainsCurrentRole, Weight: 5},
			{Name: "remote and no location preference", When: CondRemoteWithoutLocation, Weight: 5},
			{Name: "location matches", When: CondLocationMatchesUser, Weight: 10},
		},
	}
}

// ParseRules reads a YAML rule table. Keys that are absent keep their default values.
func ParseRules(data []byte) (*RuleSet, error) {
	rs := DefaultRuleSet()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid scoring rules: %w", err)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// LoadRules reads a rule table from disk
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// Validate checks bounds and conditions
func (rs *RuleSet) Validate() error {
	if rs.Min < 0 || rs.Max > MaxMatchScore || rs.Min > rs.Max {
		return fmt.Errorf("invalid scoring bounds: min %d, max %d", rs.Min, rs.Max)
	}
	for i, r := range rs.Rules {
		if !slices.Contains(knownConditions, r.When) {
			return fmt.Errorf("scoring rule %d (%q): unknown condition %q", i, r.Name, r.When)
		}
	}
	return nil
}
