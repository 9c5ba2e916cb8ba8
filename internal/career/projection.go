package career

import (
	"math"
	"strings"

	"dreamforge/internal/errors"
	"dreamforge/internal/types"
)

// Projection focus areas
const (
	FocusFrontend = "Frontend"
	FocusCloud    = "Cloud"
	FocusAIML     = "AI/ML"
)

const (
	projectionBaseSalary = 120000
	projectionYearGrowth = 0.15
	projectionMaxYears   = 10
	projectionMaxLevel   = 10
)

// ProjectCareer estimates salary and level after the given number of years in a focus area
func ProjectCareer(years int, focus string) (types.Projection, error) {
	focus = canonicalFocus(focus)
	fields := map[string]string{}
	if years < 1 || years > projectionMaxYears {
		fields["years"] = "Must be between 1 and 10"
	}
	if focus == "" {
		fields["focus"] = "Must be one of: Frontend, Cloud, AI/ML"
	}
	if len(fields) > 0 {
		return types.Projection{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid projection input", nil).
			WithFields(fields)
	}

	multiplier := 1.1
	levelBonus := 0
	switch focus {
	case FocusAIML:
		multiplier = 1.4
		levelBonus = 1
	case FocusCloud:
		multiplier = 1.25
	}

	salary := math.Round(projectionBaseSalary * (1 + float64(years)*projectionYearGrowth) * multiplier)
	return types.Projection{
		Years:           years,
		Focus:           focus,
		ProjectedSalary: int(salary),
		ProjectedLevel:  min(projectionMaxLevel, 3+years+levelBonus),
	}, nil
}

func canonicalFocus(focus string) string {
	for _, f := range []string{FocusFrontend, FocusCloud, FocusAIML} {
		if strings.EqualFold(strings.TrimSpace(focus), f) {
			return f
		}
	}
	return ""
}
