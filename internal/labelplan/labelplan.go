// Package labelplan turns a QA-measured quantity into the number of physical
// labels a batch needs.
package labelplan

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MinKg and MaxKg bound an accepted quantity, inclusive.
	MinKg = 1.0
	MaxKg = 500.0
	// KgPerLabel is the weight covered by one label; a started increment
	// needs its own label.
	KgPerLabel = 20.0

	// RangeWarning is shown when a parsed quantity falls outside [MinKg, MaxKg].
	RangeWarning = "Quantity must be between 1kg and 500kg."
)

// Plan is the outcome of ComputeLabelPlan. A zero LabelCount with an empty
// Warning means the quantity has not been entered yet.
type Plan struct {
	LabelCount int
	Warning    string
}

// Incomplete reports whether the quantity was absent or unparseable.
func (p Plan) Incomplete() bool {
	return p.LabelCount == 0 && p.Warning == ""
}

// Valid reports whether the plan can be printed.
func (p Plan) Valid() bool {
	return p.LabelCount > 0 && p.Warning == ""
}

// ComputeLabelPlan parses quantityText as kilograms. Text that is not a number
// (including empty text and NaN) is incomplete, not invalid.
func ComputeLabelPlan(quantityText string) Plan {
	qty, ok := ParseQuantity(quantityText)
	if !ok {
		return Plan{}
	}
	if qty < MinKg || qty > MaxKg {
		return Plan{Warning: RangeWarning}
	}
	return Plan{LabelCount: int(math.Ceil(qty / KgPerLabel))}
}

// ParseQuantity parses a quantity, ignoring surrounding whitespace.
func ParseQuantity(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	qty, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(qty) {
		return 0, false
	}
	return qty, true
}
