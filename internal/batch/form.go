package batch

import (
	"strings"
	"time"

	"github.com/kingrea/batchlabel/internal/dates"
	"github.com/kingrea/batchlabel/internal/labelplan"
	"github.com/kingrea/batchlabel/internal/lookup"
)

// Form is the raw operator input.
type Form struct {
	WipCode    string
	MixName    string
	PrepDate   string // YYYY-MM-DD
	Supervisor string
	Quantity   string
}

// Derived is everything computed from a Form.
type Derived struct {
	KnownCode bool
	Plan      labelplan.Plan
	PrepDate  time.Time
	UseBy     time.Time
	HasUseBy  bool
}

// UseByDisplay is the printed use-by date, or "" when no prep date is set.
func (d Derived) UseByDisplay() string {
	if !d.HasUseBy {
		return ""
	}
	return dates.FormatDisplay(d.UseBy)
}

// Derive computes the derived values of f.
func Derive(f Form, table *lookup.Table, shelfLifeDays int) Derived {
	d := Derived{
		KnownCode: table.Known(f.WipCode),
		Plan:      labelplan.ComputeLabelPlan(f.Quantity),
	}
	if prep, useBy, ok := UseByFor(f.PrepDate, shelfLifeDays); ok {
		d.PrepDate = prep
		d.UseBy = useBy
		d.HasUseBy = true
	}
	return d
}

// UseByFor parses prepDate and adds the shelf life. An empty or unparseable
// prep date yields ok == false.
func UseByFor(prepDate string, shelfLifeDays int) (prep, useBy time.Time, ok bool) {
	if strings.TrimSpace(prepDate) == "" {
		return time.Time{}, time.Time{}, false
	}
	prep, err := dates.ParseISO(prepDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return prep, dates.AddDays(prep, shelfLifeDays), true
}

// UseByDisplay renders the use-by date for prepDate, or "" when prepDate is
// empty or invalid.
func UseByDisplay(prepDate string, shelfLifeDays int) string {
	_, useBy, ok := UseByFor(prepDate, shelfLifeDays)
	if !ok {
		return ""
	}
	return dates.FormatDisplay(useBy)
}

// Complete reports whether the five required fields are populated. It does
// not look at the quantity's value, only its presence.
func (f Form) Complete() bool {
	return strings.TrimSpace(f.WipCode) != "" &&
		strings.TrimSpace(f.MixName) != "" &&
		strings.TrimSpace(f.PrepDate) != "" &&
		strings.TrimSpace(f.Supervisor) != "" &&
		strings.TrimSpace(f.Quantity) != ""
}
