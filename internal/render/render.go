// Package render turns label descriptors into printable units: a bordered
// text card for terminal previews and an HTML sheet sized to label stock.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/dates"
)

// Label stock: 3in x 2in.
const (
	StockWidthMM  = 76.2
	StockHeightMM = 50.8
)

var upper = cases.Upper(language.English)

// Fields is the display-ready content of one label.
type Fields struct {
	Code       string
	UseBy      string
	MixName    string
	PrepDate   string
	Supervisor string
	ShortID    string
	Copy       string
}

// FieldsFor formats a descriptor for printing. The mix name is upper-cased
// with fixed English casing rules and the supervisor is shortened to a first
// name.
func FieldsFor(l batch.LabelDescriptor) Fields {
	return Fields{
		Code:       l.WipCode,
		UseBy:      dates.FormatDisplay(l.UseByDate),
		MixName:    upper.String(l.MixName),
		PrepDate:   dates.FormatDisplay(l.PrepDate),
		Supervisor: FirstName(l.Supervisor),
		ShortID:    batch.ShortID(l.BatchID),
		Copy:       fmt.Sprintf("%d/%d", l.CopyNumber, l.TotalCopies),
	}
}

// FirstName returns the first whitespace-separated word of name.
func FirstName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
