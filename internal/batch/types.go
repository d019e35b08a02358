package batch

import (
	"time"
)

// Record is one submitted batch. Records are immutable once created.
type Record struct {
	ID         string    `json:"id"`
	WipCode    string    `json:"wipCode"`
	MixName    string    `json:"mixName"`
	PrepDate   time.Time `json:"prepDate"`
	UseByDate  time.Time `json:"useByDate"`
	Supervisor string    `json:"supervisor"`
	QAQuantity float64   `json:"qaQuantity"`
	LabelCount int       `json:"labelCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LabelDescriptor is the print data for one physical label copy.
// 1 <= CopyNumber <= TotalCopies.
type LabelDescriptor struct {
	BatchID     string    `json:"batchId"`
	WipCode     string    `json:"wipCode"`
	MixName     string    `json:"mixName"`
	PrepDate    time.Time `json:"prepDate"`
	UseByDate   time.Time `json:"useByDate"`
	Supervisor  string    `json:"supervisor"`
	CopyNumber  int       `json:"copyNumber"`
	TotalCopies int       `json:"totalCopies"`
}

// Submission is what Submit hands to the print side.
type Submission struct {
	Record Record
	Labels []LabelDescriptor
}

// State is the submission lifecycle position.
type State int

const (
	StateEditing State = iota
	StateReady
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Descriptors builds the ordered label set for a record.
func Descriptors(r Record) []LabelDescriptor {
	if r.LabelCount <= 0 {
		return nil
	}
	labels := make([]LabelDescriptor, 0, r.LabelCount)
	for i := 1; i <= r.LabelCount; i++ {
		labels = append(labels, LabelDescriptor{
			BatchID:     r.ID,
			WipCode:     r.WipCode,
			MixName:     r.MixName,
			PrepDate:    r.PrepDate,
			UseByDate:   r.UseByDate,
			Supervisor:  r.Supervisor,
			CopyNumber:  i,
			TotalCopies: r.LabelCount,
		})
	}
	return labels
}
