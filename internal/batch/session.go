package batch

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/dates"
	"github.com/kingrea/batchlabel/internal/labelplan"
	"github.com/kingrea/batchlabel/internal/lookup"
)

// ErrNotReady is returned by Submit while the submit gate is closed.
var ErrNotReady = errors.New("batch: form is not ready to submit")

// minResolvableCodeLen is the code length above which the UI offers to
// resolve an unknown code.
const minResolvableCodeLen = 3

// Session is the single active label form plus the session history. It is
// driven from one event loop and is not safe for concurrent use.
type Session struct {
	table     *lookup.Table
	shelfLife int
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger

	form          Form
	history       []Record
	labels        []LabelDescriptor
	submitted     bool
	resolving     bool
	resolvingCode string
}

// Option customizes a Session.
type Option func(*Session)

// WithIDGenerator overrides NewID, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession starts an empty form whose prep date defaults to today.
func NewSession(table *lookup.Table, shelfLifeDays int, opts ...Option) *Session {
	s := &Session{
		table:     table,
		shelfLife: shelfLifeDays,
		newID:     NewID,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.form.PrepDate = dates.TodayAt(s.now())
	return s
}

// ShelfLifeDays reports the configured shelf life.
func (s *Session) ShelfLifeDays() int { return s.shelfLife }

// Table returns the lookup table backing auto-fill.
func (s *Session) Table() *lookup.Table { return s.table }

// Form returns the raw inputs.
func (s *Session) Form() Form { return s.form }

// Derived recomputes the derived values from the current inputs.
func (s *Session) Derived() Derived {
	return Derive(s.form, s.table, s.shelfLife)
}

// SetWipCode stores the upper-cased code and re-runs the table lookup. A
// known code always overwrites the mix name. Any other code clears it, even
// one the operator typed by hand before the code was complete.
func (s *Session) SetWipCode(raw string) (matched bool) {
	s.touch()
	code := strings.ToUpper(raw)
	s.form.WipCode = code
	if name, ok := s.table.Lookup(code); ok {
		s.form.MixName = name
		s.logger.Debug("wip code matched", zap.String("code", code), zap.String("mix", name))
		return true
	}
	s.form.MixName = ""
	return false
}

// SetMixName stores a manually typed mix name.
func (s *Session) SetMixName(name string) {
	s.touch()
	s.form.MixName = name
}

// SetPrepDate stores the prep date (YYYY-MM-DD).
func (s *Session) SetPrepDate(iso string) {
	s.touch()
	s.form.PrepDate = iso
}

// SetSupervisor stores the supervisor. Any string is accepted.
func (s *Session) SetSupervisor(name string) {
	s.touch()
	s.form.Supervisor = name
}

// SetQuantity stores the raw quantity text.
func (s *Session) SetQuantity(text string) {
	s.touch()
	s.form.Quantity = text
}

func (s *Session) touch() {
	s.submitted = false
}

// Resolving reports whether a name resolution is in flight.
func (s *Session) Resolving() bool { return s.resolving }

// OfferResolve reports whether the UI should offer to resolve the current
// code: it is unknown, longer than three characters, the mix name is empty,
// and nothing is in flight.
func (s *Session) OfferResolve() bool {
	code := strings.TrimSpace(s.form.WipCode)
	return !s.resolving &&
		len(code) > minResolvableCodeLen &&
		strings.TrimSpace(s.form.MixName) == "" &&
		!s.table.Known(code)
}

// BeginResolve marks a resolution in flight and returns the code to resolve.
// It refuses while another resolution is running or the code is empty.
func (s *Session) BeginResolve() (string, bool) {
	code := strings.TrimSpace(s.form.WipCode)
	if s.resolving || code == "" {
		return "", false
	}
	s.resolving = true
	s.resolvingCode = code
	return code, true
}

// FinishResolve clears the busy flag and applies name when the form still
// shows the code it was resolved for. It reports whether name was applied.
func (s *Session) FinishResolve(code, name string) bool {
	s.resolving = false
	s.resolvingCode = ""
	if strings.TrimSpace(s.form.WipCode) != code {
		s.logger.Debug("discarding stale resolution", zap.String("code", code))
		return false
	}
	s.touch()
	s.form.MixName = name
	return true
}

// CanSubmit is the submit gate: all five fields present, a valid prep date,
// a label plan with labels and no warning, and no resolution in flight.
func (s *Session) CanSubmit() bool {
	if s.resolving || !s.form.Complete() {
		return false
	}
	d := s.Derived()
	return d.HasUseBy && d.Plan.Valid()
}

// State reports the lifecycle position.
func (s *Session) State() State {
	if s.submitted {
		return StateSubmitted
	}
	if s.CanSubmit() {
		return StateReady
	}
	return StateEditing
}

// Submit records a batch and builds its label set. The form keeps its values.
func (s *Session) Submit() (Submission, error) {
	if !s.CanSubmit() {
		return Submission{}, ErrNotReady
	}
	d := s.Derived()
	qty, _ := labelplan.ParseQuantity(s.form.Quantity)
	rec := Record{
		ID:         s.newID(),
		WipCode:    strings.TrimSpace(s.form.WipCode),
		MixName:    strings.TrimSpace(s.form.MixName),
		PrepDate:   d.PrepDate,
		UseByDate:  d.UseBy,
		Supervisor: strings.TrimSpace(s.form.Supervisor),
		QAQuantity: qty,
		LabelCount: d.Plan.LabelCount,
		CreatedAt:  s.now(),
	}
	if rec.ID == "" {
		rec.ID = fallbackID(rec.CreatedAt)
	}
	s.history = append([]Record{rec}, s.history...)
	s.labels = Descriptors(rec)
	s.submitted = true
	s.logger.Info("batch submitted",
		zap.String("id", rec.ID),
		zap.String("code", rec.WipCode),
		zap.Float64("qty_kg", rec.QAQuantity),
		zap.Int("labels", rec.LabelCount),
	)
	return Submission{Record: rec, Labels: s.Labels()}, nil
}

// History lists submitted batches, most recent first.
func (s *Session) History() []Record {
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Labels returns the label set of the latest submission.
func (s *Session) Labels() []LabelDescriptor {
	out := make([]LabelDescriptor, len(s.labels))
	copy(out, s.labels)
	return out
}
