package spool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/batch"
)

// DefaultDelay lets the renderer settle before the print request fires.
const DefaultDelay = 500 * time.Millisecond

// ErrNoPrinter is reported when Schedule fires without a printer.
var ErrNoPrinter = errors.New("spool: no printer configured")

// Printer renders and prints an ordered label set.
type Printer interface {
	Print(ctx context.Context, job Job) error
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(ctx context.Context, job Job) error

// Print calls f.
func (f PrinterFunc) Print(ctx context.Context, job Job) error { return f(ctx, job) }

// Ticket identifies one staged label set.
type Ticket uint64

// Job is a claimed label set.
type Job struct {
	Ticket Ticket
	Labels []batch.LabelDescriptor
}

// BatchID is the batch the labels belong to, or "" for an empty job.
func (j Job) BatchID() string {
	if len(j.Labels) == 0 {
		return ""
	}
	return j.Labels[0].BatchID
}

// Result reports how a scheduled print ended.
type Result struct {
	Job Job
	Err error
}

// Timer is the subset of *time.Timer the spooler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer; time.AfterFunc satisfies it via the adapter in New.
type AfterFunc func(d time.Duration, f func()) Timer

// Spooler owns the visible label set and the pending print request.
type Spooler struct {
	delay     time.Duration
	printer   Printer
	logger    *zap.Logger
	afterFunc AfterFunc
	results   chan Result

	mu      sync.Mutex
	seq     Ticket
	current Job
	claimed bool
	timer   Timer
	wg      sync.WaitGroup
}

// Option customizes a Spooler.
type Option func(*Spooler)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *Spooler) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithPrinter sets the printer used by Schedule.
func WithPrinter(p Printer) Option {
	return func(s *Spooler) {
		if p != nil {
			s.printer = p
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Spooler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAfterFunc replaces time.AfterFunc, for deterministic tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Spooler) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithResults delivers the outcome of every scheduled print on ch. Sends
// never block; results are dropped when ch is full.
func WithResults(ch chan Result) Option {
	return func(s *Spooler) {
		s.results = ch
	}
}

// New creates a Spooler.
func New(opts ...Option) *Spooler {
	s := &Spooler{
		delay:  DefaultDelay,
		logger: zap.NewNop(),
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Delay is the settle delay before a staged set is printed.
func (s *Spooler) Delay() time.Duration { return s.delay }

// Replace makes labels the visible set and cancels any pending print request
// for the previous set. The returned ticket is the only one Claim will honor.
func (s *Spooler) Replace(labels []batch.LabelDescriptor) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(labels)
}

func (s *Spooler) replaceLocked(labels []batch.LabelDescriptor) Ticket {
	if s.timer != nil {
		if s.timer.Stop() {
			s.wg.Done()
			s.logger.Debug("pending print superseded", zap.Uint64("ticket", uint64(s.current.Ticket)))
		}
		s.timer = nil
	}
	s.seq++
	cp := make([]batch.LabelDescriptor, len(labels))
	copy(cp, labels)
	s.current = Job{Ticket: s.seq, Labels: cp}
	s.claimed = false
	return s.seq
}

// Claim hands out the job for ticket exactly once, and only while ticket is
// still the current set.
func (s *Spooler) Claim(ticket Ticket) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(ticket)
}

func (s *Spooler) claimLocked(ticket Ticket) (Job, bool) {
	if ticket != s.current.Ticket || s.claimed || len(s.current.Labels) == 0 {
		return Job{}, false
	}
	s.claimed = true
	return s.copyJob(), true
}

// Visible returns the current label set.
func (s *Spooler) Visible() []batch.LabelDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyJob().Labels
}

// Current reports the current ticket.
func (s *Spooler) Current() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Ticket
}

// Pending reports whether a Schedule timer is armed.
func (s *Spooler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Spooler) copyJob() Job {
	labels := make([]batch.LabelDescriptor, len(s.current.Labels))
	copy(labels, s.current.Labels)
	return Job{Ticket: s.current.Ticket, Labels: labels}
}

// Schedule stages labels and arms a timer that prints them after the settle
// delay unless a newer set replaces them first.
func (s *Spooler) Schedule(ctx context.Context, labels []batch.LabelDescriptor) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket := s.replaceLocked(labels)
	if len(labels) == 0 {
		return ticket
	}
	s.wg.Add(1)
	s.timer = s.afterFunc(s.delay, func() {
		defer s.wg.Done()
		s.fire(ctx, ticket)
	})
	s.logger.Debug("print scheduled", zap.Uint64("ticket", uint64(ticket)), zap.Int("labels", len(labels)), zap.Duration("delay", s.delay))
	return ticket
}

func (s *Spooler) fire(ctx context.Context, ticket Ticket) {
	s.mu.Lock()
	job, ok := s.claimLocked(ticket)
	if ok {
		s.timer = nil
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	err := s.Print(ctx, job)
	s.deliver(Result{Job: job, Err: err})
}

// Print sends job to the configured printer.
func (s *Spooler) Print(ctx context.Context, job Job) error {
	if s.printer == nil {
		return ErrNoPrinter
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.printer.Print(ctx, job); err != nil {
		s.logger.Error("print failed", zap.String("batch", job.BatchID()), zap.Error(err))
		return err
	}
	s.logger.Info("labels printed", zap.String("batch", job.BatchID()), zap.Int("labels", len(job.Labels)))
	return nil
}

func (s *Spooler) deliver(r Result) {
	if s.results == nil {
		return
	}
	select {
	case s.results <- r:
	default:
	}
}

// Stop cancels a pending print request. It returns true when one was pending.
func (s *Spooler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	if stopped {
		s.wg.Done()
	}
	return stopped
}

// Wait blocks until every armed timer has either fired or been cancelled.
func (s *Spooler) Wait() {
	s.wg.Wait()
}
