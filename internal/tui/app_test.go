package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/config"
	"github.com/kingrea/batchlabel/internal/resolver"
	"github.com/kingrea/batchlabel/internal/spool"
)

var testNow = time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

func TestKnownCodeAutoFillsMixName(t *testing.T) {
	app, _ := newTestApp(t)
	typeText(app, "wip-1001")

	form := app.session.Form()
	if form.WipCode != "WIP-1001" {
		t.Fatalf("code = %q, want upper-cased WIP-1001", form.WipCode)
	}
	if form.MixName != "Vanilla Base" {
		t.Fatalf("mix = %q, want Vanilla Base", form.MixName)
	}
	if got := app.inputs[fieldMix].Value(); got != "Vanilla Base" {
		t.Fatalf("mix input = %q, want Vanilla Base", got)
	}
	if got := app.inputs[fieldCode].Value(); got != "WIP-1001" {
		t.Fatalf("code input = %q, want WIP-1001", got)
	}
	if !strings.Contains(app.View(), "Auto-Matched") {
		t.Fatalf("view should show the Auto-Matched badge")
	}
}

func TestPrepDateDefaultsToToday(t *testing.T) {
	app, _ := newTestApp(t)
	if got := app.inputs[fieldPrep].Value(); got != "2025-01-01" {
		t.Fatalf("prep input = %q, want 2025-01-01", got)
	}
}

func TestScenarioSubmitPrintsThreeLabels(t *testing.T) {
	app, printer := newTestApp(t)
	fillForm(app, "WIP-1001", "Jane Smith", "45")

	view := app.View()
	for _, want := range []string{"11 Jan 2025", "Labels To Print", "READY"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	app = runCommands(t, model, cmd)

	jobs := printer.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("printed %d job(s), want 1", len(jobs))
	}
	if n := len(jobs[0].Labels); n != 3 {
		t.Fatalf("printed %d label(s), want 3", n)
	}
	for i, l := range jobs[0].Labels {
		if l.CopyNumber != i+1 || l.TotalCopies != 3 {
			t.Fatalf("label %d = %d/%d", i, l.CopyNumber, l.TotalCopies)
		}
	}
	history := app.session.History()
	if len(history) != 1 || history[0].LabelCount != 3 {
		t.Fatalf("unexpected history %+v", history)
	}
	if app.session.State() != batch.StateSubmitted {
		t.Fatalf("state = %s, want submitted", app.session.State())
	}
	if got := app.inputs[fieldQuantity].Value(); got != "45" {
		t.Fatalf("form should keep its fields after submit, qty = %q", got)
	}
	if !strings.Contains(app.statusMsg, "Printed 3 label(s)") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestSecondSubmissionSupersedesPendingPrint(t *testing.T) {
	app, printer := newTestApp(t)
	fillForm(app, "WIP-1001", "Jane Smith", "45")

	_, first := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	setField(app, fieldQuantity, "100")
	_, second := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})

	app = runCommands(t, app, first)
	if jobs := printer.Jobs(); len(jobs) != 0 {
		t.Fatalf("superseded submission printed %d job(s)", len(jobs))
	}
	app = runCommands(t, app, second)

	jobs := printer.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("printed %d job(s), want 1", len(jobs))
	}
	if n := len(jobs[0].Labels); n != 5 {
		t.Fatalf("printed %d label(s), want 5", n)
	}
	if len(app.session.History()) != 2 {
		t.Fatalf("both submissions belong in history")
	}
}

func TestSubmitBlockedWhileIncomplete(t *testing.T) {
	app, printer := newTestApp(t)
	typeText(app, "WIP-1001")

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if cmd != nil {
		t.Fatalf("incomplete form must not schedule a print")
	}
	app = model.(*App)
	if len(printer.Jobs()) != 0 || len(app.session.History()) != 0 {
		t.Fatalf("incomplete form must not submit")
	}
}

func TestOutOfRangeQuantityShowsWarning(t *testing.T) {
	app, _ := newTestApp(t)
	fillForm(app, "WIP-1001", "Jane Smith", "600")
	if app.session.CanSubmit() {
		t.Fatalf("600kg must block submission")
	}
	if !strings.Contains(app.View(), "Quantity must be between 1kg and 500kg.") {
		t.Fatalf("view should show the range warning")
	}
}

func TestAutoResolveFillsMixName(t *testing.T) {
	app, _ := newTestApp(t, WithResolver(resolver.Guard(resolver.Static{"XYZ-9000": "Mango Puree"})))
	typeText(app, "xyz-9000")

	if !app.session.OfferResolve() {
		t.Fatalf("unknown code with empty mix name should offer resolution")
	}
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	app = model.(*App)
	if !app.session.Resolving() {
		t.Fatalf("resolution should be in flight")
	}
	if app.session.CanSubmit() {
		t.Fatalf("submit must stay closed while resolving")
	}
	app = runCommands(t, app, cmd)

	if app.session.Resolving() {
		t.Fatalf("busy flag must clear")
	}
	if got := app.inputs[fieldMix].Value(); got != "Mango Puree" {
		t.Fatalf("mix input = %q, want Mango Puree", got)
	}
}

func TestAutoResolveFailureUsesFallback(t *testing.T) {
	failing := resolver.BackendFunc(func(context.Context, string) (string, error) {
		return "", errors.New("network down")
	})
	app, _ := newTestApp(t, WithResolver(resolver.Guard(failing)))
	typeText(app, "XYZ-9000")

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	app = runCommands(t, model, cmd)

	if got := app.session.Form().MixName; got != resolver.Fallback {
		t.Fatalf("mix = %q, want fallback", got)
	}
	if app.session.Resolving() {
		t.Fatalf("busy flag must clear after failure")
	}
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	app, _ := newTestApp(t, WithResolver(resolver.Guard(resolver.Static{"XYZ-9000": "Mango Puree"})))
	typeText(app, "XYZ-9000")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	typeText(app, "1")
	app = runCommands(t, app, cmd)

	if app.session.Resolving() {
		t.Fatalf("busy flag must clear even for a stale answer")
	}
	if got := app.session.Form().MixName; got != "" {
		t.Fatalf("stale answer applied: mix = %q", got)
	}
}

func TestResolveNotOfferedForKnownCode(t *testing.T) {
	app, _ := newTestApp(t)
	typeText(app, "WIP-1001")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	if cmd != nil || app.session.Resolving() {
		t.Fatalf("known code must not start a resolution")
	}
}

func TestSupervisorPicker(t *testing.T) {
	app, _ := newTestApp(t)
	app.setFocus(fieldSupervisor)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if app.state != stateSupervisorSelect {
		t.Fatalf("enter on supervisor should open the picker")
	}
	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if app.state != stateForm {
		t.Fatalf("picker should close after selection")
	}
	if got := app.session.Form().Supervisor; got != "Jane Smith" {
		t.Fatalf("supervisor = %q, want Jane Smith", got)
	}
	if app.focus != fieldQuantity {
		t.Fatalf("focus should move to quantity, got %d", app.focus)
	}
}

func TestSupervisorPickerEscCancels(t *testing.T) {
	app, _ := newTestApp(t)
	app.setFocus(fieldSupervisor)
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.state != stateForm || app.session.Form().Supervisor != "" {
		t.Fatalf("esc should close the picker without selecting")
	}
}

func TestCodeSuggestions(t *testing.T) {
	app, _ := newTestApp(t)
	typeText(app, "wip-2")

	got := app.suggestions()
	if len(got) != 2 || got[0] != "WIP-2001" || got[1] != "WIP-2002" {
		t.Fatalf("suggestions = %v", got)
	}
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if app.session.Form().MixName != "High-Protein Whey Slurry" {
		t.Fatalf("accepting a suggestion should auto-fill, got %q", app.session.Form().MixName)
	}
	if len(app.suggestions()) != 0 {
		t.Fatalf("suggestions should hide once the code is known")
	}
}

func TestFailedPrintIsLogged(t *testing.T) {
	printer := spool.PrinterFunc(func(context.Context, spool.Job) error {
		return errors.New("paper out")
	})
	app, _ := newTestApp(t, WithPrinter(printer))
	fillForm(app, "WIP-1001", "Jane Smith", "10")

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	app = runCommands(t, model, cmd)

	lines, _ := app.logbook.Tail(1)
	if len(lines) != 1 || !strings.Contains(lines[0], "paper out") {
		t.Fatalf("log tail = %v", lines)
	}
	if !strings.Contains(app.statusMsg, "Print failed") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

type recordingPrinter struct {
	mu   sync.Mutex
	jobs []spool.Job
}

func (p *recordingPrinter) Print(_ context.Context, job spool.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPrinter) Jobs() []spool.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]spool.Job(nil), p.jobs...)
}

func newTestApp(t *testing.T, opts ...AppOption) (*App, *recordingPrinter) {
	t.Helper()
	t.Setenv("BATCHLABEL_PRINT_DELAY", "1ms")
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	printer := &recordingPrinter{}
	baseOpts := []AppOption{
		WithPrinter(printer),
		WithClock(func() time.Time { return testNow }),
		WithVersion("test"),
	}
	baseOpts = append(baseOpts, opts...)
	app, err := NewApp(cfg, baseOpts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	return app, printer
}

// typeText sends runes to the focused input. Cursor blink commands are
// dropped.
func typeText(app *App, text string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func setField(app *App, f field, value string) {
	app.setFocus(f)
	app.inputs[f].SetValue(value)
	app.syncField(f)
}

func fillForm(app *App, code, supervisor, qty string) {
	setField(app, fieldCode, code)
	setField(app, fieldSupervisor, supervisor)
	setField(app, fieldQuantity, qty)
}

// runCommands executes cmd and feeds the resulting messages back into the
// model until nothing is left. Only messages the App produces itself are
// followed, so cursor blinks never loop.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch m := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		case nameResolvedMsg, printDueMsg, printFinishedMsg:
		default:
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}
