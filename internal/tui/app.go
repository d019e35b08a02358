// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for batchlabel.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the label form, session history and print spool
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string
//
// The flow is: Keystroke -> Message -> Update -> Session -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/config"
	"github.com/kingrea/batchlabel/internal/logbook"
	"github.com/kingrea/batchlabel/internal/printing"
	"github.com/kingrea/batchlabel/internal/resolver"
	"github.com/kingrea/batchlabel/internal/spool"
)

// appState represents which "screen" we're on
type appState int

const (
	stateForm             appState = iota // Label form
	stateSupervisorSelect                 // Supervisor picker over the form
)

// field indexes the form inputs in focus order.
type field int

const (
	fieldCode field = iota
	fieldMix
	fieldPrep
	fieldSupervisor
	fieldQuantity
	fieldCount
)

const (
	suggestionLimit = 5
	historyLimit    = 6
	previewLimit    = 2
	logLines        = 6
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithResolver sets the unknown-code resolver. The default always answers
// with the fallback name.
func WithResolver(r resolver.Resolver) AppOption {
	return func(a *App) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithPrinter overrides the printer built from config.
func WithPrinter(p spool.Printer) AppOption {
	return func(a *App) {
		if p != nil {
			a.printer = p
		}
	}
}

// WithLogger attaches the zap logger shared by the session, spool and logbook.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides time.Now for the session and logbook.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithVersion sets the version shown in the header.
func WithVersion(v string) AppOption {
	return func(a *App) {
		a.version = strings.TrimSpace(v)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	session *batch.Session
	spool   *spool.Spooler
	logbook *logbook.Logbook

	resolver resolver.Resolver
	printer  spool.Printer
	logger   *zap.Logger
	now      func() time.Time
	version  string

	ctx    context.Context
	cancel context.CancelFunc

	// UI components
	inputs         []textinput.Model
	focus          field
	supervisorMenu list.Model
	spinner        spinner.Model
	statusMsg      string
	printing       bool

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// supervisorItem implements list.Item for the supervisor picker
type supervisorItem struct {
	name string
}

func (i supervisorItem) Title() string       { return i.name }
func (i supervisorItem) Description() string { return "" }
func (i supervisorItem) FilterValue() string { return i.name }

type nameResolvedMsg struct {
	code string
	name string
}

type printDueMsg struct {
	ticket spool.Ticket
}

type printFinishedMsg struct {
	job spool.Job
	err error
}

// NewApp creates a new App instance
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tui: config is required")
	}
	app := &App{
		state:    stateForm,
		config:   cfg,
		resolver: resolver.Guard(resolver.Disabled),
		logger:   zap.NewNop(),
		now:      time.Now,
		version:  "dev",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.printer == nil {
		printer, err := printing.New(printing.Options{
			Backend:   cfg.File.Print.Backend,
			OutputDir: cfg.LabelsDir(),
			Command:   cfg.File.Print.Command,
			Logger:    app.logger,
		})
		if err != nil {
			return nil, err
		}
		app.printer = printer
	}

	app.ctx, app.cancel = context.WithCancel(context.Background())
	app.logbook = logbook.New(logbook.WithLogger(app.logger), logbook.WithClock(app.now))
	app.session = batch.NewSession(cfg.Table(), cfg.ShelfLifeDays(),
		batch.WithClock(app.now),
		batch.WithLogger(app.logger),
	)
	app.spool = spool.New(
		spool.WithDelay(cfg.PrintDelay()),
		spool.WithPrinter(app.printer),
		spool.WithLogger(app.logger),
	)
	app.inputs = buildInputs(app.session.Form())
	app.inputs[fieldCode].Focus()

	items := make([]list.Item, 0, len(cfg.Supervisors()))
	for _, name := range cfg.Supervisors() {
		items = append(items, supervisorItem{name: name})
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	menu := list.New(items, delegate, 40, 14)
	menu.Title = "Select Supervisor"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	app.supervisorMenu = menu

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyleRunning
	app.spinner = sp

	app.logInfo("Session opened · %d known code(s) · shelf life %d day(s)", cfg.Table().Len(), cfg.ShelfLifeDays())
	app.statusMsg = "Enter a WIP code to begin."
	return app, nil
}

func buildInputs(f batch.Form) []textinput.Model {
	specs := []struct {
		placeholder string
		limit       int
		value       string
	}{
		fieldCode:       {"WIP-1001", 32, f.WipCode},
		fieldMix:        {"Mix name", 64, f.MixName},
		fieldPrep:       {"YYYY-MM-DD", 10, f.PrepDate},
		fieldSupervisor: {"Enter to pick", 48, f.Supervisor},
		fieldQuantity:   {"kg", 12, f.Quantity},
	}
	inputs := make([]textinput.Model, fieldCount)
	for i, spec := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = spec.placeholder
		in.CharLimit = spec.limit
		in.Width = 32
		in.SetValue(spec.value)
		inputs[i] = in
	}
	return inputs
}

// Session exposes the batch session, for the CLI and tests.
func (a *App) Session() *batch.Session { return a.session }

// Logbook exposes the in-session journal.
func (a *App) Logbook() *logbook.Logbook { return a.logbook }

// Close cancels in-flight resolver and print work.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.spool.Stop()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.supervisorMenu.SetSize(max(20, msg.Width/3), max(8, msg.Height-12))
		return a, nil

	case nameResolvedMsg:
		return a.handleNameResolved(msg)

	case printDueMsg:
		return a.handlePrintDue(msg)

	case printFinishedMsg:
		return a.handlePrintFinished(msg)

	case spinner.TickMsg:
		if !a.session.Resolving() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if a.state == stateSupervisorSelect {
			return a.updateSupervisorSelect(msg)
		}
		switch key {
		case "tab", "down":
			return a, a.setFocus((a.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return a, a.setFocus((a.focus + fieldCount - 1) % fieldCount)
		case "ctrl+a":
			return a.beginResolve()
		case "ctrl+f":
			return a, a.acceptSuggestion()
		case "ctrl+p":
			return a.submit()
		case "enter":
			if a.focus == fieldSupervisor {
				return a.openSupervisorSelect()
			}
			if a.session.CanSubmit() {
				return a.submit()
			}
			return a, a.setFocus((a.focus + 1) % fieldCount)
		}
	}

	if a.state == stateSupervisorSelect {
		var cmd tea.Cmd
		a.supervisorMenu, cmd = a.supervisorMenu.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	a.syncField(a.focus)
	return a, cmd
}

func (a *App) setFocus(next field) tea.Cmd {
	a.inputs[a.focus].Blur()
	a.focus = next
	a.inputs[a.focus].CursorEnd()
	return a.inputs[a.focus].Focus()
}

// syncField pushes the input value of f into the session when it changed,
// then mirrors back anything the session rewrote.
func (a *App) syncField(f field) {
	value := a.inputs[f].Value()
	form := a.session.Form()
	switch f {
	case fieldCode:
		if value == form.WipCode {
			return
		}
		if a.session.SetWipCode(value) {
			updated := a.session.Form()
			a.logInfo("Auto-matched %s → %s", updated.WipCode, updated.MixName)
		}
		a.refreshFromSession(fieldCode, fieldMix)
	case fieldMix:
		if value != form.MixName {
			a.session.SetMixName(value)
		}
	case fieldPrep:
		if value != form.PrepDate {
			a.session.SetPrepDate(value)
		}
	case fieldSupervisor:
		if value != form.Supervisor {
			a.session.SetSupervisor(value)
		}
	case fieldQuantity:
		if value != form.Quantity {
			a.session.SetQuantity(value)
		}
	}
}

func (a *App) refreshFromSession(fields ...field) {
	form := a.session.Form()
	for _, f := range fields {
		var value string
		switch f {
		case fieldCode:
			value = form.WipCode
		case fieldMix:
			value = form.MixName
		case fieldPrep:
			value = form.PrepDate
		case fieldSupervisor:
			value = form.Supervisor
		case fieldQuantity:
			value = form.Quantity
		}
		if a.inputs[f].Value() != value {
			a.inputs[f].SetValue(value)
		}
	}
}

// suggestions lists table codes matching the typed prefix, hidden once the
// code is known.
func (a *App) suggestions() []string {
	code := a.session.Form().WipCode
	if strings.TrimSpace(code) == "" || a.session.Derived().KnownCode {
		return nil
	}
	entries := a.session.Table().Suggest(code, suggestionLimit)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Code)
	}
	return out
}

func (a *App) acceptSuggestion() tea.Cmd {
	if a.focus != fieldCode {
		return nil
	}
	options := a.suggestions()
	if len(options) == 0 {
		return nil
	}
	a.inputs[fieldCode].SetValue(options[0])
	a.inputs[fieldCode].CursorEnd()
	a.syncField(fieldCode)
	return nil
}

func (a *App) beginResolve() (tea.Model, tea.Cmd) {
	if !a.session.OfferResolve() {
		return a, nil
	}
	code, ok := a.session.BeginResolve()
	if !ok {
		return a, nil
	}
	a.logInfo("Resolving unknown code %s", code)
	a.statusMsg = fmt.Sprintf("Looking up %s...", code)
	return a, tea.Batch(a.spinner.Tick, a.resolveName(code))
}

func (a *App) resolveName(code string) tea.Cmd {
	return func() tea.Msg {
		return nameResolvedMsg{code: code, name: a.resolver.Resolve(a.ctx, code)}
	}
}

func (a *App) handleNameResolved(msg nameResolvedMsg) (tea.Model, tea.Cmd) {
	if !a.session.FinishResolve(msg.code, msg.name) {
		a.logWarn("Discarded name for %s; the code changed while resolving", msg.code)
		a.statusMsg = ""
		return a, nil
	}
	a.refreshFromSession(fieldMix)
	if msg.name == resolver.Fallback {
		a.logWarn("No name found for %s", msg.code)
		a.statusMsg = "Name lookup failed. Enter the mix name manually."
	} else {
		a.logInfo("Resolved %s → %s", msg.code, msg.name)
		a.statusMsg = fmt.Sprintf("Resolved %s. Check the mix name before printing.", msg.code)
	}
	return a, nil
}

func (a *App) openSupervisorSelect() (tea.Model, tea.Cmd) {
	if len(a.supervisorMenu.Items()) == 0 {
		return a, nil
	}
	current := a.session.Form().Supervisor
	for i, item := range a.supervisorMenu.Items() {
		if s, ok := item.(supervisorItem); ok && s.name == current {
			a.supervisorMenu.Select(i)
			break
		}
	}
	a.state = stateSupervisorSelect
	return a, nil
}

func (a *App) updateSupervisorSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.state = stateForm
		return a, nil
	case "enter":
		if item, ok := a.supervisorMenu.SelectedItem().(supervisorItem); ok {
			a.session.SetSupervisor(item.name)
			a.refreshFromSession(fieldSupervisor)
		}
		a.state = stateForm
		return a, a.setFocus(fieldQuantity)
	}
	var cmd tea.Cmd
	a.supervisorMenu, cmd = a.supervisorMenu.Update(msg)
	return a, cmd
}

func (a *App) submit() (tea.Model, tea.Cmd) {
	sub, err := a.session.Submit()
	if err != nil {
		a.statusMsg = "Complete every field with a valid quantity before printing."
		return a, nil
	}
	ticket := a.spool.Replace(sub.Labels)
	short := batch.ShortID(sub.Record.ID)
	a.logInfo("Submitted %s · %s · %d label(s) · batch %s",
		sub.Record.WipCode, sub.Record.MixName, sub.Record.LabelCount, short)
	a.statusMsg = fmt.Sprintf("Batch %s submitted. Printing %d label(s)...", short, sub.Record.LabelCount)
	return a, a.schedulePrint(ticket)
}

func (a *App) schedulePrint(ticket spool.Ticket) tea.Cmd {
	return tea.Tick(a.spool.Delay(), func(time.Time) tea.Msg {
		return printDueMsg{ticket: ticket}
	})
}

func (a *App) handlePrintDue(msg printDueMsg) (tea.Model, tea.Cmd) {
	job, ok := a.spool.Claim(msg.ticket)
	if !ok {
		return a, nil
	}
	a.printing = true
	return a, func() tea.Msg {
		return printFinishedMsg{job: job, err: a.spool.Print(a.ctx, job)}
	}
}

func (a *App) handlePrintFinished(msg printFinishedMsg) (tea.Model, tea.Cmd) {
	a.printing = false
	short := batch.ShortID(msg.job.BatchID())
	if msg.err != nil {
		a.logError("Print failed for batch %s: %v", short, msg.err)
		a.statusMsg = fmt.Sprintf("Print failed: %v", msg.err)
		return a, nil
	}
	a.logInfo("Printed %d label(s) for batch %s", len(msg.job.Labels), short)
	a.statusMsg = fmt.Sprintf("Printed %d label(s) for batch %s.", len(msg.job.Labels), short)
	return a, nil
}
