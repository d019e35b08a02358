// Package printing implements the print backends the spooler hands label sets
// to.
package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/render"
	"github.com/kingrea/batchlabel/internal/spool"
)

// Backend names accepted in config.
const (
	BackendPDF     = "pdf"
	BackendPreview = "preview"
)

// Preview writes text cards to w. It stands in for the platform print dialog
// on terminals without a print pipeline.
type Preview struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPreview creates a Preview printer writing to w.
func NewPreview(w io.Writer) *Preview {
	if w == nil {
		w = io.Discard
	}
	return &Preview{w: w}
}

// Print implements spool.Printer.
func (p *Preview) Print(_ context.Context, job spool.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.w, "Printing %d label(s) for batch %s\n", len(job.Labels), batch.ShortID(job.BatchID())); err != nil {
		return fmt.Errorf("printing: preview: %w", err)
	}
	if _, err := fmt.Fprintln(p.w, render.TextSheet(job.Labels)); err != nil {
		return fmt.Errorf("printing: preview: %w", err)
	}
	return nil
}

// Command hands a rendered file to a system print command such as `lp`.
// The file path is appended as the last argument.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a config string like "lp -d LABELS" into a Command.
// An empty string yields nil.
func ParseCommand(line string) *Command {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	return &Command{Name: parts[0], Args: parts[1:]}
}

// Run invokes the command for path.
func (c *Command) Run(ctx context.Context, path string) error {
	if c == nil || c.Name == "" {
		return nil
	}
	args := append(append([]string{}, c.Args...), path)
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("printing: %s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// String renders the command line for logs.
func (c *Command) String() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Options selects and configures a backend.
type Options struct {
	Backend   string
	OutputDir string
	Command   string
	Stdout    io.Writer
	Logger    *zap.Logger
}

// New builds the configured printer.
func New(opts Options) (spool.Printer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendPDF:
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("printing: ensure output dir: %w", err)
		}
		return NewPDF(opts.OutputDir, ParseCommand(opts.Command), logger), nil
	case BackendPreview:
		return NewPreview(opts.Stdout), nil
	default:
		return nil, fmt.Errorf("printing: unknown backend %q", opts.Backend)
	}
}

func sheetPath(dir string, job spool.Job) string {
	name := fmt.Sprintf("batch-%s-%d.pdf", batch.ShortID(job.BatchID()), job.Ticket)
	if len(job.Labels) > 0 {
		name = fmt.Sprintf("%s-%s", sanitize(job.Labels[0].WipCode), name)
	}
	return filepath.Join(dir, name)
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "labels"
	}
	return b.String()
}
