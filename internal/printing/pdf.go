package printing

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/render"
	"github.com/kingrea/batchlabel/internal/spool"
)

// PDF renders the label sheet in headless Chromium, saves it as a PDF sized to
// label stock, and optionally passes the file to a print command.
type PDF struct {
	dir     string
	command *Command
	logger  *zap.Logger
	// launch starts a browser and returns its control URL plus a cleanup.
	launch func(ctx context.Context) (string, func(), error)
}

// NewPDF creates a PDF printer writing into dir.
func NewPDF(dir string, command *Command, logger *zap.Logger) *PDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDF{dir: dir, command: command, logger: logger, launch: launchHeadless}
}

func launchHeadless(ctx context.Context) (string, func(), error) {
	l := launcher.New().Context(ctx).Headless(true).Leakless(false)
	u, err := l.Launch()
	if err != nil {
		return "", nil, fmt.Errorf("printing: launch browser: %w", err)
	}
	return u, l.Kill, nil
}

// Print implements spool.Printer.
func (p *PDF) Print(ctx context.Context, job spool.Job) error {
	html, err := render.HTML(job.Labels)
	if err != nil {
		return err
	}
	path := sheetPath(p.dir, job)
	if err := p.renderPDF(ctx, html, path); err != nil {
		return err
	}
	p.logger.Info("label sheet written", zap.String("path", path), zap.Int("labels", len(job.Labels)))
	if p.command != nil {
		if err := p.command.Run(ctx, path); err != nil {
			return err
		}
		p.logger.Info("label sheet sent to printer", zap.String("command", p.command.String()))
	}
	return nil
}

func (p *PDF) renderPDF(ctx context.Context, html, path string) error {
	controlURL, cleanup, err := p.launch(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("printing: connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("printing: open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("printing: load label sheet: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("printing: wait for label sheet: %w", err)
	}
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return fmt.Errorf("printing: print to pdf: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("printing: create %s: %w", path, err)
	}
	if _, err := io.Copy(f, stream); err != nil {
		_ = f.Close()
		return fmt.Errorf("printing: write %s: %w", path, err)
	}
	return f.Close()
}
