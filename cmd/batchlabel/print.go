package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/logging"
	"github.com/kingrea/batchlabel/internal/printing"
	"github.com/kingrea/batchlabel/internal/spool"
)

type printOptions struct {
	code       string
	mix        string
	prep       string
	supervisor string
	qty        string
	backend    string
	resolve    bool
}

var printFlags printOptions

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Submit one batch and print its labels",
	Example: `  batchlabel print --code WIP-1001 --supervisor "Jane Smith" --qty 45
  batchlabel print --code XYZ-77 --mix "Mango Puree" --supervisor Vimal --qty 12 --backend preview`,
	Args: cobra.NoArgs,
	RunE: runPrint,
}

func init() {
	f := printCmd.Flags()
	f.StringVar(&printFlags.code, "code", "", "WIP code (required)")
	f.StringVar(&printFlags.mix, "mix", "", "Mix name; ignored when the code is known")
	f.StringVar(&printFlags.prep, "prep", "", "Prep date YYYY-MM-DD (default: today)")
	f.StringVar(&printFlags.supervisor, "supervisor", "", "Shift supervisor (required)")
	f.StringVar(&printFlags.qty, "qty", "", "QA-measured quantity in kg (required)")
	f.StringVar(&printFlags.backend, "backend", "", "Override print.backend (pdf or preview)")
	f.BoolVar(&printFlags.resolve, "resolve", false, "Resolve the mix name when the code is unknown and --mix is empty")
	_ = printCmd.MarkFlagRequired("code")
	_ = printCmd.MarkFlagRequired("supervisor")
	_ = printCmd.MarkFlagRequired("qty")
}

func runPrint(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.OrNop(logger)
	out := cmd.OutOrStdout()

	session := batch.NewSession(cfg.Table(), cfg.ShelfLifeDays(), batch.WithLogger(log))
	if !session.SetWipCode(printFlags.code) {
		session.SetMixName(printFlags.mix)
		if strings.TrimSpace(printFlags.mix) == "" && printFlags.resolve && session.OfferResolve() {
			if code, ok := session.BeginResolve(); ok {
				session.FinishResolve(code, newResolver(ctx).Resolve(ctx, code))
			}
		}
	}
	if printFlags.prep != "" {
		session.SetPrepDate(printFlags.prep)
	}
	session.SetSupervisor(printFlags.supervisor)
	session.SetQuantity(printFlags.qty)

	sub, err := session.Submit()
	if errors.Is(err, batch.ErrNotReady) {
		return notReadyError(session)
	}
	if err != nil {
		return err
	}

	backend := cfg.File.Print.Backend
	if printFlags.backend != "" {
		backend = printFlags.backend
	}
	printer, err := printing.New(printing.Options{
		Backend:   backend,
		OutputDir: cfg.LabelsDir(),
		Command:   cfg.File.Print.Command,
		Stdout:    out,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	result, err := spoolOnce(ctx, printer, sub.Labels)
	if err != nil {
		return err
	}
	if result.Err != nil {
		return fmt.Errorf("print batch %s: %w", batch.ShortID(sub.Record.ID), result.Err)
	}
	fmt.Fprintf(out, "batch %s · %s · %s · %d label(s) · use by %s\n",
		batch.ShortID(sub.Record.ID),
		sub.Record.WipCode,
		sub.Record.MixName,
		sub.Record.LabelCount,
		session.Derived().UseByDisplay(),
	)
	return nil
}

// spoolOnce hands labels to a spooler and waits for the deferred print.
func spoolOnce(ctx context.Context, printer spool.Printer, labels []batch.LabelDescriptor) (spool.Result, error) {
	results := make(chan spool.Result, 1)
	sp := spool.New(
		spool.WithDelay(cfg.PrintDelay()),
		spool.WithPrinter(printer),
		spool.WithLogger(logging.OrNop(logger)),
		spool.WithResults(results),
	)
	sp.Schedule(ctx, labels)

	done := make(chan struct{})
	go func() {
		sp.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		if sp.Stop() {
			return spool.Result{}, ctx.Err()
		}
		<-done
	case <-done:
	}

	select {
	case r := <-results:
		return r, nil
	default:
		return spool.Result{}, errors.New("print was not triggered")
	}
}

func notReadyError(session *batch.Session) error {
	form := session.Form()
	derived := session.Derived()
	var problems []string
	if strings.TrimSpace(form.MixName) == "" {
		problems = append(problems, "mix name is empty (unknown code; pass --mix or --resolve)")
	}
	if !derived.HasUseBy {
		problems = append(problems, fmt.Sprintf("prep date %q must be YYYY-MM-DD", form.PrepDate))
	}
	if derived.Plan.Warning != "" {
		problems = append(problems, derived.Plan.Warning)
	} else if derived.Plan.Incomplete() {
		problems = append(problems, fmt.Sprintf("quantity %q is not a number", form.Quantity))
	}
	if strings.TrimSpace(form.Supervisor) == "" {
		problems = append(problems, "supervisor is empty")
	}
	logging.OrNop(logger).Debug("submission refused", zap.Strings("problems", problems))
	if len(problems) == 0 {
		return batch.ErrNotReady
	}
	return fmt.Errorf("%w: %s", batch.ErrNotReady, strings.Join(problems, "; "))
}
