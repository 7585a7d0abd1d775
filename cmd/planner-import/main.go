// Command planner-import loads one bank statement CSV from disk into the
// planner database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"planner/internal/amqp"
	"planner/internal/cli"
	"planner/internal/config"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/services"
	"planner/internal/statement"
	"planner/internal/storage"
)

var errUsage = errors.New("usage")

type options struct {
	file       string
	header     bool
	dryRun     bool
	charset    string
	credit     string
	dateFormat string
}

func parseFlags(args []string, defaults statement.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("planner-import", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.file, "file", "", "statement CSV to import (required)")
	fs.BoolVar(&o.header, "header", defaults.HasHeaderRow, "first line is a header row")
	fs.BoolVar(&o.dryRun, "dry-run", false, "parse and report without writing to the database")
	fs.StringVar(&o.charset, "charset", defaults.Charset, "file encoding: utf-8, windows-1252 or iso-8859-1")
	fs.StringVar(&o.credit, "credit", string(defaults.Credit), "credit rule: paid_in_column or replacement_char")
	fs.StringVar(&o.dateFormat, "date-format", defaults.DateFormat, "Go time layout tried before the built-in formats")

	if err := fs.Parse(args); err != nil {
		return o, errUsage
	}
	if o.file == "" {
		fmt.Fprintln(stderr, "planner-import: -file is required")
		fs.Usage()
		return o, errUsage
	}
	return o, nil
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		logger.Error("Import failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string, stdout, stderr io.Writer) error {
	defaults := cfg.StatementDefaults()
	opts, err := parseFlags(args, defaults, stderr)
	if err != nil {
		return err
	}

	stmtCfg := defaults
	stmtCfg.HasHeaderRow = opts.header
	stmtCfg.Charset = opts.charset
	stmtCfg.DateFormat = opts.dateFormat
	if stmtCfg.Credit, err = statement.ParseCreditRule(opts.credit); err != nil {
		return err
	}

	f, err := openCapped(opts.file, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}
	defer f.Close()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	var publisher services.Publisher
	if cfg.AMQPURL != "" && !opts.dryRun {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer client.Close()
		publisher = client
	}

	svc := services.NewImportService(repo, publisher, nil, logger)
	if !opts.dryRun {
		statementArchive, err := cli.InitArchive(ctx, logger, cfg)
		if err != nil {
			return fmt.Errorf("statement archive: %w", err)
		}
		if statementArchive != nil {
			defer statementArchive.Close()
			svc.WithArchive(statementArchive)
		}
	}
	name := filepath.Base(opts.file)
	var report services.ImportReport
	if opts.dryRun {
		report, err = svc.Preview(ctx, name, f, stmtCfg)
	} else {
		report, err = svc.Import(ctx, name, f, stmtCfg)
	}
	if err != nil {
		return err
	}
	return printReport(stdout, report)
}

// openCapped opens path after checking it fits within limit bytes.
func openCapped(path string, limit int64) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), limit)
	}
	return os.Open(path)
}

func printReport(out io.Writer, r services.ImportReport) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if r.DryRun {
		fmt.Fprintf(tw, "Dry run of %s: %d lines, %d accepted, %d skipped\n",
			r.Filename, r.Lines, r.Accepted, len(r.Skipped))
		for _, c := range r.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.PaymentDate, c.Kind, c.Name, core.FormatAmount(c.Amount))
		}
	} else {
		fmt.Fprintf(tw, "Imported %s (run %s): %d accepted, %d inserted, %d duplicates, %d skipped\n",
			r.Filename, r.RunID, r.Accepted, r.Inserted, r.Duplicates, len(r.Skipped))
		if r.ArchiveRef != "" {
			fmt.Fprintf(tw, "Archived to %s\n", r.ArchiveRef)
		}
	}
	for _, s := range r.Skipped {
		reason := string(s.Reason)
		if s.Err != nil {
			reason += ": " + s.Err.Error()
		}
		fmt.Fprintf(tw, "skipped line %d\t%s\t%q\n", s.Line, reason, s.Raw)
	}
	return tw.Flush()
}
