package checkcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterbourgon/ff/v4"

	"github.com/artefactual-labs/petstore/internal/cmd/rootcmd"
	"github.com/artefactual-labs/petstore/internal/harness"
	"github.com/artefactual-labs/petstore/internal/report"
)

type Config struct {
	*rootcmd.RootConfig
	Command *ff.Command
	Flags   *ff.FlagSet

	url     *string
	db      *string
	verbose *bool
	filters harness.RegexFilters
}

func New(parent *rootcmd.RootConfig) *Config {
	cfg := &Config{RootConfig: parent}
	cfg.Flags = ff.NewFlagSet("check").SetParent(parent.Flags)
	cfg.url = cfg.Flags.StringLong("url", "", "base URL of the service to check (default: in-process simulator)")
	cfg.db = cfg.Flags.StringLong("db", "", "SQLite file the run is recorded to")
	cfg.verbose = cfg.Flags.BoolLong("verbose", "print every test and step")
	cfg.Flags.ValueLong("run", &cfg.filters.MustMatch, "run only tests matching the regular expression (repeatable)")
	cfg.Flags.ValueLong("skip", &cfg.filters.MustNotMatch, "skip tests matching the regular expression (repeatable)")

	cfg.Command = &ff.Command{
		Name:      "check",
		Usage:     "petstore check [--url URL] [--run REGEX] [--skip REGEX] [--db FILE]",
		ShortHelp: "Run the contract scenarios against the simulator or a live service.",
		Flags:     cfg.Flags,
		Exec:      cfg.Exec,
	}

	parent.Command.Subcommands = append(parent.Command.Subcommands, cfg.Command)
	return cfg
}

func (cfg *Config) Exec(ctx context.Context, _ []string) (err error) {
	logger := cfg.Logger()
	newBackend, name := cfg.Backend(*cfg.url)

	rerun := []string{"petstore", "check"}
	if *cfg.url != "" {
		rerun = append(rerun, "--url", *cfg.url)
	}
	loggers := harness.MultiLogger{harness.NewConsoleLogger(cfg.Stdout, *cfg.verbose, rerun...)}

	var (
		store    *report.Store
		recorder *report.Recorder
	)
	if *cfg.db != "" {
		store, err = report.Open(ctx, *cfg.db)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, store.Close())
		}()

		var runID string
		runID, err = store.StartRun(ctx, name)
		if err != nil {
			return err
		}
		recorder = report.NewRecorder(ctx, store, runID)
		loggers = append(loggers, recorder)
	}

	logger.Debug("Running checks.", slog.String("backend", name))
	results := harness.Run(ctx, cfg.filters.AsFilter, loggers, harness.Suite(newBackend))
	harness.PrintResults(cfg.Stdout, results)

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return fmt.Errorf("record steps: %w", err)
		}
		if err := store.FinishRun(ctx, recorder.RunID(), results); err != nil {
			return err
		}
		logger.Info("Run recorded.", slog.String("id", recorder.RunID()), slog.String("db", *cfg.db))
	}

	if !results.OK() {
		return fmt.Errorf("%d of %d tests failed", len(results.Failures), len(results.Tests))
	}
	return nil
}
