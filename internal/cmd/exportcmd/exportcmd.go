package exportcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"

	"github.com/artefactual-labs/petstore/internal/cmd/rootcmd"
	"github.com/artefactual-labs/petstore/internal/report"
)

type Config struct {
	*rootcmd.RootConfig
	Command *ff.Command
	Flags   *ff.FlagSet

	db  *string
	out *string
}

func New(parent *rootcmd.RootConfig) *Config {
	cfg := &Config{RootConfig: parent}
	cfg.Flags = ff.NewFlagSet("export").SetParent(parent.Flags)
	cfg.db = cfg.Flags.StringLong("db", "petstore.db", "SQLite file written by check --db")
	cfg.out = cfg.Flags.StringLong("out", "report.csv", `CSV destination, "-" for stdout`)

	cfg.Command = &ff.Command{
		Name:      "export",
		Usage:     "petstore export [--db FILE] [--out FILE]",
		ShortHelp: "Export the steps of the latest recorded run as CSV.",
		Flags:     cfg.Flags,
		Exec:      cfg.Exec,
	}

	parent.Command.Subcommands = append(parent.Command.Subcommands, cfg.Command)
	return cfg
}

func (cfg *Config) Exec(ctx context.Context, _ []string) (err error) {
	if _, err := os.Stat(*cfg.db); err != nil {
		return fmt.Errorf("open report database: %w", err)
	}
	store, err := report.Open(ctx, *cfg.db)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	run, err := store.LatestRun(ctx)
	if err != nil {
		return err
	}
	steps, err := store.Steps(ctx, run.ID)
	if err != nil {
		return err
	}

	var w io.Writer = cfg.Stdout
	if *cfg.out != "-" {
		if err := os.RemoveAll(*cfg.out); err != nil {
			return err
		}
		file, err := os.Create(*cfg.out)
		if err != nil {
			return err
		}
		defer file.Close() //nolint:errcheck
		w = file
	}

	if err := report.ExportCSV(w, steps); err != nil {
		return fmt.Errorf("export run %s: %w", run.ID, err)
	}

	cfg.Logger().Info("Run export generated.",
		slog.String("run", run.ID),
		slog.String("backend", run.Backend),
		slog.Int("steps", len(steps)),
		slog.String("path", *cfg.out),
	)
	return nil
}
