package rootcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/artefactual-labs/petstore/internal/petsim"
	"github.com/artefactual-labs/petstore/internal/petstore"
)

// EnvVarPrefix is prepended to flag names when they are read from the
// environment, e.g. PETSTORE_URL for --url.
const EnvVarPrefix = "PETSTORE"

type RootConfig struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Flags   *ff.FlagSet
	Command *ff.Command

	debug *bool

	loggerOnce sync.Once
	logger     *slog.Logger
}

func New(stdin io.Reader, stdout, stderr io.Writer) *RootConfig {
	cfg := &RootConfig{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cfg.Flags = ff.NewFlagSet("petstore")
	cfg.debug = cfg.Flags.BoolLong("debug", "log debug messages")

	cfg.Command = &ff.Command{
		Name:      "petstore",
		Usage:     "petstore <SUBCOMMAND> ...",
		ShortHelp: "Pet store service simulator and contract checks.",
		Flags:     cfg.Flags,
		Exec:      cfg.exec,
	}

	return cfg
}

func (cfg *RootConfig) exec(_ context.Context, args []string) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(cfg.Stdout, ffhelp.Command(cfg.Command))
		return ff.ErrHelp
	}
	return errors.New("missing command")
}

func (cfg *RootConfig) Logger() *slog.Logger {
	cfg.loggerOnce.Do(func() {
		level := slog.LevelInfo
		if cfg.debug != nil && *cfg.debug {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(cfg.Stderr, &slog.HandlerOptions{Level: level})
		cfg.logger = slog.New(handler)
	})
	return cfg.logger
}

// Backend returns a client for the service at url, or a fresh in-process
// simulator when url is empty. The name identifies the backend in reports.
func (cfg *RootConfig) Backend(url string) (backend func() petstore.Backend, name string) {
	logger := cfg.Logger()
	if url == "" {
		return func() petstore.Backend {
			return petsim.New(petsim.WithLogger(logger))
		}, "simulator"
	}

	client := petstore.NewClient(http.DefaultClient, url, logger)
	return func() petstore.Backend { return client }, client.BaseURL()
}
