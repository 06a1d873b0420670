package servecmd

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v4"

	"github.com/artefactual-labs/petstore/internal/cmd/rootcmd"
	"github.com/artefactual-labs/petstore/internal/petsim"
)

type Config struct {
	*rootcmd.RootConfig
	Command *ff.Command
	Flags   *ff.FlagSet

	configFile *string
	listen     *string
}

func New(parent *rootcmd.RootConfig) *Config {
	cfg := &Config{RootConfig: parent}
	cfg.Flags = ff.NewFlagSet("serve").SetParent(parent.Flags)
	cfg.configFile = cfg.Flags.StringLong("config", "", "TOML file with server settings and seed data")
	cfg.listen = cfg.Flags.StringLong("listen", "", "listen address, overrides the config file (default "+petsim.DefaultListen+")")

	cfg.Command = &ff.Command{
		Name:      "serve",
		Usage:     "petstore serve [--config FILE] [--listen ADDR]",
		ShortHelp: "Run the pet store simulator over HTTP until interrupted.",
		Flags:     cfg.Flags,
		Exec:      cfg.Exec,
	}

	parent.Command.Subcommands = append(parent.Command.Subcommands, cfg.Command)
	return cfg
}

func (cfg *Config) Exec(ctx context.Context, _ []string) error {
	config := petsim.DefaultConfig()
	if *cfg.configFile != "" {
		c, err := petsim.LoadConfig(*cfg.configFile)
		if err != nil {
			return err
		}
		config = c
	}
	if *cfg.listen != "" {
		config.Server.Listen = *cfg.listen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	logger := cfg.Logger()
	srv, err := petsim.NewServer(config, petsim.WithServerLogger(logger))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cfg.Stdout, "listening on %s\n", srv.URL())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), petsim.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info("Simulator stopped.")
	return nil
}
