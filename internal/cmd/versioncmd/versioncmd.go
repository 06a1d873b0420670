package versioncmd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/peterbourgon/ff/v4"

	"github.com/artefactual-labs/petstore/internal/cmd/rootcmd"
)

type Config struct {
	*rootcmd.RootConfig
	Command *ff.Command
	Flags   *ff.FlagSet

	short *bool
}

func New(parent *rootcmd.RootConfig) *Config {
	cfg := &Config{RootConfig: parent}
	cfg.Flags = ff.NewFlagSet("version").SetParent(parent.Flags)
	cfg.short = cfg.Flags.BoolLong("short", "print the module version only")

	cfg.Command = &ff.Command{
		Name:      "version",
		Usage:     "petstore version [--short]",
		ShortHelp: "Print the current version of petstore.",
		Flags:     cfg.Flags,
		Exec:      cfg.Exec,
	}
	parent.Command.Subcommands = append(parent.Command.Subcommands, cfg.Command)
	return cfg
}

func (cfg *Config) Exec(ctx context.Context, _ []string) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("build info not available")
	}

	if *cfg.short {
		_, err := fmt.Fprintln(cfg.Stdout, info.Main.Version)
		return err
	}

	_, err := fmt.Fprintf(cfg.Stdout, "petstore %s (built with %s%s)\n", info.Main.Version, info.GoVersion, revision(info))

	return err
}

func revision(info *debug.BuildInfo) string {
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return ", revision " + s.Value[:12]
		}
	}
	return ""
}
