package callcmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/peterbourgon/ff/v4"

	"github.com/artefactual-labs/petstore/internal/cmd/rootcmd"
)

type Config struct {
	*rootcmd.RootConfig
	Command *ff.Command
	Flags   *ff.FlagSet

	url   *string
	query *string
}

func New(parent *rootcmd.RootConfig) *Config {
	cfg := &Config{RootConfig: parent}
	cfg.Flags = ff.NewFlagSet("call").SetParent(parent.Flags)
	cfg.url = cfg.Flags.StringLong("url", "", "base URL of the service (default: fresh in-process simulator)")
	cfg.query = cfg.Flags.StringLong("query", "", "jq expression applied to the response body")

	cfg.Command = &ff.Command{
		Name:      "call",
		Usage:     "petstore call [--url URL] [--query JQ] <OPERATION> [ARGS...]",
		ShortHelp: "Invoke a single pet store operation and print the response.",
		LongHelp:  operationsHelp(),
		Flags:     cfg.Flags,
		Exec:      cfg.Exec,
	}

	parent.Command.Subcommands = append(parent.Command.Subcommands, cfg.Command)
	return cfg
}

func (cfg *Config) Exec(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("missing operation")
	}
	name, args := args[0], args[1:]
	op, ok := operations[name]
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	if len(args) < op.min || len(args) > op.max {
		return fmt.Errorf("usage: %s %s", name, op.args)
	}

	newBackend, _ := cfg.Backend(*cfg.url)
	res, err := op.call(ctx, newBackend(), args)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	body := res.Body()
	if *cfg.query != "" {
		if body, err = applyQuery(body, *cfg.query); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(cfg.Stdout, "%d\n%s\n", res.StatusCode, body)
	return err
}

// applyQuery runs a jq expression over a JSON document. A single result is
// printed as is, multiple results as an array.
func applyQuery(body []byte, expression string) ([]byte, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid query expression: %w", err)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	iter := query.Run(data)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("query error: %w", err)
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return json.Marshal(results[0])
	}
	return json.Marshal(results)
}
