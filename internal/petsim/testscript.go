package petsim

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/artefactual-labs/petstore/internal/testutil"
)

// TestScriptCmd implements the petsim testscript command.
func TestScriptCmd(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) == 0 {
		ts.Fatalf("petsim: missing subcommand")
	}
	switch sub := args[0]; sub {
	case "start":
		petsimStart(ts, neg, args[1:])
	case "snapshot":
		petsimSnapshot(ts, neg, args[1:])
	default:
		ts.Fatalf("petsim: unknown subcommand %q", sub)
	}
}

func petsimStart(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("petsim start: negation not supported")
	}
	if _, ok := getInstance(ts); ok {
		ts.Fatalf("petsim start: simulator already running")
	}

	fs := flag.NewFlagSet("petsim start", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "path to the simulator TOML configuration")
	portFlag := fs.Int("port", 0, "port to listen on (default random)")
	if err := fs.Parse(args); err != nil {
		ts.Fatalf("petsim start: %v", err)
	}

	port := *portFlag
	if port == 0 {
		p, err := testutil.FreePort()
		if err != nil {
			ts.Fatalf("petsim start: acquire port: %v", err)
		}
		port = p
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := decodeConfig(ts.MkAbs(*configPath))
		if err != nil {
			ts.Fatalf("petsim start: load config: %v", err)
		}
		cfg = loaded
	}
	cfg.Server.Listen = fmt.Sprintf("127.0.0.1:%d", port)
	if err := cfg.Validate(); err != nil {
		ts.Fatalf("petsim start: validate config: %v", err)
	}

	srv, err := StartServer(context.Background(), cfg)
	if err != nil {
		ts.Fatalf("petsim start: %v", err)
	}

	inst := &instance{srv: srv}
	setInstance(ts, inst)
	ts.Defer(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := inst.srv.Shutdown(ctx); err != nil {
			ts.Logf("petsim: shutdown error: %v", err)
		}
		clearInstance(ts)
	})

	ts.Setenv("PETSIM_URL", srv.URL())
	ts.Logf("petsim simulator listening on %s", srv.URL())
}

func petsimSnapshot(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("petsim snapshot: negation not supported")
	}
	if len(args) != 0 {
		ts.Fatalf("petsim snapshot: unexpected arguments: %v", args)
	}
	inst, ok := getInstance(ts)
	if !ok {
		ts.Fatalf("petsim snapshot: simulator not running")
	}

	data, err := inst.srv.Snapshot().MarshalTOML()
	if err != nil {
		ts.Fatalf("petsim snapshot: marshal: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if _, err := ts.Stdout().Write(data); err != nil {
		ts.Fatalf("petsim snapshot: write stdout: %v", err)
	}
}

type instance struct {
	srv *Server
}

var (
	instancesMu sync.Mutex
	instances   = make(map[*testscript.TestScript]*instance)
)

func setInstance(ts *testscript.TestScript, inst *instance) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	instances[ts] = inst
}

func getInstance(ts *testscript.TestScript) (*instance, bool) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	inst, ok := instances[ts]
	return inst, ok
}

func clearInstance(ts *testscript.TestScript) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	delete(instances, ts)
}
