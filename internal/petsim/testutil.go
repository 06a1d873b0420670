package petsim

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// TestServer is a running simulator together with a client bound to it.
type TestServer struct {
	*Server
	Client *petstore.Client
}

// StartTestServer starts a simulator seeded from cfg on a free loopback port
// and stops it when the test finishes. A nil cfg starts an empty store.
func StartTestServer(t *testing.T, cfg *Config, opts ...ServerOption) *TestServer {
	t.Helper()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	local := *cfg
	local.Server.Listen = "127.0.0.1:0"

	srv, err := StartServer(t.Context(), &local, opts...)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.EPERM) {
			t.Skipf("skipping simulator tests: %v", err)
		}
		t.Fatalf("start simulator: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("shutdown simulator: %v", err)
		}
	})

	return &TestServer{
		Server: srv,
		Client: petstore.NewClient(nil, srv.URL(), nil),
	}
}

// StartServer starts the simulator and waits until /healthz answers. The
// caller owns the returned server and must shut it down.
func StartServer(ctx context.Context, cfg *Config, opts ...ServerOption) (*Server, error) {
	srv, err := NewServer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}

	readyCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := srv.WaitReady(readyCtx); err != nil {
		return nil, errors.Join(err, srv.Shutdown(context.WithoutCancel(ctx)))
	}
	return srv, nil
}
