package petsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

var ErrServerStarted = errors.New("server already started")

// ShutdownTimeout bounds the graceful shutdown performed by Run.
const ShutdownTimeout = 5 * time.Second

// Server exposes a Simulator over HTTP using the pet store path templates.
// Requests are serialized so the wrapped simulator never sees concurrent
// calls.
type Server struct {
	cfg    *Config
	sim    *Simulator
	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec

	wg      sync.WaitGroup
	started bool
}

type ServerOption func(*Server)

func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSimulator replaces the simulator built from the configuration seeds.
func WithSimulator(sim *Simulator) ServerOption {
	return func(s *Server) {
		s.sim = sim
	}
}

// NewServer builds a server whose simulator is seeded from cfg.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	srv := &Server{
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "petsim_requests_total",
				Help: "Total number of simulated pet store requests.",
			},
			[]string{"operation", "status"},
		),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.sim == nil {
		sim, err := NewFromConfig(cfg, WithLogger(srv.logger))
		if err != nil {
			return nil, err
		}
		srv.sim = sim
	}
	srv.registry.MustRegister(srv.requests)
	return srv, nil
}

// NewServerFromFile loads a TOML configuration file and returns a server.
func NewServerFromFile(path string, opts ...ServerOption) (*Server, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewServer(cfg, opts...)
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	if s.started {
		return ErrServerStarted
	}
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped.", "err", err)
		}
	}()
	s.logger.Info("Simulator listening.", "addr", s.Addr())
	return nil
}

// Run starts the server and blocks until the provided context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// WaitReady polls the health endpoint until the server responds or the context
// is cancelled.
func (s *Server) WaitReady(ctx context.Context) error {
	if !s.started {
		return errors.New("server not started")
	}
	healthURL := s.URL() + "/healthz"
	client := &http.Client{Timeout: 200 * time.Millisecond}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		res, err := client.Do(req)
		if err != nil {
			return err
		}
		res.Body.Close() //nolint:errcheck
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("healthz: unexpected status %d", res.StatusCode)
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(25*time.Millisecond), ctx))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	s.started = false
	return err
}

// Snapshot clones the current simulator state for assertions.
func (s *Server) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}

// Handler returns the routing tree without starting a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, petstore.Message(http.StatusNotFound, "unknown", "not found"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/pet", func(r chi.Router) {
		r.Post("/", s.instrument("createPet", s.createPet))
		r.Put("/", s.instrument("updatePet", s.updatePet))
		r.Get("/findByStatus", s.instrument("findPetsByStatus", s.findPetsByStatus))
		r.Get("/{petId}", s.instrument("getPet", s.getPet))
		r.Post("/{petId}", s.instrument("updatePetWithForm", s.updatePetWithForm))
		r.Delete("/{petId}", s.instrument("deletePet", s.deletePet))
	})
	r.Route("/store", func(r chi.Router) {
		r.Get("/inventory", s.instrument("getInventory", s.getInventory))
		r.Post("/order", s.instrument("placeOrder", s.placeOrder))
		r.Get("/order/{orderId}", s.instrument("getOrder", s.getOrder))
		r.Delete("/order/{orderId}", s.instrument("deleteOrder", s.deleteOrder))
	})
	r.Route("/user", func(r chi.Router) {
		r.Post("/", s.instrument("createUser", s.createUser))
		r.Post("/createWithList", s.instrument("createUsersWithList", s.createUsersWithList))
		r.Post("/createWithArray", s.instrument("createUsersWithArray", s.createUsersWithArray))
		// GET /user/login and /user/logout take precedence over
		// /user/{username}, as on the live service: users with those names
		// can be created and deleted but not fetched over HTTP.
		r.Get("/login", s.instrument("login", s.login))
		r.Get("/logout", s.instrument("logout", s.logout))
		r.Get("/{username}", s.instrument("getUser", s.getUser))
		r.Put("/{username}", s.instrument("updateUser", s.updateUser))
		r.Delete("/{username}", s.instrument("deleteUser", s.deleteUser))
	})

	return r
}

func (s *Server) instrument(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
		s.logger.Debug("Handled request.", "operation", op, "method", r.Method, "path", r.URL.Path, "status", status)
	}
}

// call runs fn against the simulator while holding the lock and writes its
// response.
func (s *Server) call(w http.ResponseWriter, fn func(*Simulator) (*petstore.Response, error)) {
	s.mu.Lock()
	res, err := fn(s.sim)
	s.mu.Unlock()

	if errors.Is(err, ErrPetIDRequired) {
		writeMessage(w, http.StatusMethodNotAllowed, petstore.Message(http.StatusMethodNotAllowed, "unknown", "Invalid input"))
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, petstore.Message(http.StatusInternalServerError, "error", err.Error()))
		return
	}
	writeResponse(w, res)
}

func (s *Server) createPet(w http.ResponseWriter, r *http.Request) {
	var pet petstore.Pet
	if !decodeBody(w, r, &pet) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.CreatePet(r.Context(), pet)
	})
}

func (s *Server) updatePet(w http.ResponseWriter, r *http.Request) {
	var pet petstore.Pet
	if !decodeBody(w, r, &pet) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.UpdatePet(r.Context(), pet)
	})
}

func (s *Server) findPetsByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.FindPetsByStatus(r.Context(), status)
	})
}

func (s *Server) getPet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "petId")
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.GetPet(r.Context(), id)
	})
}

func (s *Server) updatePetWithForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "petId")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		badRequest(w, fmt.Sprintf("invalid form: %v", err))
		return
	}
	var form petstore.FormUpdate
	if r.PostForm.Has("name") {
		form.Name = omit.From(r.PostForm.Get("name"))
	}
	if r.PostForm.Has("status") {
		form.Status = omit.From(r.PostForm.Get("status"))
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.UpdatePetWithForm(r.Context(), id, form)
	})
}

func (s *Server) deletePet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "petId")
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.DeletePet(r.Context(), id)
	})
}

func (s *Server) getInventory(w http.ResponseWriter, r *http.Request) {
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.GetInventory(r.Context())
	})
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var order petstore.Order
	if !decodeBody(w, r, &order) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.PlaceOrder(r.Context(), order)
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "orderId")
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.GetOrder(r.Context(), id)
	})
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "orderId")
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.DeleteOrder(r.Context(), id)
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var user petstore.User
	if !decodeBody(w, r, &user) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.CreateUser(r.Context(), user)
	})
}

func (s *Server) createUsersWithList(w http.ResponseWriter, r *http.Request) {
	var users []petstore.User
	if !decodeBody(w, r, &users) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.CreateUsersWithList(r.Context(), users)
	})
}

func (s *Server) createUsersWithArray(w http.ResponseWriter, r *http.Request) {
	var users []petstore.User
	if !decodeBody(w, r, &users) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.CreateUsersWithArray(r.Context(), users)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.Login(r.Context(), q.Get("username"), q.Get("password"))
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.Logout(r.Context())
	})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.GetUser(r.Context(), username)
	})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	var user petstore.User
	if !decodeBody(w, r, &user) {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.UpdateUser(r.Context(), username, user)
	})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	s.call(w, func(sim *Simulator) (*petstore.Response, error) {
		return sim.DeleteUser(r.Context(), username)
	})
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

// usernameParam undoes the path escaping chi leaves in place when the
// request path carries encoded separators.
func usernameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, err := url.PathUnescape(chi.URLParam(r, "username"))
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid username: %v", err))
		return "", false
	}
	return username, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close() //nolint:errcheck
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusBadRequest, petstore.Message(http.StatusBadRequest, "error", message))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, petstore.Message(http.StatusMethodNotAllowed, "unknown", "method not allowed"))
}

func writeMessage(w http.ResponseWriter, code int, msg petstore.APIResponse) {
	res, err := petstore.NewResponse(code, msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	writeResponse(w, res)
}

func writeResponse(w http.ResponseWriter, res *petstore.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body())
}
