package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/formlab-dev/formlab/pkg/action"
	"github.com/formlab-dev/formlab/pkg/form"
	"github.com/formlab-dev/formlab/pkg/metrics"
	"github.com/formlab-dev/formlab/pkg/simulate"
	"github.com/formlab-dev/formlab/pkg/store"
)

// DefaultSubmitTimeout bounds how long a submit request waits for the
// action to settle before answering with the pending snapshot.
const DefaultSubmitTimeout = 15 * time.Second

// Config configures the demo server.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Backend is the simulated server actions submit to.
	Backend *simulate.Backend

	// Logger receives request and lifecycle logs. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records submissions and validations.
	Metrics *metrics.Metrics

	// Gatherer backs the /metrics endpoint.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// TracerName names the OpenTelemetry tracer for API spans
	// (default "formlab").
	TracerName string

	// SubmitTimeout overrides DefaultSubmitTimeout.
	SubmitTimeout time.Duration
}

// Server exposes registered forms over HTTP: JSON submit/state
// endpoints, a websocket state stream, health, and metrics.
//
// It is the demo harness around the core packages, not part of them —
// the action, optimistic, and form packages have no idea it exists.
type Server struct {
	cfg    Config
	st     *store.Store
	logger *slog.Logger

	mu    sync.RWMutex
	forms map[string]*formHandle

	httpSrv *http.Server
}

// formHandle ties a registered form name to its schema and action.
type formHandle struct {
	name   string
	schema form.Schema
	act    *action.Action[map[string]any, simulate.Result]
}

// New creates a Server. The Backend field is required.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.TracerName == "" {
		cfg.TracerName = "formlab"
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Server{
		cfg:    cfg,
		st:     store.New(),
		logger: cfg.Logger,
		forms:  make(map[string]*formHandle),
	}
}

// RegisterForm declares a named form with its validation schema.
// Submissions to the form run against the backend under the same name.
func (s *Server) RegisterForm(name string, schema form.Schema) {
	opts := []action.Option{}
	if s.cfg.Metrics != nil {
		opts = append(opts, action.WithObserver(s.cfg.Metrics))
	}
	act := action.New(s.st.Loop(), name,
		func(ctx context.Context, fields map[string]any) (simulate.Result, error) {
			return s.cfg.Backend.Call(ctx, name, fields)
		},
		opts...,
	)

	s.mu.Lock()
	s.forms[name] = &formHandle{name: name, schema: schema, act: act}
	s.mu.Unlock()
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/live", s.handleLive)

	r.Route("/api/actions", func(r chi.Router) {
		r.Use(Tracing(s.cfg.TracerName))
		r.Post("/{name}", s.handleSubmit)
		r.Get("/{name}", s.handleState)
	})

	return r
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}
	s.logger.Info("server listening", "addr", s.cfg.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.st.Close()
	return err
}

// stateResponse is the JSON shape of an action snapshot.
type stateResponse struct {
	Action     string           `json:"action"`
	State      string           `json:"state"`
	Pending    bool             `json:"pending"`
	Data       *simulate.Result `json:"data,omitempty"`
	Error      string           `json:"error,omitempty"`
	LastAction string           `json:"lastAction,omitempty"`
}

func snapshotResponse(name string, snap action.Snapshot[simulate.Result]) stateResponse {
	resp := stateResponse{
		Action:     name,
		State:      snap.State.String(),
		Pending:    snap.Pending,
		LastAction: snap.LastAction,
	}
	if snap.HasData {
		data := snap.Data
		resp.Data = &data
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

// validationResponse is the JSON shape of a failed validation.
type validationResponse struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

func (s *Server) form(name string) (*formHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.forms[name]
	return h, ok
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h, ok := s.form(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action " + name})
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	outcome := form.Validate(fields, h.schema)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordValidation(outcome.Valid)
	}
	if !outcome.Valid {
		s.logger.Info("validation failed", "action", name, "fields", len(outcome.Errors))
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			IsValid: false,
			Errors:  outcome.Errors,
		})
		return
	}

	// Subscribe before Submit so the settling transition cannot be
	// missed.
	settled := make(chan action.Snapshot[simulate.Result], 4)
	unsub := h.act.OnTransition(func(snap action.Snapshot[simulate.Result]) {
		select {
		case settled <- snap:
		default:
		}
	})
	defer unsub()

	if !h.act.Submit(fields) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "submission already pending"})
		return
	}
	s.logger.Info("submission dispatched", "action", name)

	timeout := time.NewTimer(s.cfg.SubmitTimeout)
	defer timeout.Stop()
	for {
		select {
		case snap := <-settled:
			if snap.State == action.StateResolved || snap.State == action.StateRejected {
				writeJSON(w, http.StatusOK, snapshotResponse(name, snap))
				return
			}
		case <-timeout.C:
			writeJSON(w, http.StatusAccepted, snapshotResponse(name, h.act.Snapshot()))
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h, ok := s.form(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action " + name})
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(name, h.act.Snapshot()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
