// Package devserver serves a live keyed list over HTTP so exit transitions
// can be watched and driven from a browser or curl.
//
// Routes:
//
//	GET    /state         reconciler snapshot, items and transition values
//	GET    /items         current items
//	POST   /items         add an item: {"key": "a", "label": "Apple"}
//	DELETE /items/{key}   remove an item (it leaves through its transition)
//	GET    /metrics       Prometheus metrics
//	GET    /ws            binary render frames, one per pass
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/transitiongroup/internal/config"
	"github.com/vango-dev/transitiongroup/pkg/protocol"
	"github.com/vango-dev/transitiongroup/pkg/reconcile"
	"github.com/vango-dev/transitiongroup/pkg/subscription"
	"github.com/vango-dev/transitiongroup/pkg/transition"
	"github.com/vango-dev/transitiongroup/pkg/vdom"
)

// Item is one entry of the live list.
type Item struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// State is the body of GET /state.
type State struct {
	Reconciler  reconcile.Snapshot `json:"reconciler"`
	Items       []Item             `json:"items"`
	Transitions map[string]float32 `json:"transitions"`
}

// Server is the dev server.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	rec         *reconcile.Reconciler
	transitions *transition.Set
	registry    *prometheus.Registry
	hub         *hub
	router      chi.Router
	invalidated *subscription.Subscription

	mu    sync.Mutex
	items []Item

	// renderMu keeps passes and their broadcasts in order.
	renderMu sync.Mutex
}

// New creates a Server from cfg. Call Close when done.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()

	rec := reconcile.New(
		reconcile.WithLogger(logger),
		reconcile.WithMetrics(reconcile.NewMetrics(
			reconcile.WithRegisterer(registry),
			reconcile.WithNamespace(cfg.Metrics.Namespace),
		)),
		reconcile.WithMaxRendersPerSecond(cfg.Reconciler.MaxRendersPerSecond),
		reconcile.WithKeyAttribute(cfg.Reconciler.KeyAttribute),
	)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		rec:      rec,
		registry: registry,
		hub:      newHub(logger),
		transitions: transition.NewSet(rec.Registry(),
			transition.WithDuration(cfg.TransitionDuration()),
			transition.WithEasing(cfg.EasingFunc()),
			transition.WithLogger(logger),
		),
	}
	s.invalidated = rec.OnInvalidate(func() {
		if err := s.render(context.Background()); err != nil {
			s.logger.Error("devserver: re-render failed", "error", err)
		}
	})
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/state", s.handleState)
	r.Get("/items", s.handleListItems)
	r.Post("/items", s.handleAddItem)
	r.Delete("/items/{key}", s.handleRemoveItem)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/ws", s.hub.handle)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reconciler returns the server's reconciler.
func (s *Server) Reconciler() *reconcile.Reconciler {
	return s.rec
}

// Step advances every transition by dt. Finished transitions trigger a
// re-render through the invalidation signal.
func (s *Server) Step(dt time.Duration) {
	s.transitions.Update(dt)
}

// Run serves on the configured address and advances transitions every
// tick until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.render(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.DevAddress(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver: listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	tick := s.cfg.TickInterval()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.hub.close()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			s.Step(tick)
		}
	}
}

// Close releases the server's subscriptions and transitions.
func (s *Server) Close() {
	s.invalidated.Release()
	s.transitions.Close()
	s.rec.Close()
	s.hub.close()
}

// render runs a pass over the current items and broadcasts it.
func (s *Server) render(ctx context.Context) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	nodes := make([]*vdom.VNode, len(s.items))
	for i, item := range s.items {
		s.transitions.Ensure(item.Key)
		nodes[i] = vdom.Li(vdom.Key(item.Key), vdom.Class("item"), item.Label)
	}
	s.mu.Unlock()

	frames, err := s.rec.Render(ctx, vdom.Flatten(nodes...))
	if err != nil {
		return err
	}

	snap := s.rec.Snapshot()
	s.transitions.Prune(snap.Keys)

	var flags protocol.FrameFlags
	if snap.Passes == 1 {
		flags |= protocol.FlagFirstPass
	}
	if len(snap.Retained) > 0 {
		flags |= protocol.FlagRetained
	}
	f, err := protocol.EncodeRender(snap.Passes, frames, flags)
	if err != nil {
		return err
	}
	s.hub.broadcast(f.Encode())
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.rec.Snapshot()

	values := make(map[string]float32)
	for _, key := range snap.Animating {
		k, ok := key.(string)
		if !ok {
			continue
		}
		if t, ok := s.transitions.Get(k); ok {
			values[k] = t.Value()
		}
	}

	writeJSON(w, http.StatusOK, State{
		Reconciler:  snap,
		Items:       s.itemsCopy(),
		Transitions: values,
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.itemsCopy())
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if item.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if item.Label == "" {
		item.Label = item.Key
	}

	s.mu.Lock()
	for _, existing := range s.items {
		if existing.Key == item.Key {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "duplicate key "+item.Key)
			return
		}
	}
	s.items = append(s.items, item)
	s.mu.Unlock()

	if err := s.render(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	s.mu.Lock()
	found := false
	for i, item := range s.items {
		if item.Key == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "no item with key "+key)
		return
	}
	if err := s.render(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) itemsCopy() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("devserver: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
