// Package api exposes news fetching, provider status and provider settings over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
	"github.com/Adda-Baaj/arthik-khobor/internal/service"
	"github.com/Adda-Baaj/arthik-khobor/internal/store"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	svc     *service.Service
	log     logger.Logger
	origins []string
	version string
}

// NewServer builds the router for svc. An empty origins list allows any origin.
func NewServer(svc *service.Service, log logger.Logger, origins []string, version string) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Server{svc: svc, log: log, origins: origins, version: version}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("api server listening", "api_listen", map[string]any{"addr": addr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.InfoObj("api server shutting down", "api_shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.origins) > 0 {
		origins = s.origins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/news", s.handleNews)
		r.Get("/providers", s.handleProviders)
		r.Route("/providers/{id}", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Delete("/settings", s.handleDeleteSettings)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.DebugObj("http request", "api_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.FetchRequest{
		ProviderID: q.Get("provider"),
		Query:      q.Get("q"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		req.Limit = limit
	}
	for name, dst := range map[string]*bool{"enrich": &req.Enrich, "publish": &req.Publish} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, name+" must be a boolean")
			return
		}
		*dst = v
	}

	res, err := s.svc.FetchNews(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Overview())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

type settingsResponse struct {
	Provider  string `json:"provider"`
	ServerURL string `json:"serverUrl"`
	APIKey    string `json:"apiKey"`
	Source    string `json:"source"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, source, err := s.svc.Settings(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Provider:  cfg.ID,
		ServerURL: cfg.ServerURL,
		APIKey:    service.MaskKey(cfg.APIKey),
		Source:    source,
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body store.Settings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	saved, err := s.svc.SaveSettings(id, body)
	var cfgErr *providers.ConfigurationError
	if errors.As(err, &cfgErr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Provider:  strings.ToLower(id),
		ServerURL: saved.ServerURL,
		APIKey:    service.MaskKey(saved.APIKey),
		Source:    "store",
	})
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetSettings(chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service and provider errors to status codes.
// Unclassified errors are reported with fallback.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback int) {
	var (
		cfgErr *providers.ConfigurationError
		upErr  *providers.UpstreamError
	)
	switch {
	case errors.Is(err, service.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, providers.ErrNotSupported):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "upstream request timed out")
	default:
		s.log.ErrorObj("request failed", "api_error", map[string]any{"error": err.Error()})
		writeError(w, fallback, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
