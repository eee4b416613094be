// Package server exposes the analysis pipeline over HTTP.
//
// Information Hiding:
// - Route table and middleware order hidden
// - Outcome to status mapping hidden
// - Listener lifecycle and graceful shutdown hidden
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/zkstudy/zee/analyze"
	"github.com/zkstudy/zee/config"
	"github.com/zkstudy/zee/storage"
)

// Run listing bounds for GET /api/runs.
const (
	defaultRunsLimit = 20
	maxRunsLimit     = storage.MaxRecentLimit
)

// Analyzer runs the pipeline and lists past runs.
type Analyzer interface {
	Analyze(ctx context.Context, topic string) analyze.Report
	Recent(ctx context.Context, limit int) ([]storage.RunRecord, error)
}

// Server is the HTTP boundary.
type Server struct {
	analyzer Analyzer
	cfg      config.ServerConfig
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a server. A nil logger uses slog.Default().
func New(analyzer Analyzer, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/runs", s.handleRuns)

	return chain(
		withRequestLog(s.logger),
		withCORS(s.cfg.AllowedOrigins),
	)(mux)
}

// ListenAndServe listens on the configured port until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down,
// giving in-flight requests ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Analyze responses are written after the pipeline deadline at the latest.
		WriteTimeout: s.cfg.PipelineDeadline + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		<-errCh
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	report := s.analyzer.Analyze(r.Context(), req.Topic)
	res := report.Result
	if !res.OK() {
		s.logger.Warn("analysis failed",
			"run_id", report.RunID,
			"outcome", res.Outcome,
			"detail", res.Detail,
		)
		writeFailure(w, res)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Summary:   res.Content,
		Topic:     report.Topic,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: s.timestamp()})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			writeInvalidRequest(w, fmt.Sprintf("limit must be an integer between 1 and %d", maxRunsLimit))
			return
		}
		limit = n
	}

	records, err := s.analyzer.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, errorInternal, messageInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}
