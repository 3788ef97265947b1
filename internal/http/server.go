package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expenses/internal/chart"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

type Server struct {
	http.Server
	templates  *template.Template
	ledger     *services.LedgerService
	dashboards *services.DashboardService

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, dashboards *services.DashboardService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		ledger:     ledger,
		dashboards: dashboards,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:   detector,
		tracer:     trace.NewMiddleware(detector.ExtractClientIP, logger),
		startedAt:  time.Now(),
	}

	t, err := template.New("pages").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// HTML dashboard and form posts
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /entries", s.handleCreateEntryForm)
	mux.HandleFunc("POST /entries/{id}", s.handleUpdateEntryForm)
	mux.HandleFunc("POST /entries/{id}/delete", s.handleDeleteEntryForm)
	mux.HandleFunc("POST /currency", s.handleCurrencyForm)

	// JSON API
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("PUT /api/currency", s.handleSetCurrency)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, nil)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks that templates parsed and the ledger can build a dashboard.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ledger == nil || s.dashboards == nil {
		checks["ledger"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.dashboards.Dashboard(r.Context(), nil); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"requests":       s.tracer.GetMetrics(),
		"rate_limit":     s.limiter.GetMetrics(),
		"security":       s.detector.GetMetrics(),
	})
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"wedgePath": wedgePath,
		"emptyText": func() string { return services.EmptyListText },
		"num":       func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"pieBox":    func() string { return fmt.Sprintf("0 0 %g %g", chart.PieWidth, chart.PieHeight) },
		"barBox":    func() string { return fmt.Sprintf("0 0 %g %g", chart.BarWidth, chart.BarHeight) },
	}
}

// wedgePath renders a wedge as an SVG path from the pie centre.
func wedgePath(p chart.Pie, w chart.Wedge) string {
	large := 0
	if w.LargeArc {
		large = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		p.Center.X, p.Center.Y,
		w.Start.X, w.Start.Y,
		p.Radius, p.Radius, large,
		w.End.X, w.End.Y)
}
