package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/middleware/ratelimit"
	"uems/internal/middleware/security"
	"uems/internal/middleware/trace"
	"uems/internal/render"
	"uems/internal/services"
	appweb "uems/web"
)

const (
	readTimeout    = 10 * time.Second
	writeTimeout   = 30 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 64 << 10

	// requestTimeout bounds the upstream loads of one request.
	requestTimeout = 20 * time.Second
	staticMaxAge   = 3600
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// Options configures the server. Zero values pick defaults.
type Options struct {
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	RateLimitRPM int
	// ReadyChecks run on /readyz, keyed by dependency name.
	ReadyChecks map[string]ReadyCheck
	// Templates overrides the embedded templates.
	Templates fs.FS
}

// Server serves the dashboard shell, its htmx partials, chart data and
// exports.
type Server struct {
	http.Server

	dashboard   *services.DashboardService
	templates   *template.Template
	logger      *log.Logger
	metrics     *metrics.Metrics
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	readyChecks map[string]ReadyCheck
	started     time.Time

	shutdownOnce sync.Once
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"chartID":     render.ElementID,
		"queryString": queryString,
	}
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("uems").Funcs(templateFuncs()).ParseFS(fsys, "templates/*.html")
}

// NewServer wires routes and middleware around the dashboard service.
func NewServer(addr string, dashboard *services.DashboardService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetricsForTesting()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Templates == nil {
		opts.Templates = appweb.TemplatesFS
	}

	s := &Server{
		dashboard:   dashboard,
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		metrics:     opts.Metrics,
		detector:    security.NewDetector(),
		readyChecks: opts.ReadyChecks,
		started:     time.Now(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitRPM,
			Metrics:           opts.Metrics,
		}),
	}

	t, err := parseTemplates(opts.Templates)
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldError, err.Error())
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /ui/views/{view}", s.handleView)
	mux.HandleFunc("GET /ui/views/{view}/tables/{table}", s.handleTable)
	mux.HandleFunc("GET /ui/views/{view}/charts/{chart}", s.handleChartSnippet)
	mux.HandleFunc("/ui/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/charts/{view}/{chart}", s.handleChartJSON)
	mux.HandleFunc("GET /charts/{view}/{file}", s.handleChartPNG)
	mux.HandleFunc("GET /export/{view}/{file}", s.handleExport)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.middleware(mux),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}
	return s
}

// middleware builds the chain, outermost first: logger, trace, security
// headers, suspicious request detection, rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, s.metrics)

	h := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)
	return log.Middleware(s.logger)(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http shutdown: %w", err)
		}
	})
	return shutdownErr
}
