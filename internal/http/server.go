package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	appweb "budget/web"
)

// Ledger is what the handlers need from the ledger service.
type Ledger interface {
	RecordIncome(ctx context.Context, amount int64, description string) (core.Transaction, error)
	RecordExpense(ctx context.Context, amount int64, description string) (core.Transaction, error)
	Balance() int64
	History() []core.Transaction
	Count() int
	Durable() bool
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	logger    *log.Logger

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	started time.Time
}

func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    64 << 10,
		},
		ledger:  ledger,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(logger, clientIP),
		started: time.Now(),
	}

	t, err := template.New("").Funcs(template.FuncMap{"amount": core.FormatAmount}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/add-income", s.handleEntry(core.Income))
	mux.HandleFunc("/add-expense", s.handleEntry(core.Expense))
	mux.HandleFunc("/show-balance", s.handleBalance)
	mux.HandleFunc("/show-history", s.handleHistory)
	mux.HandleFunc("/exit", s.handleExit)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP, http.MethodPost)(handler)
	handler = log.RequestIDMiddleware(trace.GetRequestID)(handler)
	handler = log.Middleware(logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
