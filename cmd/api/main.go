package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"inquirydesk/internal/config"
	"inquirydesk/internal/database"
	"inquirydesk/internal/httpapi"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/ratelimit"
	"inquirydesk/internal/repository"
	"inquirydesk/internal/services"
	"inquirydesk/internal/util"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	cleanupInterval = time.Minute
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s, timezone=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host, cfg.Location())

	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Println("Closing database connections...")
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	db := database.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to access connection pool: %v", err)
	}

	log.Println("Initializing services...")
	verifier, err := util.NewTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize token verifier: %v", err)
	}
	repo := repository.NewGormRepository(db)
	inquirySvc := services.NewInquiryService(repo, cfg.Pagination, cfg.Location())
	dashboardSvc := services.NewDashboardService(repo, cfg.Location())
	ingestSvc := services.NewIngestService(inquirySvc)
	healthSvc := services.NewHealthService(sqlDB, cfg.App.Name, cfg.App.Version)

	mux := goahttp.NewMuxer()
	mux.Use(middleware.RequestID())
	mux.Use(middleware.PopulateRequestContext())

	log.Println("Mounting HTTP handlers...")
	httpapi.New(mux, cfg.Ingest, inquirySvc, dashboardSvc, ingestSvc, healthSvc).Mount()
	if cfg.Ingest.WebhookSecret == "" {
		log.Println("FORM_WEBHOOK_SECRET not set; form submission webhook disabled")
	}

	// /metrics goes to Prometheus, everything else to the goa mux
	promHandler := promhttp.Handler()
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			database.PublishStats(db)
			promHandler.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	var handler http.Handler = services.RequireSession(verifier)(rootHandler)
	limiter, err := newLimiter(&cfg.RateLimit, stopCleanup)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	if limiter != nil {
		keys, err := ratelimit.NewKeyResolver(cfg.RateLimit.TrustedProxies)
		if err != nil {
			log.Fatalf("Failed to parse trusted proxies: %v", err)
		}
		handler = ratelimit.Middleware(limiter, keys, http.HandlerFunc(httpapi.RateLimited))(handler)
	}

	// Middleware chain: Security -> CORS -> Logging -> Prometheus -> RateLimit -> Auth -> Handler
	handler = setupSecurityHeaders(setupCORS(requestLogging(metrics.PrometheusMiddleware(handler)), cfg), cfg)

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Printf("Server failed to start: %v", err)
		return
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

// newLimiter picks the Redis fixed-window limiter when REDIS_ADDR is set and
// the in-process token bucket otherwise. It returns nil when rate limiting
// is disabled.
func newLimiter(cfg *config.RateLimitConfig, stop <-chan struct{}) (ratelimit.Limiter, error) {
	if !cfg.Enabled {
		log.Println("Rate limiting disabled")
		return nil, nil
	}
	if cfg.RedisAddr != "" {
		log.Printf("Rate limiting via Redis at %s: %d requests per %v", cfg.RedisAddr, cfg.WindowLimit, cfg.Window)
		return ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, cfg.WindowLimit, cfg.Window)
	}
	log.Printf("Rate limiting in memory: %.1f req/s, burst %d", cfg.RPS, cfg.Burst)
	limiter := ratelimit.NewTokenBucketLimiter(cfg.RPS, cfg.Burst)
	go limiter.RunCleanup(cleanupInterval, stop)
	return limiter, nil
}

// setupSecurityHeaders adds security headers to responses
func setupSecurityHeaders(handler http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		// HSTS (only in production with HTTPS)
		if !cfg.App.Debug && r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		handler.ServeHTTP(w, r)
	})
}

// setupCORS answers preflight requests and echoes allowed origins.
func setupCORS(handler http.Handler, cfg *config.Config) http.Handler {
	allowAny := len(cfg.CORS.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = true
	}
	methods := strings.Join(cfg.CORS.AllowedMethods, ", ")
	headers := strings.Join(cfg.CORS.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.CORS.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !allowAny && !allowed[origin] {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", maxAge)
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging logs all incoming requests and their responses
func requestLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip health checks and scrapes to reduce noise
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			handler.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler.ServeHTTP(wrapped, r)

		statusText := "OK"
		if wrapped.statusCode >= 400 {
			statusText = "ERROR"
		}
		log.Printf("[RESPONSE] %s %s -> %d %s (%v)", r.Method, r.URL.Path, wrapped.statusCode, statusText, time.Since(start))
	})
}
