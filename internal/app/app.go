// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/employee-registry/internal/config"
	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/employees"
	employeespostgres "github.com/bissquit/employee-registry/internal/employees/postgres"
	"github.com/bissquit/employee-registry/internal/identity"
	"github.com/bissquit/employee-registry/internal/identity/jwt"
	identitypostgres "github.com/bissquit/employee-registry/internal/identity/postgres"
	"github.com/bissquit/employee-registry/internal/pkg/ctxlog"
	"github.com/bissquit/employee-registry/internal/pkg/httputil"
	"github.com/bissquit/employee-registry/internal/pkg/metrics"
	"github.com/bissquit/employee-registry/internal/pkg/postgres"
	"github.com/bissquit/employee-registry/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	identity      *identity.Service
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := NewLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	router, err := app.setupRouter()
	if err != nil {
		db.Close()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	if cfg.Seed.Enabled {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := SeedAdmin(seedCtx, app.identity, cfg.Seed, logger)
		seedCancel()
		if err != nil {
			db.Close()
			metricsCancel()
			return nil, fmt.Errorf("seed admin account: %w", err)
		}
	}

	go app.collectDBMetrics(metricsCtx)

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	shutdown := func(name string, srv *http.Server) {
		defer wg.Done()
		if err := srv.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(2)
	go shutdown("server", a.server)
	go shutdown("metrics server", a.metricsServer)
	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Identity returns the account service. Used by tests to provision accounts.
func (a *App) Identity() *identity.Service {
	return a.identity
}

func (a *App) setupRouter() (*chi.Mux, error) {
	hasher, err := identity.NewPasswordHasher(a.config.Password.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create password hasher: %w", err)
	}

	authenticator, err := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           a.config.JWT.SecretKey,
		Algorithm:           a.config.JWT.Algorithm,
		AccessTokenDuration: a.config.JWT.AccessTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	identityRepo := identitypostgres.NewRepository(a.db)
	a.identity = identity.NewService(identityRepo, hasher, authenticator)
	identityHandler := identity.NewHandler(a.identity)
	guard := identity.NewGuard(authenticator, identityRepo)

	employeesService := employees.NewService(employeespostgres.NewRepository(a.db))
	employeesHandler := employees.NewHandler(employeesService)

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.requestTimeout()))

	r.Get("/", a.rootHandler)
	r.Get("/health", a.healthHandler)
	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})
	r.Get("/docs", docsHandler)

	identityHandler.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(guard, domain.CapabilityAuthenticated))
		identityHandler.RegisterProtectedRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(guard, domain.CapabilityReadEmployees))
		employeesHandler.RegisterReadRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(guard, domain.CapabilityWriteEmployees))
		employeesHandler.RegisterWriteRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(guard, domain.CapabilityManageAccounts))
		identityHandler.RegisterAdminRoutes(r)
	})

	return r, nil
}

func (a *App) requestTimeout() time.Duration {
	if a.config.Server.RequestTimeout > 0 {
		return a.config.Server.RequestTimeout
	}
	return 60 * time.Second
}

func (a *App) rootHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to " + version.Name + " API",
		"version": version.Version,
		"docs":    "/docs",
	})
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Employee Management System API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
