package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/config"
	"backoffice-api/internal/domain"
	"backoffice-api/internal/handler"
	"backoffice-api/internal/messaging"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/observability"
	"backoffice-api/internal/repository/postgres"
	"backoffice-api/internal/security"
	"backoffice-api/internal/service"
	"backoffice-api/internal/token"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting backoffice api server")

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(connCtx); err != nil {
		slog.Error("database ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to postgresql")

	if err := postgres.EnsureSchema(connCtx, db); err != nil {
		slog.Error("schema setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The broker is optional: auth events are best-effort telemetry and
	// the service stays up without them.
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
		rmq, err = messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			slog.Warn("rabbitmq unavailable, auth events disabled", slog.String("error", err.Error()))
			rmq = nil
		} else {
			defer rmq.Close()
		}
	}

	codec, err := token.NewCodec(cfg.TokenSecret)
	if err != nil {
		slog.Error("token codec setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loginStore, err := postgres.NewSessionStore(db, "login_sessions", security.NewLoginSessionID)
	if err != nil {
		slog.Error("login session store setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	csrfStore, err := postgres.NewSessionStore(db, "csrf_sessions", security.NewCSRFSessionID)
	if err != nil {
		slog.Error("csrf session store setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)

	validator := auth.NewValidator(codec, loginStore, csrfStore)
	issuer := auth.NewIssuer(codec, loginStore, csrfStore, cfg.LoginSessionTTL, cfg.CSRFSessionTTL)
	reaper := auth.NewReaper(cfg.RetireDelay)
	events := messaging.NewAuthEventPublisher(rmq)
	gate := middleware.NewGate(validator, issuer, reaper, loginStore, csrfStore, cfg.CookieLifetime, events)

	authService := service.NewAuthService(userRepo, loginStore, csrfStore, issuer, codec)

	authHandler := handler.NewAuthHandler(authService, validator, cfg.CookieLifetime)
	customerHandler := handler.NewCustomerHandler(customerRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startSessionSweeper(ctx, loginStore, csrfStore)
	slog.Info("session sweeper started")

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))
	r.Use(gate.Middleware())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, rmq))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"backoffice-api"}`))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	loginLimiter := middleware.NewRateLimiter(5, 10)
	defer loginLimiter.Stop()

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Middleware())
			r.Post("/auth/login", authHandler.Login)
		})

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/check", authHandler.Check)

		// Everything below runs behind the gate.
		r.Get("/customers", customerHandler.List)
		r.Post("/customers", customerHandler.Create)
		r.Get("/customers/{id}", customerHandler.GetByID)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	// In-flight deferred deletions are fire-and-forget; the hourly
	// sweeper picks up anything a dying process leaves behind.
	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// startSessionSweeper periodically deletes expired session rows from
// both tables. The validator already treats expired rows as invalid;
// this only keeps the tables from growing without bound.
func startSessionSweeper(ctx context.Context, stores ...domain.ExpiredSessionDeleter) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session sweeper")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			for _, store := range stores {
				count, err := store.DeleteExpired(sweepCtx)
				if err != nil {
					slog.Error("session sweep failed", slog.String("error", err.Error()))
					continue
				}
				slog.Info("session sweep completed", slog.Int64("sessions_deleted", count))
			}
			cancel()
		}
	}
}
