package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/api"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/auth"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/config"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/ingest"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/logging"
	persistence "github.com/PrachiPhunde/WearableTechHealthApp/internal/persistence/postgres"
	httptransport "github.com/PrachiPhunde/WearableTechHealthApp/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogDir, "vitals-api")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	publisher := ingest.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	service := domain.NewService(
		repo, repo, repo, repo, repo,
		publisher,
		logger,
		domain.WithTriggerTimeout(cfg.TriggerTimeout),
	)

	handler := api.NewHandler(service)
	router := chi.NewRouter()
	router.Use(cors.AllowAll().Handler)
	router.Use(requestLogger(logger))
	handler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(router))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("vitals api listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r)
		})
	}
}
