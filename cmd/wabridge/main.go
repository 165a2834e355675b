package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nextprop/wabridge/internal/api"
	"github.com/nextprop/wabridge/internal/cache"
	"github.com/nextprop/wabridge/internal/client"
	"github.com/nextprop/wabridge/internal/config"
	"github.com/nextprop/wabridge/internal/database"
	"github.com/nextprop/wabridge/internal/phone"
	"github.com/nextprop/wabridge/internal/repo"
	"github.com/nextprop/wabridge/internal/scheduler"
	"github.com/nextprop/wabridge/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	queueRepo := repo.NewPostgresQueueRepo(db)
	bridgeRepo := repo.NewPostgresBridgeRepo(db)
	holdingRepo := repo.NewPostgresHoldingRepo(db)

	waClient := client.NewWhatsAppClient(cfg.WhatsApp)
	if !waClient.Configured() {
		slog.Warn("whatsapp credentials absent; sends will fail locally until configured")
	}

	processor := service.NewProcessor(waClient, queueRepo, cfg.Scheduler.BatchSize, cfg.Scheduler.StaleAge)
	ingestor := service.NewIngestor(queueRepo, bridgeRepo, holdingRepo)

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		bridgeCache := cache.NewRedisCache(rdb, cfg.Redis.TTL)
		processor = processor.WithSentCache(bridgeCache)
		ingestor = ingestor.WithDedup(bridgeCache)
	}

	sched, err := scheduler.New(cfg.Scheduler.Interval, func(tickCtx context.Context) {
		sent, failed := processor.RunBatch(tickCtx)
		if sent > 0 || failed > 0 {
			slog.Info("queue batch processed", "sent", sent, "failed", failed)
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	sched.Start()
	defer sched.Stop()

	norm := phone.Normalizer{
		CountryCode: cfg.Phone.CountryCode,
		NSNLength:   cfg.Phone.NSNLength,
	}

	handler := api.NewHandler(sched, queueRepo, holdingRepo, ingestor, norm, cfg.WhatsApp.VerifyToken)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           loggingMiddleware(api.Router(handler)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("wabridge listening",
			"addr", cfg.Server.Address,
			"interval", cfg.Scheduler.Interval.String(),
			"batch", cfg.Scheduler.BatchSize,
			"redis", cfg.Redis.Enabled,
			"whatsapp_configured", waClient.Configured(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
