package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpx "github.com/the-auction-games/account-api/internal/http"
	"github.com/the-auction-games/account-api/internal/repository"
	"github.com/the-auction-games/account-api/internal/repository/memory"
	"github.com/the-auction-games/account-api/internal/repository/statestore"
	"github.com/the-auction-games/account-api/internal/service/account"
	"github.com/the-auction-games/account-api/internal/sidecar"
	"github.com/the-auction-games/account-api/pkg/config"
	"github.com/the-auction-games/account-api/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("account-api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo repository.AccountRepository
	var health func(context.Context) error

	switch cfg.StorageBackend {
	case "memory":
		log.Warn("using in-memory account storage; data will not survive restarts")
		repo = memory.New()
	default:
		client := sidecar.New(cfg.StateStorePort, cfg.StateStoreName, sidecar.WithLogger(log))
		if err := client.Health(ctx); err != nil {
			// The sidecar often comes up after the app; calls retry anyway.
			log.Warn("state store sidecar not reachable yet", "error", err)
		}
		repo = statestore.New(client, log)
		health = client.Health
	}

	accountSvc := account.New(repo, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, accountSvc, limiter, health)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("account api starting", "addr", cfg.Addr, "backend", cfg.StorageBackend)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("account api stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
