package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/chat-gateway/internal/api"
	"github.com/ignite/chat-gateway/internal/config"
	"github.com/ignite/chat-gateway/internal/credstore"
	"github.com/ignite/chat-gateway/internal/dispatch"
	"github.com/ignite/chat-gateway/internal/messenger"
	"github.com/ignite/chat-gateway/internal/pkg/logger"
	"github.com/ignite/chat-gateway/internal/session"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch cfg.Logging.Level {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	// Credential store: sessions must survive a process restart even though
	// task state does not.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatalf("Redis unreachable at %s: %v", cfg.Redis.Addr, err)
	}
	cancelPing()
	creds := credstore.NewRedisStore(redisClient, cfg.Redis.KeyPrefix)

	// The protocol implementation is pluggable. The simulated dialer keeps
	// the server runnable without network access; a real deployment swaps
	// in a concrete messenger.Dialer here.
	var dialer messenger.Dialer = &messenger.FakeDialer{}

	registry := session.NewRegistry()
	controller := session.NewController(registry, dialer, creds, cfg.Session)

	tasks := dispatch.NewRegistry(cfg.Dispatch.TaskRetention())
	engine := dispatch.NewEngine(tasks, registry, cfg.Dispatch)

	server := api.NewServer(cfg.Server, controller, engine)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[server] received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] HTTP shutdown: %v", err)
	}

	// Tear down every live client cleanly; task state is process-lifetime
	// and is simply dropped.
	controller.Shutdown(shutdownCtx)

	if err := redisClient.Close(); err != nil {
		log.Printf("[server] redis close: %v", err)
	}
	log.Println("[server] shutdown complete")
}
