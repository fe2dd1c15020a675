package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "whisp/cmd/api/router/v1"
	cacheAdapter "whisp/internal/infrastructure/cache/adapter"
	cport "whisp/internal/infrastructure/cache/port"
	"whisp/internal/infrastructure/config"
	"whisp/internal/infrastructure/database"
	"whisp/internal/infrastructure/logger"
	queueAdapter "whisp/internal/infrastructure/queue/adapter"
	qport "whisp/internal/infrastructure/queue/port"
	"whisp/internal/infrastructure/realtime"
	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/chat/application/task"
	msgAdapter "whisp/internal/pkg/chat/persistence/repository/adapter"
	userAdapter "whisp/internal/repository/adapter"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis-backed cache and queue are optional; without them partner-info
	// caching and offline notifications are simply off.
	var cache cport.Cache
	var queue qport.Client
	if cfg.RedisURL != "" {
		c, err := cacheAdapter.NewRedisCache(cfg.RedisURL)
		if err != nil {
			slog.Warn("redis cache unavailable", "error", err)
		} else {
			cache = c
			defer c.Close()
		}

		q, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			slog.Warn("queue client unavailable", "error", err)
		} else {
			queue = q
			defer q.Close()
		}

		if srv, err := queueAdapter.NewAsynqServer(cfg.RedisURL, 0); err != nil {
			slog.Warn("queue server unavailable", "error", err)
		} else {
			task.RegisterNotifyOfflineTask(srv)
			go func() {
				if err := srv.Run(ctx); err != nil {
					slog.Error("queue server stopped", "error", err)
				}
			}()
		}
	}

	usersRepo := userAdapter.NewPgUserRepository(pool)
	messagesRepo := msgAdapter.NewPgMessageRepository(pool)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authn := auth.NewTokenAuthenticator(tokens, usersRepo)

	registry := realtime.NewRegistry()
	defer registry.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(r, v1.Dependencies{
		Cfg:      cfg,
		Registry: registry,
		Authn:    authn,
		Tokens:   tokens,
		Users:    usersRepo,
		Messages: messagesRepo,
		Cache:    cache,
		Queue:    queue,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		slog.Info("api listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
