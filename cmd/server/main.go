package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"musictogether/internal/config"
	"musictogether/internal/hub"
	"musictogether/internal/middleware"
	"musictogether/internal/server"
	"musictogether/internal/store"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.Rest.Mode)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}

	roomHub := hub.New(st, logger)
	limiter := middleware.NewConnectLimiter(
		cfg.Limits.ConnectLimit,
		time.Duration(cfg.Limits.ConnectWindowSeconds)*time.Second,
	)

	router := server.NewRouter(server.Deps{Hub: roomHub, Limiter: limiter, Log: logger})
	srv := server.NewHTTPServer(cfg, router)

	go func() {
		logger.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Rest.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	return logger
}
