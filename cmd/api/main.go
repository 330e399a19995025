package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/blogcaster/backend/internal/config"
	"github.com/zhouzirui/blogcaster/backend/internal/handler"
	"github.com/zhouzirui/blogcaster/backend/internal/logging"
	"github.com/zhouzirui/blogcaster/backend/internal/service/conversion"
	"github.com/zhouzirui/blogcaster/backend/internal/service/speech"
	"github.com/zhouzirui/blogcaster/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}
	defer logging.Sync(logger)
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	store, err := storage.NewStore(cfg.Store.Dir, logger)
	if err != nil {
		logger.Fatal("failed to prepare audio directory", zap.String("dir", cfg.Store.Dir), zap.Error(err))
	}

	// 后端初始化失败不阻止启动，请求会得到 503
	synth, err := speech.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("tts backend unavailable", zap.String("backend", cfg.Backend), zap.Error(err))
	} else {
		logger.Info("tts backend initialised", zap.String("backend", cfg.Backend))
	}
	if closer, ok := synth.(io.Closer); ok {
		defer closer.Close()
	}

	convCfg := conversion.Config{
		Backend:          cfg.Backend,
		SnippetMaxLength: cfg.Store.SnippetMaxLength,
		Logger:           logger,
	}

	var catalog *storage.Catalog
	if cfg.Catalog.Path != "" {
		catalog, err = storage.OpenCatalog(cfg.Catalog.Path, logger)
		if err != nil {
			logger.Warn("artifact catalog disabled", zap.Error(err))
			catalog = nil
		} else {
			defer catalog.Close()
			convCfg.Recorder = catalog
		}
	}

	router := handler.NewRouter(handler.Dependencies{
		Conversion: conversion.NewService(synth, store, convCfg),
		Store:      store,
		Catalog:    catalog,
		Logger:     logger,
	})

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	// 合成可能持续数分钟，不设置写超时
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Blogcaster backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
