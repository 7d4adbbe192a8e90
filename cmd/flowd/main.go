package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flowgrid "github.com/bwerff/ExcelAiRate-sub000"
	"github.com/bwerff/ExcelAiRate-sub000/internal/archive"
	"github.com/bwerff/ExcelAiRate-sub000/internal/config"
	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/internal/server"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/log"
)

type flowd struct {
	cfg        *config.Config
	store      *store.RedisStore
	archiver   *archive.BlobArchiver
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrCreateArchiver = errors.New("failed to open archive bucket")

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &flowd{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *flowd) run() error {
	if err := s.initializeStores(); err != nil {
		return err
	}
	if err := s.initializeEngine(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *flowd) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithLevel(flowgrid.Name, env, flowgrid.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Flowgrid starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("redis_addr", s.cfg.Store.Addr),
		slog.Int("redis_db", s.cfg.Store.DB),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *flowd) initializeStores() error {
	s.store = store.NewRedisStore(&s.cfg.Store)

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("Workflow store unreachable",
			slog.String("redis_addr", s.cfg.Store.Addr),
			log.Error(err))
	}

	if s.cfg.ArchiveURL == "" {
		return nil
	}
	archiver, err := archive.NewBlobArchiver(
		context.Background(), s.cfg.ArchiveURL, "runs/",
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateArchiver, err)
	}
	s.archiver = archiver
	return nil
}

func (s *flowd) initializeEngine() error {
	deps := &engine.Dependencies{
		Dispatcher: engine.NewDefaultRegistry(),
		Store:      s.store,
		Config:     s.cfg,
	}
	if s.archiver != nil {
		deps.Archiver = s.archiver
	}

	eng, err := engine.New(deps)
	if err != nil {
		return err
	}
	s.engine = eng
	return nil
}

func (s *flowd) startServer() {
	s.apiServer = server.NewServer(s.engine, s.store)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *flowd) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	if err := s.engine.Stop(); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}

	if s.archiver != nil {
		_ = s.archiver.Close()
	}
	_ = s.store.Close()

	slog.Info("Server exited")
}
