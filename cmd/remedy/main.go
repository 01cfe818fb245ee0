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
	"time"

	app "github.com/kode4food/remedy"
	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/internal/executor"
	"github.com/kode4food/remedy/internal/notify"
	"github.com/kode4food/remedy/internal/server"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

type remedy struct {
	cfg        *config.Config
	notifier   *notify.Publisher
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrCreateNotifier = errors.New("failed to create notifier")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

const notifyPingTimeout = 3 * time.Second

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

	s := &remedy{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *remedy) run() error {
	if err := s.initializeNotifier(); err != nil {
		return err
	}

	if err := s.initializeEngine(); err != nil {
		s.closeNotifier()
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *remedy) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithFormat(
		s.cfg.LogFormat, app.Name, env, app.Version, level,
	)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Remedy Engine starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("executor_mode", s.cfg.Executor.Mode),
		slog.String("executor_base_url", s.cfg.Executor.BaseURL),
		slog.Duration("step_timeout", s.cfg.StepTimeout),
		slog.Duration("auto_advance_delay", s.cfg.AutoAdvanceDelay),
		slog.String("notify_redis_addr", s.cfg.Notify.Addr),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *remedy) initializeNotifier() error {
	if s.cfg.Notify.Addr == "" {
		return nil
	}

	pub, err := notify.NewPublisher(&s.cfg.Notify)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateNotifier, err)
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), notifyPingTimeout,
	)
	defer cancel()
	if err := pub.Ping(ctx); err != nil {
		_ = pub.Close()
		return fmt.Errorf("%w: %w", ErrCreateNotifier, err)
	}

	s.notifier = pub
	return nil
}

func (s *remedy) initializeEngine() error {
	exec, err := executor.New(&s.cfg.Executor, s.cfg.StepTimeout)
	if err != nil {
		return err
	}

	eng, err := engine.New(s.cfg, engine.Dependencies{
		Executor:   exec,
		OnComplete: s.onComplete(),
	})
	if err != nil {
		return err
	}
	s.engine = eng
	return nil
}

func (s *remedy) onComplete() engine.CompletionFunc {
	var publish func(api.CompletionResult)
	if s.notifier != nil {
		publish = s.notifier.OnComplete(notify.DefaultNotifyTimeout)
	}

	return func(res api.CompletionResult) {
		slog.Info("Workflow completed",
			log.RunID(res.RunID),
			slog.String("summary", res.Plan.ProblemSummary))
		if publish != nil {
			publish(res)
		}
	}
}

func (s *remedy) startServer() {
	s.apiServer = server.NewServer(s.engine)
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

func (s *remedy) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if err := s.engine.Shutdown(); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}

	s.closeNotifier()

	slog.Info("Server exited")
}

func (s *remedy) closeNotifier() {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Close(); err != nil {
		slog.Error("Notifier close failed", log.Error(err))
	}
}
