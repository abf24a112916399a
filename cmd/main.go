package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/timesync/timesync/internal/adapters/http/api"
	"github.com/timesync/timesync/internal/adapters/repository"
	app "github.com/timesync/timesync/internal/app"
	"github.com/timesync/timesync/internal/config"
	"github.com/timesync/timesync/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the service registers its own
	// registry and metric families.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithDefaultCandidateCount(cfg.DefaultCandidateCount),
		app.WithMaxCandidateCount(cfg.MaxCandidateCount),
		app.WithDefaultMinPerGroup(cfg.DefaultMinPerGroup),
		app.WithSessionDeadline(time.Duration(cfg.SessionDeadlineMinutes) * time.Minute),
		app.WithSessionRetention(time.Duration(cfg.SessionRetentionMinutes) * time.Minute),
		app.WithEventBufferSize(cfg.EventBufferSize),
	}
	if cfg.DatabaseURL != "" {
		dir, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error(ctx, "failed to open postgres directory", logger.Error(err))
			return
		}
		defer dir.Close()
		if err := dir.Ping(ctx); err != nil {
			log.Error(ctx, "postgres directory unreachable", logger.Error(err))
			return
		}
		opts = append(opts, app.WithDirectory(dir))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Drain published candidates. A chat gateway would format and deliver
	// these; the standalone binary just logs them.
	go func() {
		for n := range svc.Notices() {
			log.Info(ctx, "candidate published",
				logger.String("session", n.SessionID.String()),
				logger.Int("candidate", n.CandidateIndex),
				logger.Int("eligible", len(n.Eligible)),
			)
		}
	}()

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", logger.Error(err))
	}
}
