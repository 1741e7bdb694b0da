package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	fasthttpprometheus "github.com/flf2ko/fasthttp-prometheus"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"ShareAnalysis/internal/app"
	"ShareAnalysis/internal/config"
	"ShareAnalysis/internal/scheduler"
	"ShareAnalysis/internal/service"
	"ShareAnalysis/internal/web"
)

var serviceVersion = "dev"

func main() {
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *printVersion {
		fmt.Println(serviceVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(app.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.Log.Level)
	_ = level.Info(logger).Log("msg", "ShareAnalysis starting", "version", serviceVersion)

	if err := cfg.Validate(); err != nil {
		_ = level.Error(logger).Log("msg", "config validation", "err", err)
		os.Exit(1)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := app.NewRecorder(ctx, cfg, logger)
	defer rec.Close()

	refs, quotes, err := app.NewLoaders(cfg, rec, logger)
	if err != nil {
		_ = level.Error(logger).Log("msg", "init loaders", "err", err)
		os.Exit(1)
	}

	svc := service.NewService(refs, quotes, rec, logger)
	svc = service.NewLoggingMiddleware(logger, svc)
	svc = service.NewInstrumentingMiddleware(
		kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Name:      "request_count",
			Help:      "Request count",
		}, service.MethodError),
		kitprometheus.NewSummaryFrom(prometheus.SummaryOpts{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Name:      "request_duration",
			Help:      "Request duration",
		}, service.MethodError),
		svc,
	)

	router := web.NewServer(svc, logger, cfg.Server.RequestTimeout).Router()
	p := fasthttpprometheus.NewPrometheus(cfg.Metrics.Subsystem)
	server := &fasthttp.Server{
		Handler:      p.WrapHandler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sched := scheduler.NewScheduler(ctx, refs, quotes, cfg.Schedule.Watchlist, logger)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron); err != nil {
		_ = level.Error(logger).Log("msg", "register cron tasks", "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.WarmOnStart {
		_ = level.Info(logger).Log("msg", "warm_on_start enabled, warming caches now")
		go func() {
			if err := sched.RunNow(); err != nil {
				_ = level.Error(logger).Log("msg", "warm on start", "err", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		_ = level.Info(logger).Log("msg", "starting http server", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		_ = level.Info(logger).Log("msg", "received signal, exiting", "signal", sig)
		cancel()
		if err := server.Shutdown(); err != nil {
			_ = level.Error(logger).Log("msg", "server shutdown failure", "err", err)
		}
	case err := <-errCh:
		_ = level.Error(logger).Log("msg", "server run failure", "err", err)
		cancel()
	}
	_ = level.Info(logger).Log("msg", "goodbye")
}
