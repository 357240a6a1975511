// Command hwheeld is a small demo binary wiring the wheel core to real
// infrastructure: a TOML config file, a Prometheus metrics endpoint, and
// structured logging, plus a --demo mode that schedules a handful of
// tasks so the wheel's behavior can be observed without writing any Go.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/libraSolo/hwheel/config"
	"github.com/libraSolo/hwheel/executor"
	hwheellog "github.com/libraSolo/hwheel/log"
	"github.com/libraSolo/hwheel/metrics"
	"github.com/libraSolo/hwheel/wheel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var demo bool
	var dev bool

	cmd := &cobra.Command{
		Use:   "hwheeld",
		Short: "Run a hierarchical timer wheel daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, demo, dev)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults baked in if omitted)")
	cmd.Flags().BoolVar(&demo, "demo", false, "schedule a handful of demo tasks on startup")
	cmd.Flags().BoolVar(&dev, "dev", false, "use development logging (console, debug level)")
	return cmd
}

func run(configPath string, demo, dev bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	newLogger := hwheellog.NewProduction
	if dev {
		newLogger = hwheellog.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	metricsSet := metrics.New(reg)

	pool := executor.NewPool(cfg.ExecutorWorkers, cfg.ExecutorBuffer, logger)
	defer pool.Close()

	w, err := wheel.New(wheel.Config{
		TickMS:    cfg.TickMS,
		SlotCount: cfg.SlotCount,
		Executor:  pool,
		Metrics:   metricsSet,
		Log:       logger,
		FailureSink: func(t *wheel.Task, taskErr error) {
			logger.Error(taskErr, "task action failed", "expiryMS", t.ExpiryMS())
		},
	})
	if err != nil {
		return fmt.Errorf("construct wheel: %w", err)
	}
	w.Start()
	defer w.Stop()

	if demo {
		scheduleDemoTasks(w, logger)
	}

	srv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	logger.Info("serving metrics", "addr", cfg.MetricsAddr)

	errC := make(chan error, 1)
	go func() { errC <- srv.ListenAndServe() }()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errC:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
	case sig := <-sigC:
		logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
	}
	return nil
}

// scheduleDemoTasks adds a spread of 20 tasks at varying delays, of which
// every seventh (indices 0, 7 and 14) deliberately fails, so a reader
// watching logs/metrics can see
// scheduling, cascading, and failure handling happen live.
func scheduleDemoTasks(w *wheel.Wheel, logger logr.Logger) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 20; i++ {
		i := i
		delay := time.Duration(r.Intn(30)+1) * time.Second
		_, err := w.AddTask(delay, func() error {
			if i%7 == 0 {
				return fmt.Errorf("demo task %d deliberately failed", i)
			}
			logger.Info("demo task fired", "index", i)
			return nil
		})
		if err != nil {
			logger.Error(err, "failed to schedule demo task", "index", i)
		}
	}
}
