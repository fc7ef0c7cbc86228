package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/stokerio/stoker/pkg/accesslog"
	"github.com/stokerio/stoker/pkg/config"
	"github.com/stokerio/stoker/pkg/httpd"
	"github.com/stokerio/stoker/pkg/logging"
	obs "github.com/stokerio/stoker/pkg/observability/prometheus"
)

type appConfig struct {
	Server struct {
		Addr         string          `yaml:"addr" json:"addr"`
		Workers      int             `yaml:"workers" json:"workers"`
		IndexFile    string          `yaml:"index_file" json:"index_file"`
		NotFoundFile string          `yaml:"not_found_file" json:"not_found_file"`
		SleepDelay   config.Duration `yaml:"sleep_delay" json:"sleep_delay"`
		ReadTimeout  config.Duration `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout config.Duration `yaml:"write_timeout" json:"write_timeout"`
		StopTimeout  config.Duration `yaml:"stop_timeout" json:"stop_timeout"`
	} `yaml:"server" json:"server"`
	Ops struct {
		MetricsAddr  string          `yaml:"metrics_addr" json:"metrics_addr"`
		SyncInterval config.Duration `yaml:"sync_interval" json:"sync_interval"`
	} `yaml:"ops" json:"ops"`
	AccessLog struct {
		Path  string `yaml:"path" json:"path"`
		Fsync bool   `yaml:"fsync" json:"fsync"`
	} `yaml:"access_log" json:"access_log"`
	Logging struct {
		Level string `yaml:"level" json:"level"`
	} `yaml:"logging" json:"logging"`
}

func defaultAppConfig() appConfig {
	var cfg appConfig
	d := httpd.DefaultConfig()
	cfg.Server.Addr = d.Addr
	cfg.Server.Workers = d.Workers
	cfg.Server.IndexFile = d.IndexFile
	cfg.Server.NotFoundFile = d.NotFoundFile
	cfg.Server.SleepDelay = config.Duration(d.SleepDelay)
	cfg.Server.ReadTimeout = config.Duration(d.ReadTimeout)
	cfg.Server.WriteTimeout = config.Duration(d.WriteTimeout)
	cfg.Server.StopTimeout = config.Duration(d.StopTimeout)
	cfg.Ops.SyncInterval = config.Duration(5 * time.Second)
	cfg.Logging.Level = "info"
	return cfg
}

func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	if _, err := os.Stat(path); err == nil {
		if err := config.LoadWithEnv(path, "STOKER", &cfg); err != nil {
			return cfg, err
		}
	} else if err := config.ApplyEnvOverrides("STOKER", &cfg); err != nil {
		return cfg, err
	}

	err := config.Validate(&cfg,
		config.RequiredFields("Server.Addr", "Server.IndexFile", "Server.NotFoundFile"),
		config.MinInt("Server.Workers", 1),
	)
	return cfg, err
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML/JSON config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(level)

	requestLog := accesslog.NewNop()
	if cfg.AccessLog.Path != "" {
		alCfg := accesslog.DefaultConfig(cfg.AccessLog.Path)
		if cfg.AccessLog.Fsync {
			alCfg.Durability = accesslog.DurabilityFsync
		}
		requestLog, err = accesslog.New(alCfg)
		if err != nil {
			logger.Warnf("access log disabled: %v", err)
			requestLog = accesslog.NewNop()
		}
	}
	defer requestLog.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := httpd.NewServer(rootCtx, httpd.Config{
		Addr:         cfg.Server.Addr,
		Workers:      cfg.Server.Workers,
		IndexFile:    cfg.Server.IndexFile,
		NotFoundFile: cfg.Server.NotFoundFile,
		SleepDelay:   cfg.Server.SleepDelay.Std(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		StopTimeout:  cfg.Server.StopTimeout.Std(),
	}, logger)
	if err != nil {
		return err
	}

	server.AddObserver(obs.ConnObserver())
	server.AddObserver(func(connID string, status int, route string, elapsed time.Duration) {
		err := requestLog.Append(accesslog.Entry{
			Time:    time.Now(),
			ConnID:  connID,
			Route:   route,
			Status:  status,
			Elapsed: elapsed,
		})
		if err != nil {
			logger.Warnf("access log append failed: %v", err)
		}
	})

	var metricsServer *http.Server
	if cfg.Ops.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(obs.DefaultRegistry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Ops.MetricsAddr, Handler: mux}
	}

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(server.Start)

	if metricsServer != nil {
		g.Go(func() error {
			logger.Infof("ops: metrics on %s/metrics", cfg.Ops.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		obs.SyncServer(ctx, server, cfg.Ops.SyncInterval.Std())
		return nil
	})

	// Single owner of shutdown: the pool must be stopped exactly once.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return server.Stop()
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stoker: %v\n", err)
		os.Exit(1)
	}
}
