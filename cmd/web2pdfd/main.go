// Command web2pdfd serves the URL-to-PDF conversion API over HTTP.
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

	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	web2pdf "github.com/webpdf/go-web2pdf"
	"github.com/webpdf/go-web2pdf/internal/config"
	"github.com/webpdf/go-web2pdf/internal/httpserver"
)

// Version is set at build time via ldflags.
var Version = "dev"

// shutdownTimeout bounds graceful shutdown: in-flight renders past this are
// abandoned.
const shutdownTimeout = 30 * time.Second

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to YAML config file")
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *version {
		fmt.Println("web2pdfd", Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	if err := serve(*configPath, *listen, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func serve(configPath, listenOverride string, logger *slog.Logger) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if listenOverride != "" {
		cfg.Listen = listenOverride
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := web2pdf.NewService(
		web2pdf.WithLogger(logger),
		web2pdf.WithLaunchStrategy(launchStrategy(cfg)),
		web2pdf.WithUsageStore(store),
		web2pdf.WithQueueCapacity(cfg.Queue.Capacity),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing service", "error", err)
		}
	}()

	server := httpserver.New(svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "usage_backend", cfg.Usage.Backend)
		errCh <- server.Start(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// launchStrategy builds the browser launch strategy from config.
func launchStrategy(cfg *config.Config) web2pdf.LaunchStrategy {
	if cfg.Browser.ControlURL != "" {
		return web2pdf.RemoteLaunch{ControlURL: cfg.Browser.ControlURL}
	}
	return web2pdf.LocalLaunch{Bin: cfg.Browser.Bin, NoSandbox: cfg.Browser.NoSandbox}
}

// buildStore creates the configured usage store and its cleanup func.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (web2pdf.UsageStore, func(), error) {
	switch cfg.Usage.Backend {
	case config.BackendRedis:
		store, err := web2pdf.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.Usage.Redis.Addr,
			Password: cfg.Usage.Redis.Password,
			DB:       cfg.Usage.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis store", "error", err)
			}
		}, nil

	case config.BackendMongo:
		store, err := web2pdf.NewMongoStore(ctx,
			cfg.Usage.Mongo.URI, cfg.Usage.Mongo.Database, cfg.Usage.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warn("closing mongo store", "error", err)
			}
		}, nil

	default:
		return web2pdf.NewMemoryStore(), func() {}, nil
	}
}
