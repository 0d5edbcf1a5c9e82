// Package app composes the server: configuration, stores, logging,
// session registry, and the HTTP listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"mapsync/server/internal/auth"
	"mapsync/server/internal/config"
	"mapsync/server/internal/editor"
	servernet "mapsync/server/internal/net"
	"mapsync/server/internal/registry"
	"mapsync/server/internal/store"
	"mapsync/server/internal/telemetry"
	"mapsync/server/logging"
	loggingSinks "mapsync/server/logging/sinks"
)

// Options carries the process-level inputs to Run.
type Options struct {
	ConfigPath string
	Logger     telemetry.Logger
}

// Run builds the server from configuration and serves until the context
// is canceled or the listener fails.
func Run(ctx context.Context, opts Options) error {
	telemetryLogger := opts.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return errors.New("app: auth secret is required")
	}

	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = cfg.Logging.Sinks
	logConfig.BufferSize = cfg.Logging.BufferSize
	logConfig.MinimumSeverity = logging.ParseSeverity(cfg.Logging.MinimumSeverity)

	available := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
		{Name: "memory", Sink: loggingSinks.NewMemorySink()},
	}
	var namedSinks []logging.NamedSink
	for _, sink := range available {
		if logConfig.HasSink(sink.Name) {
			namedSinks = append(namedSinks, sink)
		}
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("app: construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	docs, closeStore, err := buildStore(ctx, cfg, telemetryLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := auth.NewVerifier([]byte(cfg.Auth.Secret))
	if err != nil {
		return err
	}

	metrics := telemetry.NewCounters()
	reg := registry.New(docs, cfg.SessionConfig(), editorDeps(docs, telemetryLogger, metrics, router))

	handler := servernet.NewHTTPHandler(reg, verifier, servernet.HTTPHandlerConfig{
		Logger:    fallbackLogger,
		Metrics:   metrics,
		Publisher: router,
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	telemetryLogger.Printf("server listening on %s", cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

func editorDeps(docs store.Store, logger telemetry.Logger, metrics telemetry.Metrics, publisher logging.Publisher) editor.Deps {
	return editor.Deps{
		Persister: docs,
		Logger:    logger,
		Metrics:   metrics,
		Publisher: publisher,
	}
}

func buildStore(ctx context.Context, cfg config.Config, logger telemetry.Logger) (store.Store, func(), error) {
	if cfg.Postgres.DSN == "" {
		logger.Printf("no postgres dsn configured, using in-memory document store")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	if cfg.Redis.Addr == "" {
		return pg, pg.Close, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cached, err := store.NewCached(ctx, pg, client, cfg.Redis.TTL)
	if err != nil {
		pg.Close()
		client.Close()
		return nil, nil, err
	}
	closeAll := func() {
		client.Close()
		pg.Close()
	}
	return cached, closeAll, nil
}
