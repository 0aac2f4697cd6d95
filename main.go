// Command vod-archive serves the VOD archive API.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens the catalog store (JSON file or Postgres with migrations).
//   - Starts the hourly catalog sync job, which also refreshes cheers.
//   - Exposes the player API, /metrics, and optional pprof endpoints.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/vod-archive/catalog"
	"github.com/onnwee/vod-archive/config"
	"github.com/onnwee/vod-archive/db"
	"github.com/onnwee/vod-archive/server"
	"github.com/onnwee/vod-archive/telemetry"
)

func main() {
	// Local dev convenience only; production relies on real env.
	_ = godotenv.Load()

	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateCatalogBackend(); err != nil {
		slog.Error("invalid catalog backend config", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("vod-archive", "1.0.0", telemetry.TracingConfigFromEnv())
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, database, err := openCatalog(ctx, cfg)
	if err != nil {
		slog.Error("failed to open catalog store", slog.Any("err", err), slog.String("backend", cfg.CatalogBackend))
		os.Exit(1)
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
	}

	app := server.NewApp(cfg, store)
	refreshEmotes := func(ctx context.Context) {
		if err := app.Emotes.Refresh(ctx); err != nil {
			slog.Warn("cheers refresh failed", slog.Any("err", err), slog.String("component", "emotes"))
		}
	}
	if cfg.RemoteMode() {
		slog.Info("remote catalog mode: reconciliation disabled")
		go refreshEmotes(ctx)
	} else {
		go catalog.StartSyncJob(ctx, app.Catalog, cfg.SyncInterval, refreshEmotes)
	}

	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	if err := server.Start(ctx, app, cfg.HTTPAddr); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}

// openCatalog returns the configured catalog store. For Postgres it also
// returns the open database so main can close it.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Store, *sql.DB, error) {
	if cfg.CatalogBackend != config.CatalogBackendPostgres {
		slog.Info("using file catalog", slog.String("path", cfg.MetadataFile))
		return catalog.NewFileStore(cfg.MetadataFile), nil, nil
	}
	database, err := db.Connect(ctx, cfg.DBDsn)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return catalog.NewPostgresStore(database), database, nil
}
