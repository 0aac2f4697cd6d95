// Package server exposes the HTTP API used by the player: catalog, thumbnails,
// rewritten HLS manifests, MP4 range passthrough, chat, emotes, sync and
// health. Every response carries permissive CORS headers and a correlation ID.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux returns the HTTP handler with all routes.
func NewMux(ctx context.Context, app *App) http.Handler {
	h := NewHandlers(ctx, app)

	r := chi.NewRouter()
	r.Use(withCorrelation)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/videos", h.HandleVideos)
		r.Get("/thumbnail/{size}/{videoId}", h.HandleThumbnail)
		r.Get("/video/{videoId}", h.HandleVideo)
		r.Get("/mp4/{filename}", h.HandleMP4)
		r.Get("/chat/{videoId}", h.HandleChatTimecodes)
		r.Get("/chat/{videoId}/{start}/{end}", h.HandleChatRange)
		r.Get("/emotes/{type}", h.HandleEmotes)
		r.Get("/emote/*", h.HandleEmote)
		r.With(syncRateLimit(app.Config.SyncRateLimit)).Get("/sync", h.HandleSync)
		r.Get("/health", h.HandleHealth)
	})

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	return withCORS(r)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, app *App, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(ctx, app),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: MP4 passthrough streams for as long as the player reads
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
