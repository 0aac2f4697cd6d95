package server

import (
	"context"
	"time"

	"github.com/onnwee/vod-archive/catalog"
	"github.com/onnwee/vod-archive/config"
	"github.com/onnwee/vod-archive/emotes"
	"github.com/onnwee/vod-archive/media"
	"github.com/onnwee/vod-archive/upstream"
)

// App is the process-scoped state shared by all handlers. It is built once in
// main and owns the emote cache whose refresh is tied to catalog sync.
type App struct {
	Config  *config.Config
	Client  *upstream.Client
	Proxy   *media.Proxy
	Catalog *catalog.Reconciler
	Emotes  *emotes.Cache
	Started time.Time
}

// NewApp wires the upstream client, media proxy, reconciler and emote cache
// around store.
func NewApp(cfg *config.Config, store catalog.Store) *App {
	client := upstream.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	proxy := media.NewProxy(client)
	return &App{
		Config:  cfg,
		Client:  client,
		Proxy:   proxy,
		Catalog: catalog.NewReconciler(client, store, proxy),
		Emotes:  emotes.NewCache(client),
		Started: time.Now(),
	}
}

// SyncAll reconciles the catalog (unless serving the remote catalog directly)
// and then refreshes cheers.
func (a *App) SyncAll(ctx context.Context) (catalog.Result, error) {
	var (
		res catalog.Result
		err error
	)
	if !a.Config.RemoteMode() {
		res, err = a.Catalog.Sync(ctx)
	}
	_ = a.Emotes.Refresh(ctx)
	return res, err
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	app *App
	ctx context.Context
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, app *App) *Handlers {
	return &Handlers{app: app, ctx: ctx}
}
