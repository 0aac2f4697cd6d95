package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/onnwee/vod-archive/telemetry"
	"github.com/onnwee/vod-archive/upstream"
)

// DurationSource computes the length in seconds of a video from its manifest.
type DurationSource interface {
	Duration(ctx context.Context, vodID string) (int, error)
}

// Result summarizes one Sync.
type Result struct {
	Added  int  `json:"added"`
	Total  int  `json:"total"`
	Shared bool `json:"shared"` // joined a run started by another caller
}

// Reconciler merges the upstream catalog into a Store.
type Reconciler struct {
	client    *upstream.Client
	store     Store
	durations DurationSource
	now       func() time.Time
	group     singleflight.Group

	// DurationWorkers bounds concurrent manifest fetches for new entries.
	DurationWorkers int
}

func NewReconciler(client *upstream.Client, store Store, durations DurationSource) *Reconciler {
	return &Reconciler{
		client:          client,
		store:           store,
		durations:       durations,
		now:             time.Now,
		DurationWorkers: 4,
	}
}

// Store returns the backing store.
func (r *Reconciler) Store() Store { return r.store }

// Sync adds remote videos missing from the local catalog. Concurrent callers
// share a single run. If the remote catalog cannot be fetched the local one
// is left untouched and the error returned.
func (r *Reconciler) Sync(ctx context.Context) (Result, error) {
	v, err, shared := r.group.Do("sync", func() (any, error) {
		return r.sync(context.WithoutCancel(ctx))
	})
	res, _ := v.(Result)
	res.Shared = shared
	return res, err
}

func (r *Reconciler) sync(ctx context.Context) (res Result, err error) {
	log := slog.Default().With(slog.String("component", "catalog_sync"))
	ctx, span := telemetry.StartSpan(ctx, "catalog", "catalog.sync")
	defer span.End()
	start := r.now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			telemetry.RecordError(span, err)
		} else {
			span.SetAttributes(telemetry.SyncAddedAttr(res.Added))
			telemetry.SetSpanSuccess(span)
		}
		telemetry.ObserveSync(outcome, res.Added, time.Since(start))
		if rec, ok := r.store.(RunRecorder); ok {
			run := Run{StartedAt: start, FinishedAt: r.now(), Added: res.Added, Err: err}
			if rerr := rec.RecordRun(ctx, run); rerr != nil {
				log.Warn("record sync run", slog.Any("err", rerr))
			}
		}
	}()

	local, err := r.store.List(ctx)
	if err != nil {
		return res, fmt.Errorf("load local catalog: %w", err)
	}
	raw, err := r.client.Catalog(ctx)
	if err != nil {
		return Result{Total: len(local)}, fmt.Errorf("fetch remote catalog: %w", err)
	}
	remote, err := NormalizeRemote(raw)
	if err != nil {
		return Result{Total: len(local)}, err
	}

	known := make(map[string]bool, len(local))
	used := make(map[int]bool, len(local))
	for _, e := range local {
		known[e.VodID] = true
		used[e.IndexKey] = true
	}
	var added []Entry
	for _, rv := range remote {
		if known[rv.VodID] {
			continue
		}
		key := rv.Position
		for used[key] {
			key++
		}
		used[key] = true
		known[rv.VodID] = true
		added = append(added, Entry{
			IndexKey:    key,
			VodID:       rv.VodID,
			Title:       rv.Title,
			Description: rv.Description,
			Date:        rv.Date,
		})
		log.Info("new video found", slog.Int("index", key), slog.String("vod_id", rv.VodID), slog.String("title", rv.Title))
	}

	res = Result{Total: len(local) + len(added)}
	if len(added) == 0 {
		log.Info("no new videos found", slog.Int("total", res.Total))
		telemetry.SetCatalogSize(res.Total)
		return res, nil
	}

	r.fillDurations(ctx, added)
	stamp := timestamp(r.now())
	for i := range added {
		added[i].LastUpdated = stamp
	}
	if err := r.store.Add(ctx, added); err != nil {
		return Result{Total: len(local)}, fmt.Errorf("persist catalog: %w", err)
	}
	res.Added = len(added)
	telemetry.SetCatalogSize(res.Total)
	log.Info("catalog updated", slog.Int("added", res.Added), slog.Int("total", res.Total))
	return res, nil
}

// fillDurations looks up each entry's duration; failures leave it nil.
func (r *Reconciler) fillDurations(ctx context.Context, entries []Entry) {
	if r.durations == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	if r.DurationWorkers > 0 {
		g.SetLimit(r.DurationWorkers)
	}
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			d, err := r.durations.Duration(gctx, e.VodID)
			if err != nil {
				slog.Warn("duration unavailable", slog.String("vod_id", e.VodID), slog.Any("err", err))
				return nil
			}
			e.Duration = &d
			return nil
		})
	}
	_ = g.Wait()
}

// Remote fetches the upstream catalog without touching the store.
func (r *Reconciler) Remote(ctx context.Context) ([]Entry, error) {
	raw, err := r.client.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	rows, err := NormalizeRemote(raw)
	if err != nil {
		return nil, err
	}
	return RemoteEntries(rows), nil
}
