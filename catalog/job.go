package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Hook runs after every scheduled sync, successful or not.
type Hook func(ctx context.Context)

// StartSyncJob syncs once immediately and then every interval until ctx is
// done. It blocks; run it in a goroutine.
func StartSyncJob(ctx context.Context, rec *Reconciler, interval time.Duration, hooks ...Hook) {
	if interval <= 0 {
		interval = time.Hour
	}
	log := slog.Default().With(slog.String("component", "catalog_sync"))
	log.Info("catalog sync job starting", slog.Duration("interval", interval))
	run := func() {
		if _, err := rec.Sync(ctx); err != nil {
			log.Warn("catalog sync", slog.Any("err", err))
		}
		for _, h := range hooks {
			h(ctx)
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	run()
	for {
		select {
		case <-ctx.Done():
			log.Info("catalog sync job stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
