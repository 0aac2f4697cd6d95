package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/vod-archive/telemetry"
)

// HandleSync triggers catalog reconciliation and a cheers refresh. Concurrent
// triggers share one run.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Minute)
	defer cancel()
	log := telemetry.LoggerWithCorr(r.Context())
	log.Info("manual sync triggered")
	res, err := h.app.SyncAll(ctx)
	if err != nil {
		log.Error("manual sync failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Sync failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Sync completed - updated metadata and cheers data",
		"added":   res.Added,
		"total":   res.Total,
	})
}

// HandleHealth reports liveness and process uptime.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": isoNow(),
		"uptime":    time.Since(h.app.Started).Seconds(),
	})
}
