package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/vod-archive/catalog"
	"github.com/onnwee/vod-archive/telemetry"
	"github.com/onnwee/vod-archive/upstream"
)

// remoteVideo is how a catalog row looks when served straight from upstream.
type remoteVideo struct {
	ID string `json:"id"`
	catalog.Entry
}

// HandleVideos lists the catalog.
func (h *Handlers) HandleVideos(w http.ResponseWriter, r *http.Request) {
	log := telemetry.LoggerWithCorr(r.Context())
	if h.app.Config.RemoteMode() {
		entries, err := h.app.Catalog.Remote(r.Context())
		if err != nil {
			log.Error("fetch remote catalog", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to load videos"})
			return
		}
		out := make([]remoteVideo, 0, len(entries))
		for _, e := range entries {
			out = append(out, remoteVideo{ID: e.VodID, Entry: e})
		}
		cacheFor(w, maxAgeVideos)
		writeJSON(w, http.StatusOK, out)
		return
	}

	entries, err := h.app.Catalog.Store().List(r.Context())
	if err != nil {
		log.Error("load catalog", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to load videos"})
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	telemetry.SetCatalogSize(len(entries))
	cacheFor(w, maxAgeVideos)
	writeJSON(w, http.StatusOK, entries)
}

// HandleThumbnail relays tn/{size}/{id}.webp.
func (h *Handlers) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	size, id := chi.URLParam(r, "size"), chi.URLParam(r, "videoId")
	resp, err := h.app.Client.Thumbnail(r.Context(), size, id)
	if err != nil {
		if errors.Is(err, upstream.ErrUpstreamStatus) {
			writeText(w, http.StatusNotFound, "Thumbnail not found")
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Error("fetch thumbnail", slog.String("video_id", id), slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, "Error fetching thumbnail")
		return
	}
	defer resp.Body.Close()
	w.Header().Set("Content-Type", "image/webp")
	cacheFor(w, maxAgeThumbnails)
	w.WriteHeader(http.StatusOK)
	relay(w, resp.Body, "thumbnail")
}
