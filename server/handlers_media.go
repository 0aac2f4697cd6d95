package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/vod-archive/media"
	"github.com/onnwee/vod-archive/telemetry"
)

// HandleVideo serves the rewritten HLS manifest.
func (h *Handlers) HandleVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	playlist, err := h.app.Proxy.GetPlaylist(r.Context(), id)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			writeText(w, http.StatusNotFound, "Video not found")
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Error("fetch playlist", slog.String("video_id", id), slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, "Error fetching video")
		return
	}
	w.Header().Set("Content-Type", "application/x-mpegURL")
	cacheFor(w, maxAgePlaylist)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, playlist)
}

// HandleMP4 relays an MP4 fragment, honoring Range.
func (h *Handlers) HandleMP4(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	seg, err := h.app.Proxy.GetSegment(r.Context(), name, r.Header.Get("Range"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			writeText(w, http.StatusNotFound, "MP4 not found")
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Error("fetch mp4", slog.String("file", name), slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, "Error fetching MP4")
		return
	}
	defer seg.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", "video/mp4")
	if seg.AcceptRanges != "" {
		hdr.Set("Accept-Ranges", seg.AcceptRanges)
	}
	if seg.ContentRange != "" {
		hdr.Set("Content-Range", seg.ContentRange)
	}
	if seg.ContentLength >= 0 {
		hdr.Set("Content-Length", strconv.FormatInt(seg.ContentLength, 10))
	}
	cacheFor(w, maxAgeMP4)
	w.WriteHeader(seg.Status)
	if r.Method == http.MethodHead {
		return
	}
	relay(w, seg.Body, "mp4")
}
