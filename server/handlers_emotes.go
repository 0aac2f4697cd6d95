package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/vod-archive/emotes"
	"github.com/onnwee/vod-archive/telemetry"
	"github.com/onnwee/vod-archive/upstream"
)

var emoteNotFound = map[string]string{
	emotes.KindFirstParty: "First-party emotes not found",
	emotes.KindThirdParty: "Third-party emotes not found",
}

// HandleEmotes serves an emote list.
func (h *Handlers) HandleEmotes(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")
	data, err := h.app.Emotes.Get(r.Context(), kind)
	switch {
	case errors.Is(err, emotes.ErrUnknownKind):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Invalid emote type"})
		return
	case errors.Is(err, emotes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: emoteNotFound[kind]})
		return
	case err != nil:
		telemetry.LoggerWithCorr(r.Context()).Error("fetch emotes", slog.String("kind", kind), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch " + kind + " emotes"})
		return
	}
	cacheFor(w, maxAgeEmotes)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleEmote relays an emote image.
func (h *Handlers) HandleEmote(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" || strings.Contains(path, "..") {
		writeText(w, http.StatusNotFound, "Emote not found")
		return
	}
	resp, err := h.app.Client.Emote(r.Context(), path)
	if err != nil {
		if errors.Is(err, upstream.ErrUpstreamStatus) {
			writeText(w, http.StatusNotFound, "Emote not found")
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Error("fetch emote", slog.String("path", path), slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, "Error fetching emote")
		return
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	cacheFor(w, maxAgeEmotes)
	w.WriteHeader(http.StatusOK)
	relay(w, resp.Body, "emote")
}
