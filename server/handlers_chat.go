package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/vod-archive/telemetry"
)

// chatFanout bounds concurrent per-second upstream fetches for one request.
const chatFanout = 16

// HandleChatTimecodes returns the sorted seconds that have chat, or [] when
// the archive has none.
func (h *Handlers) HandleChatTimecodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	seconds, err := h.app.Client.ChatTimecodes(r.Context(), id)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Debug("chat timecodes unavailable", slog.String("video_id", id), slog.Any("err", err))
		seconds = []int{}
	}
	sort.Ints(seconds)
	writeJSON(w, http.StatusOK, seconds)
}

// HandleChatRange merges the chat of every second in [start, end]. Seconds
// that fail to load are skipped.
func (h *Handlers) HandleChatRange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoId")
	start, ok1 := parseSecond(chi.URLParam(r, "start"))
	end, ok2 := parseSecond(chi.URLParam(r, "end"))
	if !ok1 || !ok2 || end < start || end-start >= h.app.Config.ChatMaxRange {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, h.fetchChatRange(r.Context(), id, start, end))
}

func (h *Handlers) fetchChatRange(ctx context.Context, id string, start, end int) []map[string]any {
	perSecond := make([][]map[string]any, end-start+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chatFanout)
	for s := start; s <= end; s++ {
		g.Go(func() error {
			msgs, err := h.app.Client.ChatSecond(gctx, id, s)
			if err != nil {
				telemetry.IncChatFetch("error")
				return nil
			}
			if len(msgs) == 0 {
				telemetry.IncChatFetch("empty")
			} else {
				telemetry.IncChatFetch("ok")
			}
			perSecond[s-start] = msgs
			return nil
		})
	}
	_ = g.Wait()

	out := make([]map[string]any, 0)
	for _, msgs := range perSecond {
		out = append(out, msgs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := numberField(out[i], "video_timestamp"), numberField(out[j], "video_timestamp")
		if vi != vj {
			return vi < vj
		}
		return numberField(out[i], "timestamp") < numberField(out[j], "timestamp")
	})
	return out
}

// numberField reads a numeric JSON value that may also arrive as a string.
func numberField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}
