package playback

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/onnwee/vod-archive/kvstore"
)

// PreferenceKeyPrefix namespaces chat UI preferences in the backing store.
const PreferenceKeyPrefix = "chat_"

// Preference names.
const (
	PrefChatOpen        = "chatOpen"
	PrefChatSidebarMode = "chatSidebarMode"
	PrefChatSize        = "chatSize"
)

// ChatPreferences is the chat panel state restored on startup.
type ChatPreferences struct {
	Open        bool   `json:"chatOpen"`
	SidebarMode bool   `json:"chatSidebarMode"`
	Size        string `json:"chatSize"`
}

// DefaultChatPreferences is what a fresh install starts with.
func DefaultChatPreferences() ChatPreferences {
	return ChatPreferences{Size: "30"}
}

// Preferences reads and writes JSON-encoded preference values.
type Preferences struct {
	kv     kvstore.Store
	logger *slog.Logger
}

func NewPreferences(kv kvstore.Store) *Preferences {
	return &Preferences{kv: kv, logger: slog.Default().With(slog.String("component", "preferences"))}
}

// Save stores value under name. Failures are logged.
func (p *Preferences) Save(ctx context.Context, name string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		p.logger.Warn("encode preference", slog.String("name", name), slog.Any("err", err))
		return
	}
	if err := p.kv.Set(ctx, PreferenceKeyPrefix+name, data); err != nil {
		p.logger.Warn("save preference", slog.String("name", name), slog.Any("err", err))
	}
}

func loadPref[T any](ctx context.Context, p *Preferences, name string, def T) T {
	data, err := p.kv.Get(ctx, PreferenceKeyPrefix+name)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			p.logger.Warn("load preference", slog.String("name", name), slog.Any("err", err))
		}
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		p.logger.Debug("corrupt preference, using default", slog.String("name", name), slog.Any("err", err))
		return def
	}
	return v
}

// Bool loads a boolean preference, returning def when missing or corrupt.
func (p *Preferences) Bool(ctx context.Context, name string, def bool) bool {
	return loadPref(ctx, p, name, def)
}

// String loads a string preference, returning def when missing or corrupt.
func (p *Preferences) String(ctx context.Context, name, def string) string {
	return loadPref(ctx, p, name, def)
}

// Chat loads the chat panel preferences.
func (p *Preferences) Chat(ctx context.Context) ChatPreferences {
	def := DefaultChatPreferences()
	return ChatPreferences{
		Open:        p.Bool(ctx, PrefChatOpen, def.Open),
		SidebarMode: p.Bool(ctx, PrefChatSidebarMode, def.SidebarMode),
		Size:        p.String(ctx, PrefChatSize, def.Size),
	}
}

// SaveChat stores all chat panel preferences.
func (p *Preferences) SaveChat(ctx context.Context, c ChatPreferences) {
	p.Save(ctx, PrefChatOpen, c.Open)
	p.Save(ctx, PrefChatSidebarMode, c.SidebarMode)
	p.Save(ctx, PrefChatSize, c.Size)
}
