// Package chatsync replays archived chat in step with video playback.
package chatsync

import (
	"encoding/json"
	"math"
	"strconv"
)

// ChatMessage is one archived chat line.
type ChatMessage struct {
	VideoTimestamp    int
	OriginalTimestamp float64
	Author            string
	Body              string
	Color             string
	Fragments         []Fragment
	Badges            []Badge
}

type Fragment struct {
	Text     string    `json:"text"`
	Emoticon *Emoticon `json:"emoticon,omitempty"`
}

type Emoticon struct {
	EmoticonID string `json:"emoticon_id"`
}

type Badge struct {
	ID      string `json:"_id"`
	Version string `json:"version"`
}

// wireMessage is the archive's JSON shape.
type wireMessage struct {
	VideoTimestamp json.RawMessage `json:"video_timestamp"`
	Timestamp      json.RawMessage `json:"timestamp"`
	Body           string          `json:"body,omitempty"`
	Commenter      *struct {
		DisplayName string `json:"display_name"`
	} `json:"commenter,omitempty"`
	Message *struct {
		Body        string     `json:"body"`
		DisplayName string     `json:"display_name,omitempty"`
		Fragments   []Fragment `json:"fragments,omitempty"`
		UserBadges  []Badge    `json:"user_badges,omitempty"`
		UserColor   string     `json:"user_color,omitempty"`
	} `json:"message,omitempty"`
}

// UnknownAuthor is used when a message carries no display name.
const UnknownAuthor = "unknown"

// UnmarshalJSON decodes the archive format. Timestamps may be numbers or
// numeric strings; anything else decodes as zero.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = ChatMessage{
		VideoTimestamp:    int(math.Floor(number(w.VideoTimestamp))),
		OriginalTimestamp: number(w.Timestamp),
		Body:              w.Body,
	}
	if w.Commenter != nil {
		m.Author = w.Commenter.DisplayName
	}
	if w.Message != nil {
		if w.Message.Body != "" {
			m.Body = w.Message.Body
		}
		if m.Author == "" {
			m.Author = w.Message.DisplayName
		}
		m.Fragments = w.Message.Fragments
		m.Badges = w.Message.UserBadges
		m.Color = w.Message.UserColor
	}
	if m.Author == "" {
		m.Author = UnknownAuthor
	}
	return nil
}

// MarshalJSON writes the archive format back out.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type commenter struct {
		DisplayName string `json:"display_name"`
	}
	type message struct {
		Body       string     `json:"body"`
		Fragments  []Fragment `json:"fragments,omitempty"`
		UserBadges []Badge    `json:"user_badges,omitempty"`
		UserColor  string     `json:"user_color,omitempty"`
	}
	return json.Marshal(struct {
		VideoTimestamp int       `json:"video_timestamp"`
		Timestamp      float64   `json:"timestamp"`
		Commenter      commenter `json:"commenter"`
		Message        message   `json:"message"`
	}{
		VideoTimestamp: m.VideoTimestamp,
		Timestamp:      m.OriginalTimestamp,
		Commenter:      commenter{DisplayName: m.Author},
		Message:        message{Body: m.Body, Fragments: m.Fragments, UserBadges: m.Badges, UserColor: m.Color},
	})
}

func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}
