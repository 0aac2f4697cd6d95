package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/onnwee/vod-archive/chatsync"
)

// printer is a chat overlay that writes each message once.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	printed map[chatsync.MessageKey]struct{}
	limit   int
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, printed: make(map[chatsync.MessageKey]struct{}), limit: 1000}
}

func (p *printer) Active() bool { return true }

func (p *printer) Render(msgs []chatsync.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.printed) > p.limit {
		p.printed = make(map[chatsync.MessageKey]struct{})
	}
	for _, m := range msgs {
		k := chatsync.KeyOf(m)
		if _, ok := p.printed[k]; ok {
			continue
		}
		p.printed[k] = struct{}{}
		fmt.Fprintf(p.w, "[%s] %s: %s\n", clock(m.VideoTimestamp), m.Author, m.Body)
	}
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
