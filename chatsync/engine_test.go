package chatsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

type fakeFetcher struct {
	mu    sync.Mutex
	bySec map[int][]ChatMessage
	calls []int
	gate  chan struct{} // when set, fetches block until closed
}

func (f *fakeFetcher) FetchRange(ctx context.Context, _ string, start, _ int) []ChatMessage {
	f.mu.Lock()
	f.calls = append(f.calls, start)
	gate := f.gate
	msgs := f.bySec[start]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil
		}
	}
	return msgs
}

func (f *fakeFetcher) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

type fakeOverlay struct {
	mu       sync.Mutex
	active   bool
	rendered [][]ChatMessage
}

func (o *fakeOverlay) Active() bool { o.mu.Lock(); defer o.mu.Unlock(); return o.active }
func (o *fakeOverlay) Render(m []ChatMessage) {
	o.mu.Lock()
	o.rendered = append(o.rendered, m)
	o.mu.Unlock()
}

func msg(sec int, ts float64, author, body string) ChatMessage {
	return ChatMessage{VideoTimestamp: sec, OriginalTimestamp: ts, Author: author, Body: body}
}

func newEngine(t *testing.T, f Fetcher, o Overlay, seconds ...int) *Engine {
	t.Helper()
	e := NewEngine(f, o, DefaultConfig())
	t.Cleanup(e.Close)
	e.Load("v1", NewTimecodeIndex(seconds))
	e.OnPlay()
	return e
}

func bodies(msgs []ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}

func TestTimeUpdateFetchesIndexedSeconds(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{
		10: {msg(10, 10.5, "b", "second"), msg(10, 10.1, "a", "first")},
	}}
	e := newEngine(t, f, nil, 10)

	for _, s := range []float64{9.2, 9.9, 10.0, 10.4, 10.9, 11.1} {
		e.OnTimeUpdate(s)
	}
	e.Wait()

	if diff := cmp.Diff([]int{10}, f.Calls()); diff != "" {
		t.Errorf("fetch calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "second"}, bodies(e.Messages())); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}
}

func TestTimeUpdateIgnoredBeforePlayAndAtZero(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{0: {msg(0, 0, "a", "x")}, 3: {msg(3, 3, "a", "y")}}}
	e := NewEngine(f, nil, DefaultConfig())
	t.Cleanup(e.Close)
	e.Load("v1", NewTimecodeIndex([]int{0, 3}))

	e.OnTimeUpdate(3.5) // not started
	e.OnPlay()
	e.OnTimeUpdate(0)
	e.OnTimeUpdate(-1)
	e.Wait()
	if calls := f.Calls(); len(calls) != 0 {
		t.Errorf("unexpected fetches: %v", calls)
	}
}

func TestUnloadedIndexFetchesNothing(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{5: {msg(5, 5, "a", "x")}}}
	e := NewEngine(f, nil, DefaultConfig())
	t.Cleanup(e.Close)
	e.Load("v1", nil)
	e.OnPlay()
	e.OnTimeUpdate(5)
	e.Wait()
	if e.IndexLoaded() || len(f.Calls()) != 0 {
		t.Fatal("fetched without timecodes")
	}
	e.SetIndex("v1", NewTimecodeIndex([]int{6}))
	e.OnTimeUpdate(6)
	e.Wait()
	if diff := cmp.Diff([]int{6}, f.Calls()); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestDuplicatesAcrossBatchesDropped(t *testing.T) {
	dup := msg(20, 20.2, "viewer", "hello")
	f := &fakeFetcher{bySec: map[int][]ChatMessage{
		20: {dup},
		21: {dup, msg(21, 21.0, "viewer", "again")},
	}}
	e := newEngine(t, f, nil, 20, 21)
	e.OnTimeUpdate(20)
	e.Wait()
	e.OnTimeUpdate(21)
	e.Wait()
	if diff := cmp.Diff([]string{"hello", "again"}, bodies(e.Messages())); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}
}

func TestDisplayCapAndSeenTrim(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{}}
	var seconds []int
	for s := 1; s <= 60; s++ {
		var batch []ChatMessage
		for i := 0; i < 4; i++ {
			batch = append(batch, msg(s, float64(s), fmt.Sprintf("u%d", i), fmt.Sprintf("m%d-%d", s, i)))
		}
		f.bySec[s] = batch
		seconds = append(seconds, s)
	}
	e := newEngine(t, f, nil, seconds...)
	for s := 1; s <= 60; s++ {
		e.OnTimeUpdate(float64(s))
		e.Wait()
		if n := len(e.Messages()); n > 50 {
			t.Fatalf("buffer length %d exceeds cap at second %d", n, s)
		}
		if n := e.SeenLen(); n > 200 {
			t.Fatalf("seen-set length %d exceeds cap at second %d", n, s)
		}
	}
	got := e.Messages()
	if len(got) != 50 {
		t.Fatalf("buffer length = %d, want 50", len(got))
	}
	if last := got[len(got)-1].Body; last != "m60-3" {
		t.Errorf("newest message = %q, want m60-3", last)
	}
}

func TestSeekClearsAndLoadsLandedSecond(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{
		10:  {msg(10, 10, "a", "early")},
		500: {msg(500, 500, "b", "late")},
	}}
	o := &fakeOverlay{active: true}
	e := newEngine(t, f, o, 10, 500)
	e.OnTimeUpdate(10)
	e.Wait()
	e.OnSeeked(500.7)
	e.Wait()
	if diff := cmp.Diff([]string{"late"}, bodies(e.Messages())); diff != "" {
		t.Errorf("messages after seek (-want +got):\n%s", diff)
	}
	// a seek back re-shows messages that were seen before the seek
	e.OnSeeked(10.2)
	e.Wait()
	if diff := cmp.Diff([]string{"early"}, bodies(e.Messages())); diff != "" {
		t.Errorf("messages after seek back (-want +got):\n%s", diff)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.rendered) == 0 || len(o.rendered[len(o.rendered)-1]) != 1 {
		t.Errorf("overlay not mirrored: %v", o.rendered)
	}
}

func TestOverlayInactiveNotRendered(t *testing.T) {
	f := &fakeFetcher{bySec: map[int][]ChatMessage{1: {msg(1, 1, "a", "x")}}}
	o := &fakeOverlay{}
	e := newEngine(t, f, o, 1)
	e.OnTimeUpdate(1.5)
	e.Wait()
	if len(o.rendered) != 0 {
		t.Error("rendered into inactive overlay")
	}
}

func TestVideoSwitchDropsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	gate := make(chan struct{})
	f := &fakeFetcher{gate: gate, bySec: map[int][]ChatMessage{7: {msg(7, 7, "a", "old video")}}}
	e := NewEngine(f, nil, DefaultConfig())
	e.Load("old", NewTimecodeIndex([]int{7}))
	e.OnPlay()
	e.OnTimeUpdate(7)

	e.Load("new", NewTimecodeIndex(nil))
	close(gate)
	e.Wait()
	if got := e.Messages(); len(got) != 0 {
		t.Errorf("stale batch applied after switch: %v", bodies(got))
	}
	e.Close()
}

func TestCloseCancelsBlockedFetch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &fakeFetcher{gate: make(chan struct{}), bySec: map[int][]ChatMessage{3: {msg(3, 3, "a", "x")}}}
	e := NewEngine(f, nil, DefaultConfig())
	e.Load("v", NewTimecodeIndex([]int{3}))
	e.OnPlay()
	e.OnTimeUpdate(3)
	e.Close()
}

func TestKeyOfTruncatesBody(t *testing.T) {
	long := strings.Repeat("ä", KeyBodyRunes) + "XYZ"
	a := KeyOf(ChatMessage{VideoTimestamp: 1, Author: "x", Body: long})
	b := KeyOf(ChatMessage{VideoTimestamp: 1, Author: "x", Body: long[:len(long)-1]})
	if a != b {
		t.Errorf("keys differ past the prefix: %+v vs %+v", a, b)
	}
	if got := len([]rune(a.BodyPrefix)); got != KeyBodyRunes {
		t.Errorf("prefix runes = %d", got)
	}
	if KeyOf(ChatMessage{}).Author != UnknownAuthor {
		t.Error("empty author not normalized")
	}
}

func TestTimecodeIndex(t *testing.T) {
	var nilIdx *TimecodeIndex
	if nilIdx.Has(1) || nilIdx.Len() != 0 || nilIdx.Seconds() != nil {
		t.Error("nil index should be empty")
	}
	idx := NewTimecodeIndex([]int{5, 1, 5, 3})
	if diff := cmp.Diff([]int{1, 3, 5}, idx.Seconds()); diff != "" {
		t.Errorf("Seconds (-want +got):\n%s", diff)
	}
	if !idx.Has(3) || idx.Has(2) {
		t.Error("Has mismatch")
	}
}
