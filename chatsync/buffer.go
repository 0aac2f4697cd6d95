package chatsync

// DisplayBuffer holds the most recent messages, oldest first.
type DisplayBuffer struct {
	max  int
	msgs []ChatMessage
}

func NewDisplayBuffer(max int) *DisplayBuffer { return &DisplayBuffer{max: max} }

// Append adds batch and evicts from the front beyond the cap. It returns the
// number evicted.
func (b *DisplayBuffer) Append(batch []ChatMessage) int {
	b.msgs = append(b.msgs, batch...)
	over := len(b.msgs) - b.max
	if b.max <= 0 || over <= 0 {
		return 0
	}
	b.msgs = append(b.msgs[:0:0], b.msgs[over:]...)
	return over
}

func (b *DisplayBuffer) Len() int { return len(b.msgs) }

// Snapshot returns a copy of the buffered messages.
func (b *DisplayBuffer) Snapshot() []ChatMessage {
	return append([]ChatMessage(nil), b.msgs...)
}

func (b *DisplayBuffer) Reset() { b.msgs = nil }

// SeenSet remembers message identities in insertion order. When it grows past
// max it keeps only the newest keep entries.
type SeenSet struct {
	max, keep int
	order     []MessageKey
	set       map[MessageKey]struct{}
}

func NewSeenSet(max, keep int) *SeenSet {
	return &SeenSet{max: max, keep: keep, set: make(map[MessageKey]struct{})}
}

func (s *SeenSet) Has(k MessageKey) bool {
	_, ok := s.set[k]
	return ok
}

// Add records k and reports whether it was new.
func (s *SeenSet) Add(k MessageKey) bool {
	if s.Has(k) {
		return false
	}
	s.set[k] = struct{}{}
	s.order = append(s.order, k)
	return true
}

// Trim applies the size cap and returns how many keys were dropped.
func (s *SeenSet) Trim() int {
	if s.max <= 0 || len(s.order) <= s.max {
		return 0
	}
	drop := len(s.order) - s.keep
	for _, k := range s.order[:drop] {
		delete(s.set, k)
	}
	s.order = append(s.order[:0:0], s.order[drop:]...)
	return drop
}

func (s *SeenSet) Len() int { return len(s.order) }

func (s *SeenSet) Reset() {
	s.order = nil
	s.set = make(map[MessageKey]struct{})
}
