package chatsync

import "sort"

// TimecodeIndex is the immutable set of seconds that have chat. A nil index
// means the timecodes have not been loaded; an empty one means no chat.
type TimecodeIndex struct {
	set map[int]struct{}
}

// NewTimecodeIndex builds an index from seconds; duplicates are ignored.
func NewTimecodeIndex(seconds []int) *TimecodeIndex {
	set := make(map[int]struct{}, len(seconds))
	for _, s := range seconds {
		set[s] = struct{}{}
	}
	return &TimecodeIndex{set: set}
}

// Has reports whether second s has chat. A nil index has nothing.
func (i *TimecodeIndex) Has(s int) bool {
	if i == nil {
		return false
	}
	_, ok := i.set[s]
	return ok
}

func (i *TimecodeIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.set)
}

// Seconds returns the indexed seconds in ascending order.
func (i *TimecodeIndex) Seconds() []int {
	if i == nil {
		return nil
	}
	out := make([]int, 0, len(i.set))
	for s := range i.set {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
