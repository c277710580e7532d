package transcript

import "sort"

// Timeline is the ordered sequence of items of one session.
type Timeline struct {
	items []Item
	keys  map[string]struct{}
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{keys: make(map[string]struct{})}
}

// Insert places item at the first index whose existing item is not less than
// it and returns that index. Items whose key is already present are rejected;
// updates must go through the caller's patch path instead.
func (t *Timeline) Insert(item Item) (int, bool) {
	if _, ok := t.keys[item.Key]; ok {
		return -1, false
	}
	pos := sort.Search(len(t.items), func(i int) bool {
		return Compare(t.items[i], item) >= 0
	})
	t.items = append(t.items, Item{})
	copy(t.items[pos+1:], t.items[pos:])
	t.items[pos] = item
	t.keys[item.Key] = struct{}{}
	return pos, true
}

// Contains reports whether key is in the timeline.
func (t *Timeline) Contains(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// At returns the item at index i.
func (t *Timeline) At(i int) (Item, bool) {
	if i < 0 || i >= len(t.items) {
		return Item{}, false
	}
	return t.items[i], true
}

// Len returns the number of items.
func (t *Timeline) Len() int {
	return len(t.items)
}

// Keys returns the row keys in timeline order.
func (t *Timeline) Keys() []string {
	keys := make([]string, len(t.items))
	for i, it := range t.items {
		keys[i] = it.Key
	}
	return keys
}

// Items returns a copy of the ordered items.
func (t *Timeline) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Reset removes every item.
func (t *Timeline) Reset() {
	t.items = nil
	t.keys = make(map[string]struct{})
}
