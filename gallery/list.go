// Package gallery implements the card preview ("mini-gallery") and the
// page-wide lightbox on top of a Surface, the abstract image element a
// front end renders.
package gallery

import (
	"sync"

	"github.com/eringen/pubgallery/discovery"
)

// List is the ordered asset sequence shared by a card and the lightbox.
// Every holder keeps the same pointer; Replace updates it in place so
// the lightbox sees a card's full list on its next navigation.
type List struct {
	mu     sync.RWMutex
	items  []discovery.Pair
	paired bool
}

// NewList creates a list of plain assets.
func NewList(refs ...discovery.AssetRef) *List {
	return &List{items: discovery.Singles(refs)}
}

// NewPairList creates a list of low/high pairs.
func NewPairList(pairs ...discovery.Pair) *List {
	return &List{items: append([]discovery.Pair(nil), pairs...), paired: true}
}

// Len returns the current length.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Paired reports whether entries carry quality variants.
func (l *List) Paired() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paired
}

// At returns entry i without wrapping.
func (l *List) At(i int) (discovery.Pair, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		return discovery.Pair{}, false
	}
	return l.items[i], true
}

// replace swaps contents in place and returns the new length.
func (l *List) replace(items []discovery.Pair) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items[:0:0], items...)
	return len(l.items)
}

// Wrap maps any integer index, negative included, into [0, n).
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
