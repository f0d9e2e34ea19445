package gallery

import "sync"

// Key is a navigation key name as reported by the browser.
type Key string

const (
	KeyLeft   Key = "ArrowLeft"
	KeyRight  Key = "ArrowRight"
	KeyEnter  Key = "Enter"
	KeySpace  Key = " "
	KeyEscape Key = "Escape"
)

// Target is the clickable part of a card or of the lightbox.
type Target string

const (
	TargetPrev     Target = "prev"
	TargetNext     Target = "next"
	TargetMore     Target = "more"
	TargetImage    Target = "image"
	TargetBackdrop Target = "backdrop"
	TargetStage    Target = "stage"
	TargetFrame    Target = "frame"
)

// KeyBus is the page-level key listener registry. Implementations must
// call listeners without holding their own locks.
type KeyBus interface {
	Subscribe(fn func(Key)) (unsubscribe func())
}

// Keys is an in-process KeyBus.
type Keys struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Key)
}

// NewKeys creates an empty key bus.
func NewKeys() *Keys {
	return &Keys{subs: make(map[int]func(Key))}
}

// Subscribe registers fn; the returned func removes it and is idempotent.
func (k *Keys) Subscribe(fn func(Key)) func() {
	k.mu.Lock()
	id := k.next
	k.next++
	k.subs[id] = fn
	k.mu.Unlock()
	return func() {
		k.mu.Lock()
		delete(k.subs, id)
		k.mu.Unlock()
	}
}

// Len returns the number of registered listeners.
func (k *Keys) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.subs)
}

// Dispatch delivers key to every listener registered at call time.
func (k *Keys) Dispatch(key Key) {
	k.mu.Lock()
	fns := make([]func(Key), 0, len(k.subs))
	for _, fn := range k.subs {
		fns = append(fns, fn)
	}
	k.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}
