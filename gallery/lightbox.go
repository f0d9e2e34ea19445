package gallery

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eringen/pubgallery/discovery"
)

// LightboxOptions configure a Lightbox.
type LightboxOptions struct {
	Fade   FadeOptions
	Prober discovery.Prober
	Log    discovery.Logger
	// Context bounds the lightbox's lifetime; see Teardown.
	Context context.Context
}

// Lightbox is the page-wide overlay. Only one gallery is open at a time;
// Open while open re-binds to the new list.
type Lightbox struct {
	surface LightboxSurface
	keys    KeyBus
	opts    LightboxOptions
	ctx     context.Context
	tr      transitions

	// session serializes open/close cycles and key listener changes.
	session  sync.Mutex
	unsubNav func()
	unsubEsc func()

	mu    sync.Mutex
	open  bool
	list  *List
	index int
}

// NewLightbox creates the overlay and registers its Escape listener.
func NewLightbox(surface LightboxSurface, keys KeyBus, opts LightboxOptions) *Lightbox {
	if opts.Fade == (FadeOptions{}) {
		opts.Fade = LightboxFade
	}
	if opts.Log == nil {
		opts.Log = discovery.Nop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	l := &Lightbox{surface: surface, keys: keys, opts: opts, ctx: ctx}
	l.unsubEsc = keys.Subscribe(func(k Key) {
		if k == KeyEscape && l.IsOpen() {
			l.Close()
		}
	})
	return l
}

// Open shows list at start. A navigation key listener left over from a
// previous session is detached before the new one is attached.
func (l *Lightbox) Open(list *List, start int) {
	l.session.Lock()
	defer l.session.Unlock()

	if l.unsubNav != nil {
		l.unsubNav()
		l.unsubNav = nil
	}
	l.tr.stop()
	l.mu.Lock()
	l.open = true
	l.list = list
	l.index = start
	l.mu.Unlock()

	l.tr.do(l.ctx, func() { l.surface.SetOpen(true) })
	l.Show(start)
	l.unsubNav = l.keys.Subscribe(l.onNavKey)
	l.opts.Log.Debugf("gallery: lightbox open at %d/%d", Wrap(start, list.Len())+1, list.Len())
}

// Close hides the overlay and detaches this session's navigation listener.
func (l *Lightbox) Close() {
	l.session.Lock()
	defer l.session.Unlock()

	l.mu.Lock()
	wasOpen := l.open
	l.open = false
	l.mu.Unlock()
	if !wasOpen {
		return
	}
	l.tr.stop()
	l.tr.do(l.ctx, func() { l.surface.SetOpen(false) })
	if l.unsubNav != nil {
		l.unsubNav()
		l.unsubNav = nil
	}
}

// Teardown closes the overlay and removes the Escape listener. The
// lightbox must not be used afterwards.
func (l *Lightbox) Teardown() {
	l.Close()
	l.session.Lock()
	defer l.session.Unlock()
	if l.unsubEsc != nil {
		l.unsubEsc()
		l.unsubEsc = nil
	}
}

// IsOpen reports whether a session is active.
func (l *Lightbox) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Index returns the cursor.
func (l *Lightbox) Index() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index
}

// List returns the list of the current session.
func (l *Lightbox) List() *List {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list
}

// Show moves to i modulo the current list length. The length is re-read
// on every call so replacements made by the owning card are picked up.
func (l *Lightbox) Show(i int) {
	l.mu.Lock()
	if !l.open || l.list == nil {
		l.mu.Unlock()
		return
	}
	list := l.list
	n := list.Len()
	if n == 0 {
		l.mu.Unlock()
		return
	}
	l.index = Wrap(i, n)
	idx := l.index
	l.mu.Unlock()

	pair, _ := list.At(idx)
	paired := list.Paired()
	l.tr.start(l.ctx, func(ctx context.Context) {
		if !l.tr.do(ctx, func() { l.surface.SetOpacity(l.opts.Fade.Opacity) }) {
			return
		}
		src := pair.Low
		if paired && pair.High != "" {
			src = l.preferHigh(ctx, pair)
		}
		if err := sleep(ctx, l.opts.Fade.Delay); err != nil {
			return
		}
		if !l.tr.do(ctx, func() { l.surface.SetPage(idx+1, n) }) {
			return
		}
		if err := l.tr.swap(ctx, l.surface, string(src)); err != nil && ctx.Err() == nil {
			l.opts.Log.Debugf("gallery: lightbox load %s failed: %v", src, err)
		}
	})
}

// preferHigh probes the high variant, falling back to low.
func (l *Lightbox) preferHigh(ctx context.Context, p discovery.Pair) discovery.AssetRef {
	if l.opts.Prober == nil {
		return p.High
	}
	if ref, ok := l.opts.Prober.Probe(ctx, string(p.High)); ok {
		return ref
	}
	return p.Low
}

// Next advances by one, wrapping.
func (l *Lightbox) Next() { l.Show(l.Index() + 1) }

// Prev moves back by one, wrapping.
func (l *Lightbox) Prev() { l.Show(l.Index() - 1) }

func (l *Lightbox) onNavKey(k Key) {
	switch k {
	case KeyRight:
		l.Next()
	case KeyLeft:
		l.Prev()
	}
}

// HandleClick routes a click inside the overlay. Clicks on the frame are
// swallowed so only the backdrop and stage close it.
func (l *Lightbox) HandleClick(t Target) {
	if !l.IsOpen() {
		return
	}
	switch t {
	case TargetBackdrop, TargetStage:
		l.Close()
	case TargetPrev:
		l.Prev()
	case TargetNext:
		l.Next()
	}
}

// Idle blocks until no transition is running.
func (l *Lightbox) Idle() {
	l.tr.wait()
}

// LazyLightbox builds the lightbox on first use and reuses it.
type LazyLightbox struct {
	once  sync.Once
	build func() *Lightbox
	lb    atomic.Pointer[Lightbox]
}

// NewLazyLightbox defers build until the first Open or Get.
func NewLazyLightbox(build func() *Lightbox) *LazyLightbox {
	return &LazyLightbox{build: build}
}

// Get returns the lightbox, constructing it if needed.
func (z *LazyLightbox) Get() *Lightbox {
	z.once.Do(func() { z.lb.Store(z.build()) })
	return z.lb.Load()
}

// Built returns the lightbox if it has been constructed.
func (z *LazyLightbox) Built() (*Lightbox, bool) {
	lb := z.lb.Load()
	return lb, lb != nil
}

// Open opens the shared lightbox.
func (z *LazyLightbox) Open(list *List, start int) {
	z.Get().Open(list, start)
}
