package gallery

import (
	"context"
	"sync"

	"github.com/eringen/pubgallery/discovery"
)

// Opener opens the lightbox on a list. *LazyLightbox and *Lightbox
// implement it.
type Opener interface {
	Open(list *List, start int)
}

// MiniOptions configure a MiniGallery.
type MiniOptions struct {
	Fade FadeOptions
	// Prober confirms high-quality variants before promoting to them.
	Prober discovery.Prober
	// Lightbox receives "see more" clicks. Optional.
	Lightbox Opener
	Log      discovery.Logger
	// Context bounds every transition; cancel it when the card goes away.
	Context context.Context
}

// MiniGallery drives one card's preview image.
type MiniGallery struct {
	list    *List
	surface Surface
	opts    MiniOptions
	ctx     context.Context
	tr      transitions

	mu      sync.Mutex
	index   int
	shown   int
	quality Quality
	painted bool
}

// NewMiniGallery binds list to surface and paints index 0 immediately.
func NewMiniGallery(list *List, surface Surface, opts MiniOptions) *MiniGallery {
	if opts.Fade == (FadeOptions{}) {
		opts.Fade = CardFade
	}
	if opts.Log == nil {
		opts.Log = discovery.Nop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	g := &MiniGallery{list: list, surface: surface, opts: opts, ctx: ctx}
	g.Show(0, true)
	return g
}

// List returns the shared list.
func (g *MiniGallery) List() *List {
	return g.list
}

// Index returns the cursor.
func (g *MiniGallery) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Displayed returns the index and quality last painted on the surface.
func (g *MiniGallery) Displayed() (index int, q Quality, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shown, g.quality, g.painted
}

// Show moves the cursor to i modulo the list length and displays it.
// immediate skips the cross-fade.
func (g *MiniGallery) Show(i int, immediate bool) {
	n := g.list.Len()
	if n == 0 {
		return
	}
	g.mu.Lock()
	g.index = Wrap(i, n)
	idx := g.index
	pair, _ := g.list.At(idx)
	keepHigh := g.painted && g.shown == idx && g.quality == QualityHigh && pair.High != ""
	g.mu.Unlock()

	paired := g.list.Paired()
	g.tr.start(g.ctx, func(ctx context.Context) {
		if keepHigh {
			g.paint(ctx, idx, pair.High, QualityHigh, immediate)
			return
		}
		q := QualityLow
		if !paired || pair.High == pair.Low {
			q = QualityHigh
		}
		if !g.paint(ctx, idx, pair.Low, q, immediate) {
			return
		}
		if q == QualityHigh || pair.High == "" {
			return
		}
		g.upgrade(ctx, idx, pair.High)
	})
}

func (g *MiniGallery) paint(ctx context.Context, idx int, src discovery.AssetRef, q Quality, immediate bool) bool {
	var err error
	if immediate {
		err = g.tr.swap(ctx, g.surface, string(src))
	} else {
		err = g.tr.crossFade(ctx, g.surface, string(src), g.opts.Fade)
	}
	if err != nil {
		if ctx.Err() == nil {
			g.opts.Log.Debugf("gallery: load %s failed: %v", src, err)
		}
		return false
	}
	g.mu.Lock()
	g.shown, g.quality, g.painted = idx, q, true
	g.mu.Unlock()
	return true
}

// upgrade probes the high variant in the background and cross-fades to it
// when it resolves. Navigation is not re-triggered.
func (g *MiniGallery) upgrade(ctx context.Context, idx int, high discovery.AssetRef) {
	if g.opts.Prober != nil {
		if _, ok := g.opts.Prober.Probe(ctx, string(high)); !ok {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	g.paint(ctx, idx, high, QualityHigh, false)
}

// Next advances the cursor by one, wrapping.
func (g *MiniGallery) Next() { g.Show(g.Index()+1, false) }

// Prev moves the cursor back by one, wrapping.
func (g *MiniGallery) Prev() { g.Show(g.Index()-1, false) }

// ReplaceImages swaps the list contents for refs in place, clamps the
// cursor and repaints it without a fade. An empty replacement is ignored.
func (g *MiniGallery) ReplaceImages(refs []discovery.AssetRef) {
	g.replace(discovery.Singles(refs))
}

// ReplacePairs is ReplaceImages for pair lists.
func (g *MiniGallery) ReplacePairs(pairs []discovery.Pair) {
	g.replace(pairs)
}

func (g *MiniGallery) replace(items []discovery.Pair) {
	if len(items) == 0 {
		return
	}
	n := g.list.replace(items)
	g.mu.Lock()
	g.index = min(g.index, n-1)
	idx := g.index
	g.mu.Unlock()
	g.Show(idx, true)
}

// OpenLightbox opens the lightbox at the cursor with this card's list.
func (g *MiniGallery) OpenLightbox() {
	if g.opts.Lightbox == nil {
		return
	}
	g.opts.Lightbox.Open(g.list, g.Index())
}

// HandleClick routes a click on the card.
func (g *MiniGallery) HandleClick(t Target) {
	switch t {
	case TargetPrev:
		g.Prev()
	case TargetNext:
		g.Next()
	case TargetMore, TargetImage:
		g.OpenLightbox()
	}
}

// HandleKey routes a key pressed while the card has focus.
func (g *MiniGallery) HandleKey(k Key) {
	switch k {
	case KeyRight:
		g.Next()
	case KeyLeft:
		g.Prev()
	case KeyEnter, KeySpace:
		g.OpenLightbox()
	}
}

// Idle blocks until no transition is running.
func (g *MiniGallery) Idle() {
	g.tr.wait()
}

// Stop cancels the running transition.
func (g *MiniGallery) Stop() {
	g.tr.stop()
}
