package gallery

import (
	"context"
	"sync"
	"time"
)

// Surface is one displayed image element.
type Surface interface {
	// SetOpacity sets the element opacity in [0, 1].
	SetOpacity(v float64)
	// SetSource swaps the displayed resource and blocks until it has
	// loaded (nil) or failed. It returns ctx.Err() if ctx ends first.
	SetSource(ctx context.Context, src string) error
}

// LightboxSurface is the overlay's image element plus its chrome.
type LightboxSurface interface {
	Surface
	SetOpen(open bool)
	SetPage(current, total int)
}

// Quality is the variant currently displayed for an index.
type Quality int

const (
	QualityLow Quality = iota
	QualityHigh
)

func (q Quality) String() string {
	if q == QualityHigh {
		return "high"
	}
	return "low"
}

// FadeOptions configure a cross-fade. Opacity stays above zero so the
// swap never flashes to black.
type FadeOptions struct {
	Opacity float64
	Delay   time.Duration
}

// Default fades for cards and the lightbox.
var (
	CardFade     = FadeOptions{Opacity: 0.45, Delay: 140 * time.Millisecond}
	LightboxFade = FadeOptions{Opacity: 0.45, Delay: 100 * time.Millisecond}
)

// transitions runs one display transition at a time per surface. Starting
// a new transition cancels the previous one; surface writes are
// serialized and skipped once their transition is cancelled.
type transitions struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	write   sync.Mutex
	idle    *sync.Cond // on mu, created lazily
	running int
}

func (t *transitions) cond() *sync.Cond {
	if t.idle == nil {
		t.idle = sync.NewCond(&t.mu)
	}
	return t.idle
}

func (t *transitions) start(parent context.Context, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.running++
	t.mu.Unlock()
	go func() {
		defer func() {
			t.mu.Lock()
			t.running--
			if t.running == 0 {
				t.cond().Broadcast()
			}
			t.mu.Unlock()
		}()
		defer cancel()
		fn(ctx)
	}()
}

func (t *transitions) stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
}

// wait blocks until no transition is running, including ones started while
// it waits.
func (t *transitions) wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.running > 0 {
		t.cond().Wait()
	}
}

// do runs fn unless ctx has ended.
func (t *transitions) do(ctx context.Context, fn func()) bool {
	t.write.Lock()
	defer t.write.Unlock()
	if ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

// swap replaces the source and restores full opacity once it loads.
func (t *transitions) swap(ctx context.Context, s Surface, src string) error {
	var err error
	if !t.do(ctx, func() { err = s.SetSource(ctx, src) }) {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	if !t.do(ctx, func() { s.SetOpacity(1) }) {
		return ctx.Err()
	}
	return nil
}

// dim lowers opacity and waits out the fade delay.
func (t *transitions) dim(ctx context.Context, s Surface, o FadeOptions) error {
	if !t.do(ctx, func() { s.SetOpacity(o.Opacity) }) {
		return ctx.Err()
	}
	return sleep(ctx, o.Delay)
}

// crossFade dims, waits, swaps and restores.
func (t *transitions) crossFade(ctx context.Context, s Surface, src string, o FadeOptions) error {
	if err := t.dim(ctx, s, o); err != nil {
		return err
	}
	return t.swap(ctx, s, src)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
