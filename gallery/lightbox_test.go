package gallery

import (
	"testing"

	"github.com/eringen/pubgallery/discovery"
)

func newTestLightbox(prober discovery.Prober) (*Lightbox, *fakeSurface, *Keys) {
	s := newFakeSurface()
	keys := NewKeys()
	lb := NewLightbox(s, keys, LightboxOptions{Fade: instant, Prober: prober})
	return lb, s, keys
}

func TestLightboxOpenAtIndex(t *testing.T) {
	lb, s, _ := newTestLightbox(nil)
	lb.Open(NewList(refs(3)...), 4)
	lb.Idle()

	if !lb.IsOpen() || !s.open {
		t.Fatal("lightbox should be open")
	}
	if lb.Index() != 1 {
		t.Fatalf("Index = %d, want 1", lb.Index())
	}
	if s.last() != "demo/2.jpg" {
		t.Fatalf("showing %s", s.last())
	}
	if s.page != [2]int{2, 3} {
		t.Fatalf("pager = %v, want 2/3", s.page)
	}
}

func TestLightboxKeyboardAndEscape(t *testing.T) {
	lb, s, keys := newTestLightbox(nil)
	lb.Open(NewList(refs(3)...), 0)
	keys.Dispatch(KeyLeft)
	lb.Idle()
	if lb.Index() != 2 {
		t.Fatalf("ArrowLeft: Index = %d, want 2", lb.Index())
	}
	keys.Dispatch(KeyRight)
	lb.Idle()
	if lb.Index() != 0 {
		t.Fatalf("ArrowRight: Index = %d, want 0", lb.Index())
	}

	keys.Dispatch(KeyEscape)
	if lb.IsOpen() || s.open {
		t.Fatal("Escape should close the lightbox")
	}
	// Only the permanent Escape listener remains.
	if keys.Len() != 1 {
		t.Fatalf("listeners after close = %d, want 1", keys.Len())
	}
	keys.Dispatch(KeyRight)
	lb.Idle()
	if lb.Index() != 0 {
		t.Fatal("closed lightbox must ignore navigation keys")
	}
}

func TestLightboxReopenDetachesPreviousListener(t *testing.T) {
	lb, _, keys := newTestLightbox(nil)
	a := NewList(refs(3)...)
	b := NewList(refs(5)...)
	lb.Open(a, 0)
	lb.Open(b, 3)
	lb.Idle()

	if keys.Len() != 2 {
		t.Fatalf("listeners = %d, want escape + one session", keys.Len())
	}
	if lb.List() != b {
		t.Fatal("reopen must re-bind to the new list")
	}
	keys.Dispatch(KeyRight)
	lb.Idle()
	if lb.Index() != 4 {
		t.Fatalf("single step expected, Index = %d", lb.Index())
	}
}

func TestLightboxClicks(t *testing.T) {
	lb, _, _ := newTestLightbox(nil)
	lb.Open(NewList(refs(2)...), 0)
	lb.HandleClick(TargetFrame)
	if !lb.IsOpen() {
		t.Fatal("frame click must not close")
	}
	lb.HandleClick(TargetNext)
	lb.Idle()
	if lb.Index() != 1 {
		t.Fatalf("Index = %d", lb.Index())
	}
	lb.HandleClick(TargetStage)
	if lb.IsOpen() {
		t.Fatal("stage click must close")
	}
	lb.Open(NewList(refs(2)...), 0)
	lb.HandleClick(TargetBackdrop)
	if lb.IsOpen() {
		t.Fatal("backdrop click must close")
	}
}

func TestLightboxPrefersHighQuality(t *testing.T) {
	pairs := NewPairList(
		discovery.Pair{Low: "p/1-sm.webp", High: "p/1.jpg"},
		discovery.Pair{Low: "p/2-sm.webp", High: "p/2.jpg"},
	)
	lb, s, _ := newTestLightbox(probeSet("p/1.jpg"))
	lb.Open(pairs, 0)
	lb.Idle()
	if s.last() != "p/1.jpg" {
		t.Fatalf("showing %s, want high variant", s.last())
	}
	lb.Next()
	lb.Idle()
	if s.last() != "p/2-sm.webp" {
		t.Fatalf("showing %s, want low fallback", s.last())
	}
}

func TestLightboxSeesReplacedList(t *testing.T) {
	list := NewList(refs(1)...)
	s := newFakeSurface()
	keys := NewKeys()
	lazy := NewLazyLightbox(func() *Lightbox {
		return NewLightbox(s, keys, LightboxOptions{Fade: instant})
	})
	g := NewMiniGallery(list, newFakeSurface(), MiniOptions{Fade: instant, Lightbox: lazy})
	if _, ok := lazy.Built(); ok {
		t.Fatal("lightbox must be created lazily")
	}
	g.OpenLightbox()
	g.ReplaceImages(refs(3))
	g.Idle()

	lb := lazy.Get()
	lb.Next()
	lb.Idle()
	if lb.Index() != 1 || s.page != [2]int{2, 3} {
		t.Fatalf("lightbox did not observe replacement: index %d page %v", lb.Index(), s.page)
	}
	if again := lazy.Get(); again != lb {
		t.Fatal("lazy lightbox must be reused")
	}
}

func TestLightboxShowsMiniGalleryAsset(t *testing.T) {
	list := NewList(refs(5)...)
	cardSurface := newFakeSurface()
	lbSurface := newFakeSurface()
	keys := NewKeys()
	lazy := NewLazyLightbox(func() *Lightbox {
		return NewLightbox(lbSurface, keys, LightboxOptions{Fade: instant})
	})
	g := NewMiniGallery(list, cardSurface, MiniOptions{Fade: instant, Lightbox: lazy})
	for i := 0; i < 7; i++ {
		g.Next()
		g.Idle()
		g.HandleClick(TargetImage)
		lazy.Get().Idle()
		if cardSurface.last() != lbSurface.last() {
			t.Fatalf("card shows %s, lightbox shows %s", cardSurface.last(), lbSurface.last())
		}
	}
}

func TestLightboxTeardown(t *testing.T) {
	lb, _, keys := newTestLightbox(nil)
	lb.Open(NewList(refs(2)...), 0)
	lb.Teardown()
	if keys.Len() != 0 {
		t.Fatalf("listeners after teardown = %d", keys.Len())
	}
}
