package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/gallery"
	"github.com/eringen/pubgallery/hydrate"
)

var quick = gallery.FadeOptions{Opacity: 0.45, Delay: time.Millisecond}

func setSource(paths ...string) discovery.Prober {
	set := make(map[string]bool)
	for _, p := range paths {
		set[p] = true
	}
	return discovery.ProberFunc(func(_ context.Context, p string) (discovery.AssetRef, bool) {
		return discovery.AssetRef(p), set[p]
	})
}

type testClient struct {
	conn    *websocket.Conn
	msgs    chan Outbound
	writeMu sync.Mutex // the connection allows one writer at a time
}

// dial connects and acknowledges every src command as loaded.
func dial(t *testing.T, h *Handler) (*testClient, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("websocket dial: %v", err)
	}
	c := &testClient{conn: conn, msgs: make(chan Outbound, 256)}
	go func() {
		defer close(c.msgs)
		for {
			var m Outbound
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			if m.Type == TypeSrc {
				_ = c.write(Inbound{Type: TypeLoaded, ID: m.ID, OK: true})
			}
			c.msgs <- m
		}
	}()
	return c, func() {
		conn.Close()
		srv.Close()
	}
}

func (c *testClient) write(m Inbound) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(m)
}

func (c *testClient) send(t *testing.T, m Inbound) {
	t.Helper()
	if err := c.write(m); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expect reads until a message matches or the deadline passes.
func (c *testClient) expect(t *testing.T, match func(Outbound) bool) Outbound {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case m, ok := <-c.msgs:
			if !ok {
				t.Fatal("connection closed")
			}
			if match(m) {
				return m
			}
		case <-deadline:
			t.Fatal("timed out waiting for message")
		}
	}
}

func ofType(typ string) func(Outbound) bool {
	return func(m Outbound) bool { return m.Type == typ }
}

func newTestHandler(cards ...Card) *Handler {
	d := discovery.NewDiscoverer(setSource("imgs/demo/1.jpg", "imgs/demo/2.jpg", "imgs/demo/3.jpg"), "imgs")
	return NewHandler(Config{
		Cards:        cards,
		Source:       hydrate.DiscovererSource{Discoverer: d},
		CardFade:     quick,
		LightboxFade: quick,
		AssetPrefix:  "/",
		LoadTimeout:  time.Second,
	})
}

func TestPageHydratesVisibleCard(t *testing.T) {
	h := newTestHandler(Card{Card: hydrate.Card{ID: "c1", Folder: "demo"}})
	c, done := dial(t, h)
	defer done()

	hello := c.expect(t, ofType(TypeHello))
	obs := c.expect(t, ofType(TypeObserve))
	if obs.Target != "c1" || obs.Margin != "200px 0px" || obs.Threshold != 0.01 {
		t.Fatalf("observe = %+v", obs)
	}

	c.send(t, Inbound{Type: TypeVisible, Target: "c1", Intersecting: true, Ratio: 0.5})
	c.expect(t, ofType(TypeUnobserve))
	c.expect(t, ofType(TypeMount))
	src := c.expect(t, ofType(TypeSrc))
	if src.Surface != "c1" || src.Src != "/imgs/demo/1.jpg" {
		t.Fatalf("first paint = %+v", src)
	}

	page, ok := h.Page(hello.Page)
	if !ok {
		t.Fatal("page not registered")
	}
	waitFor(t, func() bool {
		g, ok := page.Mini("c1")
		return ok && g.List().Len() == 3
	})

	c.send(t, Inbound{Type: TypeClick, Card: "c1", Target: string(gallery.TargetMore)})
	open := c.expect(t, ofType(TypeOverlay))
	if open.Open == nil || !*open.Open {
		t.Fatalf("overlay = %+v", open)
	}
	pager := c.expect(t, ofType(TypePager))
	if pager.Current != 1 || pager.Total != 3 {
		t.Fatalf("pager = %+v", pager)
	}
	lbSrc := c.expect(t, func(m Outbound) bool { return m.Type == TypeSrc && m.Surface == LightboxSurfaceName })
	if lbSrc.Src != "/imgs/demo/1.jpg" {
		t.Fatalf("lightbox src = %s", lbSrc.Src)
	}

	c.send(t, Inbound{Type: TypeKey, Key: string(gallery.KeyEscape)})
	closed := c.expect(t, ofType(TypeOverlay))
	if closed.Open == nil || *closed.Open {
		t.Fatalf("overlay after escape = %+v", closed)
	}
}

func TestPageGroupWatch(t *testing.T) {
	h := newTestHandler(
		Card{Card: hydrate.Card{ID: "a", Folder: "demo"}, Group: "grid"},
		Card{Card: hydrate.Card{ID: "b", Folder: "demo"}, Group: "grid"},
	)
	c, done := dial(t, h)
	defer done()

	c.expect(t, ofType(TypeHello))
	obs := c.expect(t, ofType(TypeObserve))
	if obs.Target != "grid" {
		t.Fatalf("observe target = %s, want grid", obs.Target)
	}
	c.send(t, Inbound{Type: TypeVisible, Target: "grid", Ratio: 0.1})
	mounted := map[string]bool{}
	for len(mounted) < 2 {
		m := c.expect(t, ofType(TypeMount))
		mounted[m.Card] = true
	}
}

func TestPageRejectsBadMessages(t *testing.T) {
	h := newTestHandler()
	c, done := dial(t, h)
	defer done()
	c.expect(t, ofType(TypeHello))

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := c.expect(t, ofType(TypeError)); m.Message != "invalid message format" {
		t.Fatalf("error = %q", m.Message)
	}
	c.send(t, Inbound{Type: TypeClick, Card: "ghost", Target: "next"})
	if m := c.expect(t, ofType(TypeError)); !strings.Contains(m.Message, "ghost") {
		t.Fatalf("error = %q", m.Message)
	}
	c.send(t, Inbound{Type: "dance"})
	c.expect(t, ofType(TypeError))
}

func TestHandlerForgetsClosedPages(t *testing.T) {
	h := newTestHandler()
	c, done := dial(t, h)
	c.expect(t, ofType(TypeHello))
	if h.Pages() != 1 {
		t.Fatalf("pages = %d", h.Pages())
	}
	done()
	waitFor(t, func() bool { return h.Pages() == 0 })
}

// heldProber answers from a fixed set, records every path and parks on
// holdAt until release is closed.
type heldProber struct {
	mu      sync.Mutex
	set     map[string]bool
	probed  map[string]bool
	holdAt  string
	held    chan struct{}
	release chan struct{}
}

func (p *heldProber) Probe(_ context.Context, path string) (discovery.AssetRef, bool) {
	if path == p.holdAt {
		close(p.held)
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed[path] = true
	return discovery.AssetRef(path), p.set[path]
}

func (p *heldProber) saw(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probed[path]
}

func TestDiscoveryOutlivesClosedPage(t *testing.T) {
	p := &heldProber{
		set:     map[string]bool{"imgs/demo/1.jpg": true, "imgs/demo/2.jpg": true, "imgs/demo/3.jpg": true},
		probed:  make(map[string]bool),
		holdAt:  "imgs/demo/2.webp",
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
	d := discovery.NewDiscoverer(p, "imgs")
	h := NewHandler(Config{
		Cards:        []Card{{Card: hydrate.Card{ID: "c1", Folder: "demo"}}},
		Source:       hydrate.DiscovererSource{Discoverer: d},
		CardFade:     quick,
		LightboxFade: quick,
		AssetPrefix:  "/",
		LoadTimeout:  time.Second,
	})
	c, done := dial(t, h)
	defer done()

	hello := c.expect(t, ofType(TypeHello))
	page, ok := h.Page(hello.Page)
	if !ok {
		t.Fatal("page not registered")
	}
	c.expect(t, ofType(TypeObserve))
	c.send(t, Inbound{Type: TypeVisible, Target: "c1", Intersecting: true})
	c.expect(t, ofType(TypeMount))

	// The full scan is parked at index 2 while the browser goes away.
	select {
	case <-p.held:
	case <-time.After(3 * time.Second):
		t.Fatal("full scan never reached index 2")
	}
	c.conn.Close()
	waitFor(t, func() bool { return page.ctx.Err() != nil })

	close(p.release)
	// A strict scan ends after every extension of index 4 misses.
	waitFor(t, func() bool { return p.saw("imgs/demo/4.png") })
	if !p.saw("imgs/demo/3.jpg") {
		t.Fatal("scan skipped index 3 after the page closed")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
