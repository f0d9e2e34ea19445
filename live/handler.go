package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/gallery"
	"github.com/eringen/pubgallery/hydrate"
)

// Card is a configured card plus the container it is watched with.
// Cards with an empty Group are watched on their own.
type Card struct {
	hydrate.Card
	Group string
}

// Config wires a Handler to the engine.
type Config struct {
	Cards        []Card
	Source       hydrate.Source
	Prober       discovery.Prober
	Hydration    hydrate.Options
	CardFade     gallery.FadeOptions
	LightboxFade gallery.FadeOptions
	// AssetPrefix is prepended to asset refs sent to the browser.
	AssetPrefix string
	// LoadTimeout bounds how long a surface waits for a load report.
	LoadTimeout time.Duration
	Log         discovery.Logger
}

func (c *Config) assetURL(ref string) string {
	if c.AssetPrefix == "" || strings.Contains(ref, "://") {
		return ref
	}
	return strings.TrimRight(c.AssetPrefix, "/") + "/" + strings.TrimLeft(ref, "/")
}

// Handler upgrades requests to websocket pages.
type Handler struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu    sync.Mutex
	pages map[string]*Page
}

// NewHandler creates a Handler. Zero fades and options fall back to the
// engine defaults.
func NewHandler(cfg Config) *Handler {
	if cfg.CardFade == (gallery.FadeOptions{}) {
		cfg.CardFade = gallery.CardFade
	}
	if cfg.LightboxFade == (gallery.FadeOptions{}) {
		cfg.LightboxFade = gallery.LightboxFade
	}
	if cfg.Hydration == (hydrate.Options{}) {
		cfg.Hydration = hydrate.DefaultOptions
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = discovery.Nop()
	}
	return &Handler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pages: make(map[string]*Page),
	}
}

// Pages returns the number of connected pages.
func (h *Handler) Pages() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pages)
}

// Page returns a connected page by id.
func (h *Handler) Page(id string) (*Page, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pages[id]
	return p, ok
}

// ServeHTTP runs the read loop for one page until the connection closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Log.Warnf("live: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	p := newPage(context.Background(), conn, &h.cfg)
	h.mu.Lock()
	h.pages[p.ID] = p
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pages, p.ID)
		h.mu.Unlock()
		p.close()
	}()

	if err := p.send(Outbound{Type: TypeHello, Page: p.ID}); err != nil {
		return
	}
	p.watch()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.cfg.Log.Warnf("live: page %s: read: %v", p.ID, err)
			}
			return
		}
		var m Inbound
		if err := json.Unmarshal(data, &m); err != nil {
			_ = p.send(Outbound{Type: TypeError, Message: "invalid message format"})
			continue
		}
		if err := p.handle(m); err != nil {
			_ = p.send(Outbound{Type: TypeError, Message: err.Error()})
		}
	}
}
