package live

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eringen/pubgallery/gallery"
	"github.com/eringen/pubgallery/hydrate"
)

const writeWait = 10 * time.Second

// errLoadFailed is returned by a surface when the browser reports that
// the image did not load.
var errLoadFailed = errors.New("live: image failed to load")

// Page is one connected browser page. It owns the page's lightbox and
// the controllers of every card mounted on it.
type Page struct {
	ID string

	conn    *websocket.Conn
	writeMu sync.Mutex
	cfg     *Config
	ctx     context.Context
	cancel  context.CancelFunc

	keys      *gallery.Keys
	lightbox  *gallery.LazyLightbox
	scheduler *hydrate.Scheduler
	seq       atomic.Uint64

	mu        sync.Mutex
	observers map[string]func(hydrate.Entry)
	minis     map[string]*gallery.MiniGallery
	pending   map[string]chan bool
}

func newPage(parent context.Context, conn *websocket.Conn, cfg *Config) *Page {
	ctx, cancel := context.WithCancel(parent)
	p := &Page{
		ID:        uuid.NewString(),
		conn:      conn,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		keys:      gallery.NewKeys(),
		observers: make(map[string]func(hydrate.Entry)),
		minis:     make(map[string]*gallery.MiniGallery),
		pending:   make(map[string]chan bool),
	}
	p.lightbox = gallery.NewLazyLightbox(func() *gallery.Lightbox {
		return gallery.NewLightbox(&surface{page: p, name: LightboxSurfaceName}, p.keys, gallery.LightboxOptions{
			Fade:    cfg.LightboxFade,
			Prober:  cfg.Prober,
			Log:     cfg.Log,
			Context: ctx,
		})
	})
	p.scheduler = hydrate.NewScheduler(p, cfg.Hydration, hydrate.Progressive(cfg.Source, p.mount, cfg.Log), cfg.Log)
	return p
}

// send writes one command. Writes are serialized per connection.
func (p *Page) send(m Outbound) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.ctx.Err(); err != nil {
		return err
	}
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := p.conn.WriteJSON(m); err != nil {
		p.cfg.Log.Debugf("live: page %s: write: %v", p.ID, err)
		return err
	}
	return nil
}

// Observe implements hydrate.Notifier by asking the browser to watch target.
func (p *Page) Observe(target string, opts hydrate.Options, fn func(hydrate.Entry)) func() {
	p.mu.Lock()
	p.observers[target] = fn
	p.mu.Unlock()
	_ = p.send(Outbound{Type: TypeObserve, Target: target, Margin: opts.Margin, Threshold: opts.Threshold})
	return func() {
		p.mu.Lock()
		_, ok := p.observers[target]
		delete(p.observers, target)
		p.mu.Unlock()
		if ok {
			_ = p.send(Outbound{Type: TypeUnobserve, Target: target})
		}
	}
}

// watch subscribes every configured card, grouping cards that share a
// container. Pipelines get a context that outlives the page: a started
// discovery always finishes, and mount refuses once the page is closed.
func (p *Page) watch() {
	ctx := context.WithoutCancel(p.ctx)
	groups := make(map[string][]hydrate.Card)
	var order []string
	for _, c := range p.cfg.Cards {
		if c.Group == "" {
			p.scheduler.Watch(ctx, c.Card)
			continue
		}
		if _, ok := groups[c.Group]; !ok {
			order = append(order, c.Group)
		}
		groups[c.Group] = append(groups[c.Group], c.Card)
	}
	for _, g := range order {
		p.scheduler.WatchGroup(ctx, g, groups[g])
	}
}

// mount creates the card's controller once its first asset is known.
func (p *Page) mount(card hydrate.Card, list *gallery.List) *gallery.MiniGallery {
	if p.ctx.Err() != nil {
		return nil
	}
	if err := p.send(Outbound{Type: TypeMount, Card: card.ID}); err != nil {
		return nil
	}
	g := gallery.NewMiniGallery(list, &surface{page: p, name: card.ID}, gallery.MiniOptions{
		Fade:     p.cfg.CardFade,
		Prober:   p.cfg.Prober,
		Lightbox: p.lightbox,
		Log:      p.cfg.Log,
		Context:  p.ctx,
	})
	p.mu.Lock()
	p.minis[card.ID] = g
	p.mu.Unlock()
	return g
}

// Mini returns the mounted controller for a card.
func (p *Page) Mini(card string) (*gallery.MiniGallery, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.minis[card]
	return g, ok
}

// Lightbox returns the page's lightbox if it has been opened.
func (p *Page) Lightbox() (*gallery.Lightbox, bool) {
	return p.lightbox.Built()
}

// handle routes one browser message.
func (p *Page) handle(m Inbound) error {
	switch m.Type {
	case TypeVisible:
		p.mu.Lock()
		fn := p.observers[m.Target]
		p.mu.Unlock()
		if fn != nil {
			fn(hydrate.Entry{Target: m.Target, Intersecting: m.Intersecting, Ratio: m.Ratio})
		}
	case TypeClick:
		g, ok := p.Mini(m.Card)
		if !ok {
			return fmt.Errorf("unknown card %q", m.Card)
		}
		g.HandleClick(gallery.Target(m.Target))
	case TypeCardKey:
		g, ok := p.Mini(m.Card)
		if !ok {
			return fmt.Errorf("unknown card %q", m.Card)
		}
		g.HandleKey(gallery.Key(m.Key))
	case TypeKey:
		p.keys.Dispatch(gallery.Key(m.Key))
	case TypeLightbox:
		if lb, ok := p.lightbox.Built(); ok {
			lb.HandleClick(gallery.Target(m.Target))
		}
	case TypeLoaded:
		p.mu.Lock()
		ch, ok := p.pending[m.ID]
		delete(p.pending, m.ID)
		p.mu.Unlock()
		if ok {
			ch <- m.OK
		}
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// close stops every controller of the page and cancels pending loads.
// Discovery already running for a card is left to finish.
func (p *Page) close() {
	p.cancel()
	if lb, ok := p.lightbox.Built(); ok {
		lb.Teardown()
	}
	p.mu.Lock()
	for _, g := range p.minis {
		g.Stop()
	}
	p.mu.Unlock()
}

// surface is a card or lightbox image element living in the browser.
type surface struct {
	page *Page
	name string
}

func (s *surface) SetOpacity(v float64) {
	_ = s.page.send(Outbound{Type: TypeOpacity, Surface: s.name, Value: v})
}

// SetSource sends the new source and waits for the browser's load report.
func (s *surface) SetSource(ctx context.Context, src string) error {
	p := s.page
	id := strconv.FormatUint(p.seq.Add(1), 10)
	ch := make(chan bool, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.send(Outbound{Type: TypeSrc, Surface: s.name, Src: p.cfg.assetURL(src), ID: id}); err != nil {
		return err
	}
	timeout := time.NewTimer(p.cfg.LoadTimeout)
	defer timeout.Stop()
	select {
	case ok := <-ch:
		if !ok {
			return errLoadFailed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-timeout.C:
		return fmt.Errorf("live: load %s: timed out", src)
	}
}

func (s *surface) SetOpen(open bool) {
	_ = s.page.send(Outbound{Type: TypeOverlay, Open: &open})
}

func (s *surface) SetPage(current, total int) {
	_ = s.page.send(Outbound{Type: TypePager, Current: current, Total: total})
}
