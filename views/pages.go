package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubgallery/markdown"
)

// Index renders every card plus the shared lightbox. Cards sharing a
// Group are wrapped in one container so they hydrate together.
func Index(cfg SiteConfig, cards []Card) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		if cfg.Description != "" {
			w.printf(`<p class="lede">%s</p>`, esc(cfg.Description))
		}
		w.printf(`<div class="cards">`)
		for i := 0; i < len(cards); {
			group := cards[i].Group
			if group == "" {
				w.component(ctx, cardView(cards[i]))
				i++
				continue
			}
			w.printf(`<div class="card-group" id="%s">`, esc(group))
			for i < len(cards) && cards[i].Group == group {
				w.component(ctx, cardView(cards[i]))
				i++
			}
			w.printf(`</div>`)
		}
		w.printf(`</div>`)
		w.component(ctx, lightbox())
		w.printf(`<script src="/public/live.js" defer></script>`)
		return w.err
	})
	return Layout(cfg, PageMeta{Title: cfg.Name, URL: buildURL(cfg.URL)}, body)
}

func cardView(c Card) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		title := c.Title
		if title == "" {
			title = c.Folder
		}
		w.printf(`<section class="card" id="%s" data-card="%s" tabindex="0">`, esc(c.ID), esc(c.ID))
		w.printf(`<div class="card-frame"><img data-surface="%s" alt="%s" style="opacity:0"></div>`, esc(c.ID), esc(title))
		w.printf(`<div class="card-controls">`)
		w.printf(`<button type="button" data-action="prev" aria-label="Previous">&lsaquo;</button>`)
		w.printf(`<button type="button" data-action="more">See more</button>`)
		w.printf(`<button type="button" data-action="next" aria-label="Next">&rsaquo;</button>`)
		w.printf(`</div>`)
		w.printf(`<h2><a href="%s">%s</a></h2>`, esc(GalleryURL(c.Folder)), markdown.Inline(title))
		if c.Caption != "" {
			w.printf(`<div class="caption">`)
			w.component(ctx, markdown.Markdown(c.Caption))
			w.printf(`</div>`)
		}
		w.printf(`</section>`)
		return w.err
	})
}

func lightbox() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<div class="lightbox" id="lightbox" data-close="1" hidden>`)
		w.printf(`<div class="lb-stage" data-lb="stage" data-close="1">`)
		w.printf(`<figure class="lb-frame" data-lb="frame">`)
		w.printf(`<img data-surface="lightbox" alt="">`)
		w.printf(`<figcaption class="lb-pager" aria-live="polite"></figcaption>`)
		w.printf(`<button type="button" class="lb-prev" data-lb="prev" aria-label="Previous">&lsaquo;</button>`)
		w.printf(`<button type="button" class="lb-next" data-lb="next" aria-label="Next">&rsaquo;</button>`)
		w.printf(`</figure></div></div>`)
		return w.err
	})
}

// Gallery renders every asset of one folder as a static grid.
func Gallery(cfg SiteConfig, card Card, assets []Asset) templ.Component {
	title := card.Title
	if title == "" {
		title = card.Folder
	}
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<article class="gallery"><h1>%s</h1>`, markdown.Inline(title))
		if card.Caption != "" {
			w.printf(`<div class="caption">`)
			w.component(ctx, markdown.Markdown(card.Caption))
			w.printf(`</div>`)
		}
		if len(assets) == 0 {
			w.printf(`<p class="empty">No images yet.</p>`)
		}
		w.printf(`<ol class="grid">`)
		for _, a := range assets {
			w.printf(`<li><a href="%s"><img src="%s" alt="%s %s" loading="lazy"></a></li>`,
				esc(a.Full), esc(a.Src), esc(title), strconv.Itoa(a.Index))
		}
		w.printf(`</ol></article>`)
		w.printf(`<script type="application/ld+json">%s</script>`, ImageGalleryJsonLD(cfg, card.Folder, title, assets))
		return w.err
	})
	meta := PageMeta{
		Title:  title,
		URL:    buildURL(cfg.URL, "gallery", card.Folder),
		OGType: "article",
	}
	if len(assets) > 0 {
		meta.Image = absolute(cfg.URL, assets[0].Full)
	}
	return Layout(cfg, meta, body)
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Not found"}, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>Not found</h1><p>Nothing lives at this address. <a href="/">Back to the galleries</a>.</p>`)
		return w.err
	}))
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Error"}, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>Something went wrong</h1><p>Please try again in a moment.</p>`)
		return w.err
	}))
}
