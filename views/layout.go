package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the shared document shell.
func Layout(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		title := cfg.Name
		if meta.Title != "" && meta.Title != cfg.Name {
			title = meta.Title + " | " + cfg.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		w.printf(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		w.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.printf(`<title>%s</title>`, esc(title))
		w.printf(`<meta name="description" content="%s">`, esc(desc))
		if meta.URL != "" {
			w.printf(`<link rel="canonical" href="%s"><meta property="og:url" content="%s">`, esc(meta.URL), esc(meta.URL))
		}
		w.printf(`<meta property="og:title" content="%s"><meta property="og:type" content="%s">`, esc(title), esc(ogType))
		if meta.Image != "" {
			w.printf(`<meta property="og:image" content="%s">`, esc(meta.Image))
		}
		w.printf(`<link rel="alternate" type="application/rss+xml" title="%s" href="/feed.xml">`, esc(cfg.Name))
		w.printf(`<link rel="stylesheet" href="/public/gallery.css">`)
		w.printf(`<script type="application/ld+json">%s</script>`, WebsiteJsonLD(cfg))
		w.printf(`</head><body><header class="site"><a href="/">%s</a></header><main>`, esc(cfg.Name))
		w.component(ctx, body)
		w.printf(`</main></body></html>`)
		return w.err
	})
}
