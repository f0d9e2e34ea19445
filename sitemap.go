package pubgallery

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the index plus every configured or discovered folder.
func (a *App) renderSitemap(c echo.Context, manifests []Manifest) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	seen := make(map[string]bool)
	for _, m := range manifests {
		if seen[m.Folder] || len(m.Entries) == 0 {
			continue
		}
		seen[m.Folder] = true
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "gallery", m.Folder),
			LastMod: m.DiscoveredAt.UTC().Format("2006-01-02"),
		})
	}
	for _, card := range a.Config.Cards {
		if seen[card.Folder] {
			continue
		}
		seen[card.Folder] = true
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "gallery", card.Folder)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
