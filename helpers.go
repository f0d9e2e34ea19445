package pubgallery

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/views"
)

var reFolder = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// validFolder reports whether name is a single safe path segment.
func validFolder(name string) bool {
	return reFolder.MatchString(name)
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// assetURL maps an asset reference to the URL the browser loads.
func (a *App) assetURL(ref discovery.AssetRef) string {
	s := string(ref)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return strings.TrimRight(a.assetPrefix(), "/") + "/" + strings.TrimLeft(s, "/")
}

func (a *App) siteView() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// cardFor returns the configured card for folder, or a bare card.
func (a *App) cardFor(folder string) (CardConfig, bool) {
	for _, c := range a.Config.Cards {
		if c.Folder == folder {
			return c, true
		}
	}
	return CardConfig{ID: "card-" + folder, Folder: folder}, false
}

func viewCard(c CardConfig) views.Card {
	return views.Card{
		ID:      c.ID,
		Folder:  c.Folder,
		Title:   c.Title,
		Caption: c.Caption,
		Group:   c.Group,
	}
}
