package views

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, absolute
}

// Card is a gallery card on the index page. Its image is filled in by the
// live client once the card nears the viewport.
type Card struct {
	ID      string
	Folder  string
	Title   string
	Caption string // markdown
	Group   string
}

// Asset is one entry of a gallery page.
type Asset struct {
	Index int
	Src   string // displayed variant
	Full  string // linked variant
}

// FolderStat summarizes a stored manifest for the admin dashboard.
type FolderStat struct {
	Folder       string
	Mode         string
	Entries      int
	Probes       int
	DiscoveredAt string
}

// Upload is an admin-uploaded image.
type Upload struct {
	Folder       string
	Filename     string
	URL          string
	ThumbURL     string
	OriginalName string
	Width        int
	Height       int
	UploadedAt   string
}
