package pubgallery

import (
	"time"

	"github.com/eringen/pubgallery/discovery"
)

// Manifest modes.
const (
	ModeSingles = "singles"
	ModePairs   = "pairs"
)

// Manifest is the result of one discovery run over a folder, as stored in
// SQLite and served by the JSON API.
type Manifest struct {
	Folder       string
	Mode         string
	Limit        int
	Entries      []discovery.Pair
	Probes       int
	DiscoveredAt time.Time
}

// Upload is metadata for an image stored through the admin dashboard.
type Upload struct {
	Folder       string
	Filename     string
	Thumbnail    string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// CardConfig places a gallery card on the index page.
type CardConfig struct {
	ID      string `koanf:"id" yaml:"id"`
	Folder  string `koanf:"folder" yaml:"folder"`
	Count   int    `koanf:"count" yaml:"count,omitempty"`
	Title   string `koanf:"title" yaml:"title,omitempty"`
	Caption string `koanf:"caption" yaml:"caption,omitempty"` // markdown
	Pairs   bool   `koanf:"pairs" yaml:"pairs,omitempty"`
	Group   string `koanf:"group" yaml:"group,omitempty"`
}

func modeOf(pairs bool) string {
	if pairs {
		return ModePairs
	}
	return ModeSingles
}
