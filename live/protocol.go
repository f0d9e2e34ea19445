// Package live bridges a browser page to the gallery engine over a
// websocket. The page reports visibility, clicks and keys; the server
// answers with commands for the card and lightbox image elements.
package live

// Message types sent by the browser.
const (
	TypeVisible  = "visible"
	TypeClick    = "click"
	TypeCardKey  = "cardkey"
	TypeKey      = "key"
	TypeLightbox = "lightbox"
	TypeLoaded   = "loaded"
)

// Message types sent by the server.
const (
	TypeHello     = "hello"
	TypeObserve   = "observe"
	TypeUnobserve = "unobserve"
	TypeMount     = "mount"
	TypeSrc       = "src"
	TypeOpacity   = "opacity"
	TypePager     = "pager"
	TypeOverlay   = "overlay"
	TypeError     = "error"
)

// LightboxSurfaceName addresses the overlay image in src/opacity commands.
const LightboxSurfaceName = "lightbox"

// Inbound is a browser message.
type Inbound struct {
	Type         string  `json:"type"`
	Target       string  `json:"target,omitempty"`
	Ratio        float64 `json:"ratio,omitempty"`
	Intersecting bool    `json:"intersecting,omitempty"`
	Card         string  `json:"card,omitempty"`
	Key          string  `json:"key,omitempty"`
	ID           string  `json:"id,omitempty"`
	OK           bool    `json:"ok,omitempty"`
}

// Outbound is a server command.
type Outbound struct {
	Type      string  `json:"type"`
	Page      string  `json:"page,omitempty"`
	Target    string  `json:"target,omitempty"`
	Margin    string  `json:"margin,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Card      string  `json:"card,omitempty"`
	Surface   string  `json:"surface,omitempty"`
	Src       string  `json:"src,omitempty"`
	ID        string  `json:"id,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Current   int     `json:"current,omitempty"`
	Total     int     `json:"total,omitempty"`
	Open      *bool   `json:"open,omitempty"`
	Message   string  `json:"message,omitempty"`
}
