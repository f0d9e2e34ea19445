package pubgallery

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/gallery"
	"github.com/eringen/pubgallery/hydrate"
)

// EnvPrefix prefixes environment overrides. A double underscore descends
// into a nested key: PUBGALLERY_DISCOVERY__SAFETY_CAP sets
// discovery.safety_cap.
const EnvPrefix = "PUBGALLERY_"

// SiteConfig holds all configuration for a pubgallery site.
type SiteConfig struct {
	Name        string `koanf:"name"`        // Site name (default "Gallery")
	URL         string `koanf:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `koanf:"description"` // Site description for RSS and meta tags
	Author      string `koanf:"author"`

	Addr         string `koanf:"addr"`          // Listen address (default ":3000")
	DatabasePath string `koanf:"database_path"` // SQLite path (default "data/gallery.db")
	StaticDir    string `koanf:"static_dir"`    // User static files served under /public (default "public")
	AssetsDir    string `koanf:"assets_dir"`    // Gallery folders served under /imgs (default "imgs")
	// AssetsBaseURL probes a remote origin instead of AssetsDir when set.
	AssetsBaseURL string `koanf:"assets_base_url"`

	AdminPassword string `koanf:"admin_password"` // Required
	SessionSecret string `koanf:"session_secret"` // Required
	CookieSecure  bool   `koanf:"cookie_secure"`  // Set true for HTTPS

	ManifestTTL time.Duration `koanf:"manifest_ttl"` // Manifest cache TTL (default 10min)

	Discovery   DiscoveryConfig  `koanf:"discovery"`
	Hydration   HydrationConfig  `koanf:"hydration"`
	Transitions TransitionConfig `koanf:"transitions"`
	Cards       []CardConfig     `koanf:"cards"`
}

// DiscoveryConfig tunes the sequential discoverer.
type DiscoveryConfig struct {
	GapPolicy    string        `koanf:"gap_policy"` // "strict" or "tolerant"
	SafetyCap    int           `koanf:"safety_cap"`
	MaxMisses    int           `koanf:"max_misses"`  // tolerant only
	MinScanned   int           `koanf:"min_scanned"` // tolerant only
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
	Extensions   []string      `koanf:"extensions"`
}

// HydrationConfig mirrors hydrate.Options.
type HydrationConfig struct {
	Margin     string  `koanf:"margin"`
	Threshold  float64 `koanf:"threshold"`
	GroupLimit int     `koanf:"group_limit"` // 0 hydrates a whole group at once
}

// TransitionConfig sets the card and lightbox cross-fades.
type TransitionConfig struct {
	CardOpacity     float64       `koanf:"card_opacity"`
	CardDelay       time.Duration `koanf:"card_delay"`
	LightboxOpacity float64       `koanf:"lightbox_opacity"`
	LightboxDelay   time.Duration `koanf:"lightbox_delay"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Gallery"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/gallery.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.AssetsDir == "" {
		c.AssetsDir = "imgs"
	}
	if c.ManifestTTL == 0 {
		c.ManifestTTL = 10 * time.Minute
	}

	d := &c.Discovery
	if d.GapPolicy == "" {
		d.GapPolicy = "strict"
	}
	if d.SafetyCap == 0 {
		d.SafetyCap = discovery.DefaultSafetyCap
	}
	if d.ProbeTimeout == 0 {
		d.ProbeTimeout = discovery.DefaultProbeTimeout
	}
	if len(d.Extensions) == 0 {
		d.Extensions = discovery.DefaultExtensions
	}
	if d.GapPolicy == "tolerant" {
		t := discovery.Tolerant()
		if d.MaxMisses == 0 {
			d.MaxMisses = t.MaxMisses
		}
		if d.MinScanned == 0 {
			d.MinScanned = t.MinScanned
		}
	}

	if c.Hydration.Margin == "" {
		c.Hydration.Margin = hydrate.DefaultOptions.Margin
	}
	if c.Hydration.Threshold == 0 {
		c.Hydration.Threshold = hydrate.DefaultOptions.Threshold
	}

	t := &c.Transitions
	if t.CardOpacity == 0 {
		t.CardOpacity = gallery.CardFade.Opacity
	}
	if t.CardDelay == 0 {
		t.CardDelay = gallery.CardFade.Delay
	}
	if t.LightboxOpacity == 0 {
		t.LightboxOpacity = gallery.LightboxFade.Opacity
	}
	if t.LightboxDelay == 0 {
		t.LightboxDelay = gallery.LightboxFade.Delay
	}

	for i := range c.Cards {
		if c.Cards[i].ID == "" {
			c.Cards[i].ID = "card-" + c.Cards[i].Folder
		}
	}
}

// LoadConfig reads path (optional, YAML) and overlays PUBGALLERY_*
// environment variables. Defaults are applied after loading.
func LoadConfig(path string) (SiteConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return SiteConfig{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return SiteConfig{}, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return SiteConfig{}, fmt.Errorf("loading env overrides: %w", err)
	}

	var cfg SiteConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values that defaults cannot repair.
func (c SiteConfig) Validate() error {
	if _, err := c.gapPolicy(); err != nil {
		return err
	}
	if c.Discovery.SafetyCap <= 0 {
		return fmt.Errorf("discovery.safety_cap must be positive")
	}
	if c.Discovery.ProbeTimeout < 0 {
		return fmt.Errorf("discovery.probe_timeout must be non-negative")
	}
	if c.Hydration.GroupLimit < 0 {
		return fmt.Errorf("hydration.group_limit must be non-negative")
	}
	if c.Hydration.Threshold < 0 || c.Hydration.Threshold > 1 {
		return fmt.Errorf("hydration.threshold %v outside [0, 1]", c.Hydration.Threshold)
	}
	for name, v := range map[string]float64{
		"transitions.card_opacity":     c.Transitions.CardOpacity,
		"transitions.lightbox_opacity": c.Transitions.LightboxOpacity,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s %v outside (0, 1]", name, v)
		}
	}
	seen := make(map[string]bool, len(c.Cards))
	for i, card := range c.Cards {
		if card.Folder == "" {
			return fmt.Errorf("cards[%d]: folder is required", i)
		}
		if !validFolder(card.Folder) {
			return fmt.Errorf("cards[%d]: invalid folder %q", i, card.Folder)
		}
		if seen[card.ID] {
			return fmt.Errorf("cards[%d]: duplicate id %q", i, card.ID)
		}
		seen[card.ID] = true
	}
	return nil
}

func (c SiteConfig) gapPolicy() (discovery.GapPolicy, error) {
	p, err := discovery.ParseGapPolicy(c.Discovery.GapPolicy)
	if err != nil {
		return p, err
	}
	if p.Name == "tolerant" {
		if c.Discovery.MaxMisses > 0 {
			p.MaxMisses = c.Discovery.MaxMisses
		}
		if c.Discovery.MinScanned > 0 {
			p.MinScanned = c.Discovery.MinScanned
		}
	}
	return p, nil
}

func (c SiteConfig) cardFade() gallery.FadeOptions {
	return gallery.FadeOptions{Opacity: c.Transitions.CardOpacity, Delay: c.Transitions.CardDelay}
}

func (c SiteConfig) lightboxFade() gallery.FadeOptions {
	return gallery.FadeOptions{Opacity: c.Transitions.LightboxOpacity, Delay: c.Transitions.LightboxDelay}
}

func (c SiteConfig) hydration() hydrate.Options {
	return hydrate.Options{
		Margin:     c.Hydration.Margin,
		Threshold:  c.Hydration.Threshold,
		GroupLimit: c.Hydration.GroupLimit,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithProber replaces the prober built from AssetsDir or AssetsBaseURL.
func WithProber(p discovery.Prober) Option {
	return func(a *App) {
		a.prober = p
	}
}

// WithViews overrides the default templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
