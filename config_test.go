package pubgallery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigYAML = `
name: Field Notes
url: https://photos.example.com
discovery:
  gap_policy: tolerant
  probe_timeout: 2s
transitions:
  card_delay: 200ms
cards:
  - id: walk
    folder: autumn
    title: Autumn walk
    pairs: true
    group: season
  - folder: demo
    count: 4
`

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubgallery.yml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PUBGALLERY_ADMIN_PASSWORD", "secret")
	t.Setenv("PUBGALLERY_DISCOVERY__SAFETY_CAP", "12")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "Field Notes" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.AdminPassword != "secret" {
		t.Errorf("AdminPassword from env = %q", cfg.AdminPassword)
	}
	if cfg.Discovery.SafetyCap != 12 {
		t.Errorf("SafetyCap = %d, want 12 from env", cfg.Discovery.SafetyCap)
	}
	if cfg.Discovery.ProbeTimeout != 2*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.Discovery.ProbeTimeout)
	}
	if cfg.Discovery.MaxMisses != 3 || cfg.Discovery.MinScanned != 2 {
		t.Errorf("tolerant defaults = %d/%d", cfg.Discovery.MaxMisses, cfg.Discovery.MinScanned)
	}
	if cfg.Transitions.CardDelay != 200*time.Millisecond {
		t.Errorf("CardDelay = %v", cfg.Transitions.CardDelay)
	}
	if cfg.Transitions.LightboxDelay != 100*time.Millisecond {
		t.Errorf("LightboxDelay default = %v", cfg.Transitions.LightboxDelay)
	}
	if len(cfg.Cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cfg.Cards))
	}
	if c := cfg.Cards[0]; c.ID != "walk" || !c.Pairs || c.Group != "season" {
		t.Errorf("card 0 = %+v", c)
	}
	if c := cfg.Cards[1]; c.ID != "card-demo" || c.Count != 4 {
		t.Errorf("card 1 = %+v", c)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":3000" || cfg.AssetsDir != "imgs" || cfg.ManifestTTL != 10*time.Minute {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Discovery.GapPolicy != "strict" || cfg.Discovery.SafetyCap != 50 {
		t.Errorf("discovery defaults = %+v", cfg.Discovery)
	}
	if cfg.Hydration.Margin != "200px 0px" || cfg.Hydration.Threshold != 0.01 {
		t.Errorf("hydration defaults = %+v", cfg.Hydration)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SiteConfig)
		wantErr string
	}{
		{"valid", func(*SiteConfig) {}, ""},
		{"unknown policy", func(c *SiteConfig) { c.Discovery.GapPolicy = "lenient" }, "gap policy"},
		{"negative cap", func(c *SiteConfig) { c.Discovery.SafetyCap = -1 }, "safety_cap"},
		{"threshold above one", func(c *SiteConfig) { c.Hydration.Threshold = 1.5 }, "threshold"},
		{"negative group limit", func(c *SiteConfig) { c.Hydration.GroupLimit = -1 }, "group_limit"},
		{"opacity above one", func(c *SiteConfig) { c.Transitions.CardOpacity = 2 }, "card_opacity"},
		{"missing folder", func(c *SiteConfig) { c.Cards = []CardConfig{{ID: "x"}} }, "folder is required"},
		{"bad folder", func(c *SiteConfig) { c.Cards = []CardConfig{{ID: "x", Folder: "../etc"}} }, "invalid folder"},
		{"duplicate id", func(c *SiteConfig) {
			c.Cards = []CardConfig{{ID: "x", Folder: "a"}, {ID: "x", Folder: "b"}}
		}, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg SiteConfig
			cfg.setDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PUBGALLERY_NAME":                    "name",
		"PUBGALLERY_DISCOVERY__SAFETY_CAP":   "discovery.safety_cap",
		"PUBGALLERY_TRANSITIONS__CARD_DELAY": "transitions.card_delay",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
