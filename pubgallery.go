// Package pubgallery serves image galleries laid out by folder convention
// (imgs/<folder>/<index><ext>) with Echo and templ. Galleries are found
// by probing sequential indices, so no listing or manifest is required.
//
// Cards on the index page hydrate lazily over a websocket: the browser
// reports visibility and input, and the engine in this module drives every
// card image and the shared lightbox.
package pubgallery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/hydrate"
	"github.com/eringen/pubgallery/live"
	"github.com/eringen/pubgallery/views"
)

// ViewFuncs holds the templ components the App renders. Defaults come from
// the views package; override them with WithViews.
type ViewFuncs struct {
	Index          func(cfg views.SiteConfig, cards []views.Card) templ.Component
	Gallery        func(cfg views.SiteConfig, card views.Card, assets []views.Asset) templ.Component
	AdminLogin     func(cfg views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(cfg views.SiteConfig, folders []views.FolderStat, uploads []views.Upload, message, csrfToken string) templ.Component
	NotFound       func(cfg views.SiteConfig) templ.Component
	ServerError    func(cfg views.SiteConfig) templ.Component
}

// DefaultViews returns the built-in templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Index:          views.Index,
		Gallery:        views.Gallery,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// App is the central pubgallery application. It wires together the store,
// manifest cache, discoverer, live handler, middleware and templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      *Store
	Cache      *ManifestCache
	Discoverer *discovery.Discoverer
	Live       *live.Handler
	Views      ViewFuncs

	prober       discovery.Prober
	loginLimiter *KeyLimiter
	apiLimiter   *KeyLimiter
	folderLocks  folderLocks
	customRoutes []func(*App)
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init validates the configuration and builds the store, engine,
// middleware and routes without listening.
func (a *App) Init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("pubgallery: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("pubgallery: SessionSecret is required")
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubgallery: %w", err)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubgallery: init store: %w", err)
	}
	a.Store = store

	a.Discoverer, err = a.newDiscoverer()
	if err != nil {
		return fmt.Errorf("pubgallery: init discovery: %w", err)
	}
	a.Cache = NewManifestCache(a.Store, a.Discoverer, a.Config.ManifestTTL, a.Echo.Logger)
	a.Live = live.NewHandler(live.Config{
		Cards:        a.liveCards(),
		Source:       a.Cache,
		Prober:       a.Discoverer.Prober,
		Hydration:    a.Config.hydration(),
		CardFade:     a.Config.cardFade(),
		LightboxFade: a.Config.lightboxFade(),
		AssetPrefix:  a.assetPrefix(),
		Log:          a.Echo.Logger,
	})

	a.loginLimiter = NewKeyLimiter(5, time.Minute)
	a.apiLimiter = NewKeyLimiter(120, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until the server is closed.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) newDiscoverer() (*discovery.Discoverer, error) {
	policy, err := a.Config.gapPolicy()
	if err != nil {
		return nil, err
	}
	p := a.prober
	if p == nil {
		if a.Config.AssetsBaseURL != "" {
			hp := discovery.NewHTTPProber(a.Config.AssetsBaseURL)
			hp.Timeout = a.Config.Discovery.ProbeTimeout
			p = hp
		} else {
			p = &discovery.FSProber{FS: os.DirFS(a.Config.AssetsDir), Prefix: assetRoot}
		}
	}
	d := discovery.NewDiscoverer(p, assetRoot)
	d.Extensions = a.Config.Discovery.Extensions
	d.Policy = policy
	d.SafetyCap = a.Config.Discovery.SafetyCap
	d.Log = a.Echo.Logger
	return d, nil
}

// assetRoot is the path prefix of every asset reference, and the route
// AssetsDir is served under.
const assetRoot = "imgs"

func (a *App) assetPrefix() string {
	if a.Config.AssetsBaseURL != "" {
		return a.Config.AssetsBaseURL
	}
	return "/"
}

func (a *App) liveCards() []live.Card {
	cards := make([]live.Card, 0, len(a.Config.Cards))
	for _, c := range a.Config.Cards {
		cards = append(cards, live.Card{
			Card:  hydrate.Card{ID: c.ID, Folder: c.Folder, Count: c.Count, Pairs: c.Pairs},
			Group: c.Group,
		})
	}
	return cards
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets first, then the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))
	for _, name := range []string{"live.js", "admin.js", "gallery.css"} {
		e.GET("/public/"+name, echo.WrapHandler(embeddedHandler))
	}
	e.Static("/public", a.Config.StaticDir)
	if a.Config.AssetsBaseURL == "" {
		e.Static("/"+assetRoot, a.Config.AssetsDir)
	}

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleIndex)
	e.GET("/gallery/:folder/", a.handleGallery)
	e.GET("/live", echo.WrapHandler(a.Live))

	api := e.Group("/api", a.rateLimit(a.apiLimiter))
	api.GET("/gallery/:folder", a.handleAPIGallery)
	api.GET("/gallery/:folder/first", a.handleAPIFirst)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.POST("/upload/", a.handleUpload)
	admin.DELETE("/images/:folder/:filename/", a.handleImageDelete)
	admin.POST("/rediscover/:folder/", a.handleRediscover)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubgallery: required environment variable %s is not set", key)
	}
	return v
}
