package pubgallery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/hydrate"
	"github.com/eringen/pubgallery/views"
)

func (a *App) handleIndex(c echo.Context) error {
	cards := make([]views.Card, 0, len(a.Config.Cards))
	for _, cc := range a.Config.Cards {
		cards = append(cards, viewCard(cc))
	}
	return Render(c, a.Views.Index(a.siteView(), cards))
}

func (a *App) handleGallery(c echo.Context) error {
	folder := c.Param("folder")
	if !validFolder(folder) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
	}
	card, configured := a.cardFor(folder)
	m, err := a.Cache.Get(c.Request().Context(), folder, card.Pairs, card.Count)
	if err != nil {
		return err
	}
	if len(m.Entries) == 0 && !configured {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
	}
	assets := make([]views.Asset, len(m.Entries))
	for i, e := range m.Entries {
		assets[i] = views.Asset{
			Index: i + 1,
			Src:   a.assetURL(e.Low),
			Full:  a.assetURL(e.Best()),
		}
	}
	return Render(c, a.Views.Gallery(a.siteView(), viewCard(card), assets))
}

type apiPair struct {
	Low  string `json:"low"`
	High string `json:"high,omitempty"`
}

type apiManifest struct {
	Folder       string    `json:"folder"`
	Mode         string    `json:"mode"`
	Limit        int       `json:"limit"`
	Assets       []string  `json:"assets,omitempty"`
	Pairs        []apiPair `json:"pairs,omitempty"`
	Count        int       `json:"count"`
	Probes       int       `json:"probes"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type apiError struct {
	Error string `json:"error"`
}

// apiParams reads the folder, ?count= and ?pairs= shared by the API routes.
func apiParams(c echo.Context) (folder string, count int, pairs bool, err error) {
	folder = c.Param("folder")
	if !validFolder(folder) {
		return "", 0, false, echo.NewHTTPError(http.StatusBadRequest, "invalid folder")
	}
	if s := c.QueryParam("count"); s != "" {
		count, err = strconv.Atoi(s)
		if err != nil {
			return "", 0, false, echo.NewHTTPError(http.StatusBadRequest, "count must be an integer")
		}
	}
	switch c.QueryParam("pairs") {
	case "", "0", "false":
	case "1", "true":
		pairs = true
	default:
		return "", 0, false, echo.NewHTTPError(http.StatusBadRequest, "pairs must be 0 or 1")
	}
	return folder, count, pairs, nil
}

func (a *App) handleAPIGallery(c echo.Context) error {
	folder, count, pairs, err := apiParams(c)
	if err != nil {
		return apiFail(c, err)
	}
	m, err := a.Cache.Get(c.Request().Context(), folder, pairs, count)
	if err != nil {
		return err
	}
	out := apiManifest{
		Folder:       m.Folder,
		Mode:         m.Mode,
		Limit:        m.Limit,
		Count:        len(m.Entries),
		Probes:       m.Probes,
		DiscoveredAt: m.DiscoveredAt.UTC(),
	}
	if pairs {
		out.Pairs = make([]apiPair, len(m.Entries))
		for i, e := range m.Entries {
			out.Pairs[i] = a.apiPair(e)
		}
	} else {
		out.Assets = make([]string, len(m.Entries))
		for i, e := range m.Entries {
			out.Assets[i] = a.assetURL(e.Low)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleAPIFirst(c echo.Context) error {
	folder, _, pairs, err := apiParams(c)
	if err != nil {
		return apiFail(c, err)
	}
	p, ok := a.Cache.First(c.Request().Context(), hydrate.Card{Folder: folder, Pairs: pairs})
	if !ok {
		return c.JSON(http.StatusNotFound, apiError{Error: "no assets in " + folder})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"folder": folder,
		"asset":  a.assetURL(p.Low),
		"pair":   a.apiPair(p),
	})
}

func apiFail(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, _ := he.Message.(string)
		return c.JSON(he.Code, apiError{Error: msg})
	}
	return err
}

func (a *App) apiPair(p discovery.Pair) apiPair {
	out := apiPair{Low: a.assetURL(p.Low)}
	if p.High != "" {
		out.High = a.assetURL(p.High)
	}
	return out
}

func (a *App) handleSitemap(c echo.Context) error {
	manifests, err := a.Store.ListManifests()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, manifests)
}

func (a *App) handleFeed(c echo.Context) error {
	uploads, err := a.Store.RecentUploads(50)
	if err != nil {
		return err
	}
	return a.renderRSS(c, uploads)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.siteView()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
