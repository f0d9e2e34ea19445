package pubgallery

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubgallery/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.siteView(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := saveAdminSession(c, true); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.siteView(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := saveAdminSession(c, false); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleRediscover drops a folder's manifests and scans it again in every
// mode its card uses.
func (a *App) handleRediscover(c echo.Context) error {
	folder := c.Param("folder")
	if !validFolder(folder) {
		return c.String(http.StatusBadRequest, "Invalid folder")
	}
	if err := a.Cache.Invalidate(folder); err != nil {
		return err
	}
	card, _ := a.cardFor(folder)
	m, err := a.Cache.Get(c.Request().Context(), folder, card.Pairs, card.Count)
	if err != nil {
		return err
	}
	return redirectWithMessage(c, fmt.Sprintf("Rediscovered %s: %d entries", folder, len(m.Entries)))
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	manifests, err := a.Store.ListManifests()
	if err != nil {
		return err
	}
	folders := make([]views.FolderStat, 0, len(manifests))
	for _, m := range manifests {
		folders = append(folders, views.FolderStat{
			Folder:       m.Folder,
			Mode:         m.Mode,
			Entries:      len(m.Entries),
			Probes:       m.Probes,
			DiscoveredAt: m.DiscoveredAt.Local().Format(time.DateTime),
		})
	}
	uploads, err := a.Store.ListUploads("")
	if err != nil {
		return err
	}
	items := make([]views.Upload, 0, len(uploads))
	for _, u := range uploads {
		items = append(items, a.viewUpload(u))
	}
	return Render(c, a.Views.AdminDashboard(a.siteView(), folders, items, msg, CsrfToken(c)))
}
