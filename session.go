package pubgallery

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName   = "pubgallery_admin"
	sessionMaxAge = 12 * time.Hour
	keyLoggedIn   = "logged_in_at"
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/admin",
		HttpOnly: true,
		MaxAge:   int(sessionMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// IsAdmin reports whether the request carries a logged-in admin session
// younger than sessionMaxAge.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	at, ok := sess.Values[keyLoggedIn].(int64)
	if !ok {
		return false
	}
	return time.Since(time.Unix(at, 0)) < sessionMaxAge
}

// saveAdminSession starts (login) or expires (logout) the admin session.
func saveAdminSession(c echo.Context, login bool) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	if login {
		sess.Values[keyLoggedIn] = time.Now().Unix()
	} else {
		delete(sess.Values, keyLoggedIn)
		sess.Options.MaxAge = -1
	}
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the token the CSRF middleware stored for this request.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
