// Package web holds the server-rendered pages and the data every page shares.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"

	"parkreserve/internal/logger"
	"parkreserve/internal/toast"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var files embed.FS

var templates = sync.OnceValue(func() *template.Template {
	return template.Must(template.New("").ParseFS(files, "templates/*.html"))
})

// Templates returns every page and partial, parsed once.
func Templates() *template.Template {
	return templates()
}

// Page is the root value passed to every full-page template.
type Page struct {
	Title string
	// Refresh makes the browser reload after the given seconds when > 0.
	Refresh int
	Toasts  []toast.Notification
	Data    any
}

// Error renders the plain error page.
func Error(c *gin.Context, status int, title, message string) {
	c.HTML(status, "error.html", Page{Title: title, Data: message})
}

// SessionCookie identifies a browser across requests, signed in or not.
// Page state and toasts are keyed by it.
const SessionCookie = "pr_session"

// SessionID returns the browser session id, issuing a new one when the
// cookie is missing or malformed.
func SessionID(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	// Later reads within the same request see the new id.
	c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	return id
}

type ToastDrainer interface {
	Drain(ctx context.Context, recipient string) ([]toast.Notification, error)
}

// DrainToasts takes the pending toasts of the current session. A nil drainer
// or a failing one yields no toasts.
func DrainToasts(c *gin.Context, d ToastDrainer) []toast.Notification {
	if d == nil {
		return nil
	}
	toasts, err := d.Drain(c.Request.Context(), SessionID(c))
	if err != nil {
		logger.Warn("failed to drain toasts", "error", err)
		return nil
	}
	return toasts
}
