package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	"parkreserve/internal/api"
	"parkreserve/internal/auth"
	"parkreserve/internal/logger"
	"parkreserve/internal/toast"
	"parkreserve/internal/web"

	"github.com/gin-gonic/gin"
)

type StateStore interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, st State) error
}

type Toasts interface {
	toast.Pusher
	web.ToastDrainer
}

type Handler struct {
	identity    IdentityProvider
	store       Store
	wallet      WalletReader
	mailer      Mailer
	states      StateStore
	toasts      Toasts
	loadTimeout time.Duration
}

type HandlerConfig struct {
	Identity    IdentityProvider
	Store       Store
	Wallet      WalletReader
	Mailer      Mailer
	States      StateStore
	Toasts      Toasts
	LoadTimeout time.Duration
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 3 * time.Second
	}
	return &Handler{
		identity:    cfg.Identity,
		store:       cfg.Store,
		wallet:      cfg.Wallet,
		mailer:      cfg.Mailer,
		states:      cfg.States,
		toasts:      cfg.Toasts,
		loadTimeout: cfg.LoadTimeout,
	}
}

// redirectNavigator records where the page wants to go; the handler turns it
// into a 303 after the action.
type redirectNavigator struct {
	target string
}

func (n *redirectNavigator) Navigate(path string) {
	n.target = path
}

func (h *Handler) restore(c *gin.Context, nav Navigator) (*Page, string) {
	ctx := c.Request.Context()
	sessionID := web.SessionID(c)

	st, err := h.states.Load(ctx, sessionID)
	if err != nil {
		logger.Warn("page state lost", "error", err)
	}

	page := NewPage(Deps{
		Identity:  h.identity,
		Store:     h.store,
		Wallet:    h.wallet,
		Notifier:  toast.NewNotifier(h.toasts, sessionID),
		Navigator: nav,
		Mailer:    h.mailer,
	}, st)
	return page, sessionID
}

func (h *Handler) persist(ctx context.Context, sessionID string, page *Page) {
	if err := h.states.Save(ctx, sessionID, page.State()); err != nil {
		logger.Warn("failed to persist page state", "error", err)
	}
}

// Show renders the profile page.
func (h *Handler) Show(c *gin.Context) {
	page, sessionID := h.restore(c, &redirectNavigator{})
	ctx := c.Request.Context()

	loadCtx, cancel := context.WithTimeout(ctx, h.loadTimeout)
	defer cancel()

	err := page.Load(loadCtx)
	switch {
	case errors.Is(err, ErrAuthRequired):
		h.persist(ctx, sessionID, page)
		c.HTML(http.StatusUnauthorized, "auth_required.html", web.Page{
			Title:  "Profile",
			Toasts: web.DrainToasts(c, h.toasts),
		})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.HTML(http.StatusAccepted, "loading.html", web.Page{Title: "Profile", Refresh: 1})
		return
	case err != nil:
		logger.Error("failed to load profile", "error", err)
		web.Error(c, http.StatusInternalServerError, "Something went wrong", "")
		return
	}

	h.persist(ctx, sessionID, page)
	c.HTML(http.StatusOK, "profile.html", web.Page{
		Title:  "Profile",
		Toasts: web.DrainToasts(c, h.toasts),
		Data:   page.View(),
	})
}

// act runs one page action and answers with a redirect, to the navigator
// target if the action set one, else back to the profile page.
func (h *Handler) act(c *gin.Context, action func(ctx context.Context, page *Page) error) {
	nav := &redirectNavigator{}
	page, sessionID := h.restore(c, nav)
	ctx := c.Request.Context()

	if err := action(ctx, page); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			logger.Debug("ignored profile action", "path", c.FullPath(), "mode", page.State().Mode)
		} else {
			logger.Debug("profile action failed", "path", c.FullPath(), "error", err)
		}
	}
	h.persist(ctx, sessionID, page)

	target := "/profile"
	if nav.target != "" {
		target = nav.target
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *Handler) Edit(c *gin.Context) {
	h.act(c, func(ctx context.Context, page *Page) error {
		return page.Edit()
	})
}

func (h *Handler) Save(c *gin.Context) {
	fullName, phone := c.PostForm("full_name"), c.PostForm("phone")
	h.act(c, func(ctx context.Context, page *Page) error {
		if err := page.Change(fullName, phone); err != nil {
			return err
		}
		return page.Save(ctx)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	h.act(c, func(ctx context.Context, page *Page) error {
		return page.Cancel()
	})
}

func (h *Handler) Logout(c *gin.Context) {
	h.act(c, func(ctx context.Context, page *Page) error {
		if err := page.SignOut(ctx); err != nil {
			return err
		}
		auth.ClearTokenCookie(c)
		return nil
	})
}

func (h *Handler) Wallet(c *gin.Context) {
	h.act(c, func(ctx context.Context, page *Page) error {
		page.OpenWallet()
		return nil
	})
}

// Get godoc
// @Summary      Current profile
// @Description  Profile fields, display helpers and formatted wallet balance of the signed-in user.
// @Tags         profile
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  profile.View
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /api/profile [get]
func (h *Handler) Get(c *gin.Context) {
	page := NewPage(Deps{
		Identity: h.identity,
		Store:    h.store,
		Wallet:   h.wallet,
	}, InitialState())

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.loadTimeout)
	defer cancel()

	if err := page.Load(ctx); err != nil {
		if errors.Is(err, ErrAuthRequired) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
			return
		}
		logger.Error("failed to load profile", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, page.View())
}
