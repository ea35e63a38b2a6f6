// Package profile implements the profile screen: a two-state page
// (viewing, editing) over an identity provider, a profile store and a wallet.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"parkreserve/internal/api"
	"parkreserve/internal/auth"
	"parkreserve/internal/logger"
	"parkreserve/internal/metrics"
	"parkreserve/internal/toast"
	"parkreserve/internal/wallet"
)

var (
	// ErrAuthRequired is returned when there is no signed-in identity. It is
	// an expected outcome and must not be reported as a system failure.
	ErrAuthRequired      = errors.New("authentication required")
	ErrInvalidTransition = errors.New("invalid profile page transition")
	ErrInvalidForm       = errors.New("invalid profile form")
)

const (
	LandingPath = "/"
	WalletPath  = "/wallet"
)

type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (*auth.Identity, error)
	SignOut(ctx context.Context) error
}

type WalletReader interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*wallet.Wallet, error)
}

type Notifier interface {
	Notify(ctx context.Context, n toast.Notification)
}

type Navigator interface {
	Navigate(path string)
}

type Mailer interface {
	SendProfileUpdated(ctx context.Context, to, name string) error
}

// Deps are the collaborators of a Page. Mailer may be nil.
type Deps struct {
	Identity  IdentityProvider
	Store     Store
	Wallet    WalletReader
	Notifier  Notifier
	Navigator Navigator
	Mailer    Mailer
}

type Page struct {
	deps  Deps
	state State
	now   func() time.Time
}

func NewPage(deps Deps, state State) *Page {
	if state.Mode == "" {
		state = InitialState()
	}
	return &Page{deps: deps, state: state, now: time.Now}
}

func (p *Page) State() State {
	return p.state
}

// Load fetches the identity, profile and balance. A missing or unreadable
// profile row degrades to empty fields. While editing, the form in progress
// is kept.
func (p *Page) Load(ctx context.Context) error {
	id, err := p.deps.Identity.CurrentIdentity(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		p.state = InitialState()
		return ErrAuthRequired
	}
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	if p.state.UserID != "" && p.state.UserID != id.UserID {
		p.state = InitialState()
	}

	loaded := UserProfile{Email: id.Email}
	rec, err := p.deps.Store.Get(ctx, id.UserID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		logger.Debug("no profile row yet", "user_id", id.UserID)
	case err != nil:
		logger.Warn("failed to read profile", "user_id", id.UserID, "error", err)
	default:
		loaded.FullName = rec.FullName.String
		loaded.Phone = rec.Phone.String
	}

	var balance Balance
	w, err := p.deps.Wallet.GetOrCreateWallet(ctx, id.UserID)
	if err != nil {
		logger.Warn("failed to read wallet", "user_id", id.UserID, "error", err)
	} else {
		balance = Balance{Amount: w.Balance(), Currency: w.Currency, Available: true}
	}

	// Past the deadline the reads above may have degraded silently; stay loading.
	if err := ctx.Err(); err != nil {
		return err
	}

	p.state.UserID = id.UserID
	p.state.Loaded = &loaded
	p.state.Balance = balance
	p.state.Loading = false
	if p.state.Mode == ModeViewing {
		p.state.Form = loaded
	} else {
		p.state.Form.Email = loaded.Email
	}
	return nil
}

// Edit enters editing with the form seeded from the last loaded profile.
func (p *Page) Edit() error {
	if p.state.Loading || p.state.Mode != ModeViewing {
		return ErrInvalidTransition
	}
	p.state.Form = p.lastLoaded()
	p.state.Mode = ModeEditing
	return nil
}

// Change updates the editable fields. Email is not one of them.
func (p *Page) Change(fullName, phone string) error {
	if p.state.Mode != ModeEditing {
		return ErrInvalidTransition
	}
	p.state.Form.FullName = fullName
	p.state.Form.Phone = phone
	return nil
}

func (p *Page) Save(ctx context.Context) error {
	if p.state.Mode != ModeEditing {
		return ErrInvalidTransition
	}

	id, err := p.deps.Identity.CurrentIdentity(ctx)
	if err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			logger.Warn("identity check failed before save", "error", err)
		}
		metrics.RecordProfileSave("unauthenticated")
		p.notify(ctx, toast.Failure("Error", "Not authenticated"))
		return ErrAuthRequired
	}

	form := p.state.Form
	if errs := api.ValidateStruct(formInput{FullName: form.FullName, Phone: form.Phone}); len(errs) > 0 {
		metrics.RecordProfileSave("invalid")
		p.notify(ctx, toast.Failure("Update Failed", errs[0].Message))
		return ErrInvalidForm
	}

	if err := p.deps.Store.Update(ctx, id.UserID, form.FullName, form.Phone, p.now()); err != nil {
		logger.Error("failed to update profile", "user_id", id.UserID, "error", err)
		metrics.RecordProfileSave("failed")
		msg := err.Error()
		if msg == "" {
			msg = "There was an error updating your profile."
		}
		p.notify(ctx, toast.Failure("Update Failed", msg))
		return fmt.Errorf("save profile: %w", err)
	}

	saved := form
	if p.state.Loaded != nil {
		saved.Email = p.state.Loaded.Email
	} else {
		saved.Email = id.Email
	}
	p.state.Loaded = &saved
	p.state.Form = saved
	p.state.Mode = ModeViewing

	metrics.RecordProfileSave("saved")
	p.notify(ctx, toast.Success("Profile Updated", "Your profile information has been updated successfully."))

	if p.deps.Mailer != nil {
		if err := p.deps.Mailer.SendProfileUpdated(ctx, id.Email, displayName(saved.FullName)); err != nil {
			logger.Warn("profile update mail not queued", "user_id", id.UserID, "error", err)
		}
	}
	return nil
}

// Cancel drops the edits and restores the last loaded profile.
func (p *Page) Cancel() error {
	if p.state.Mode != ModeEditing {
		return ErrInvalidTransition
	}
	p.state.Form = p.lastLoaded()
	p.state.Mode = ModeViewing
	return nil
}

// SignOut notifies before navigating to the landing route. On failure the
// user stays on the page, still signed in.
func (p *Page) SignOut(ctx context.Context) error {
	if err := p.deps.Identity.SignOut(ctx); err != nil {
		metrics.RecordSignOut("failed")
		p.notify(ctx, toast.Failure("Error", err.Error()))
		return fmt.Errorf("sign out: %w", err)
	}

	metrics.RecordSignOut("ok")
	p.notify(ctx, toast.Success("Logged Out", "You have been successfully logged out."))
	p.state = InitialState()
	p.deps.Navigator.Navigate(LandingPath)
	return nil
}

func (p *Page) OpenWallet() {
	p.deps.Navigator.Navigate(WalletPath)
}

func (p *Page) View() View {
	form := p.state.Form
	v := View{
		Loading:      p.state.Loading,
		Editing:      p.state.Mode == ModeEditing,
		Form:         form,
		Email:        form.Email,
		DisplayName:  displayName(form.FullName),
		Initials:     initials(form.FullName),
		FullNameText: orNotSet(form.FullName),
		PhoneText:    orNotSet(form.Phone),
		Balance:      "Unavailable",
	}
	if b := p.state.Balance; b.Available {
		v.Balance = wallet.FormatBalance(b.Amount, b.Currency)
	}
	return v
}

func (p *Page) lastLoaded() UserProfile {
	if p.state.Loaded != nil {
		return *p.state.Loaded
	}
	return UserProfile{}
}

func (p *Page) notify(ctx context.Context, n toast.Notification) {
	if p.deps.Notifier != nil {
		p.deps.Notifier.Notify(ctx, n)
	}
}

func displayName(fullName string) string {
	if fullName == "" {
		return "User"
	}
	return fullName
}

func initials(fullName string) string {
	if fullName == "" {
		return "?"
	}
	var b strings.Builder
	for _, part := range strings.Split(fullName, " ") {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}
