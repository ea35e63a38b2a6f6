package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkreserve/internal/auth"
	"parkreserve/internal/toast"
	"parkreserve/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

type fakeIdentity struct {
	identity   *auth.Identity
	err        error
	signOutErr error
	signedOut  bool
}

func (f *fakeIdentity) CurrentIdentity(ctx context.Context) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.identity == nil {
		return nil, auth.ErrNotAuthenticated
	}
	return f.identity, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.signedOut = true
	return nil
}

type fakeStore struct {
	records   map[string]*Record
	getErr    error
	updateErr error
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*Record{}}
}

func (f *fakeStore) Get(ctx context.Context, userID string) (*Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return rec, nil
}

func (f *fakeStore) Update(ctx context.Context, userID, fullName, phone string, updatedAt time.Time) error {
	f.writes++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.records[userID] = &Record{
		ID:        userID,
		FullName:  null.NewString(fullName, fullName != ""),
		Phone:     null.NewString(phone, phone != ""),
		UpdatedAt: updatedAt,
	}
	return nil
}

type fakeWallet struct {
	balanceCents int64
	err          error
}

func (f *fakeWallet) GetOrCreateWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &wallet.Wallet{UserID: userID, BalanceCents: f.balanceCents, Currency: "DZD"}, nil
}

// recorder captures toasts and navigation in one ordered log.
type recorder struct {
	events []string
	toasts []toast.Notification
}

func (r *recorder) Notify(ctx context.Context, n toast.Notification) {
	r.toasts = append(r.toasts, n)
	r.events = append(r.events, "toast:"+n.Title)
}

func (r *recorder) Navigate(path string) {
	r.events = append(r.events, "navigate:"+path)
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) SendProfileUpdated(ctx context.Context, to, name string) error {
	f.sent = append(f.sent, to+"|"+name)
	return f.err
}

type fixture struct {
	identity *fakeIdentity
	store    *fakeStore
	wallet   *fakeWallet
	rec      *recorder
	mailer   *fakeMailer
	page     *Page
}

func newFixture() *fixture {
	f := &fixture{
		identity: &fakeIdentity{identity: &auth.Identity{UserID: "user-1", Email: "ana@example.com"}},
		store:    newFakeStore(),
		wallet:   &fakeWallet{balanceCents: 123400},
		rec:      &recorder{},
		mailer:   &fakeMailer{},
	}
	f.page = f.newPage(InitialState())
	return f
}

func (f *fixture) newPage(st State) *Page {
	return NewPage(Deps{
		Identity:  f.identity,
		Store:     f.store,
		Wallet:    f.wallet,
		Notifier:  f.rec,
		Navigator: f.rec,
		Mailer:    f.mailer,
	}, st)
}

func TestInitialState(t *testing.T) {
	f := newFixture()

	v := f.page.View()
	assert.True(t, v.Loading)
	assert.False(t, v.Editing)
	assert.ErrorIs(t, f.page.Edit(), ErrInvalidTransition)
}

func TestLoad_NoIdentity(t *testing.T) {
	f := newFixture()
	f.identity.identity = nil

	err := f.page.Load(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Nil(t, f.page.State().Loaded)
	assert.True(t, f.page.State().Loading)
}

func TestLoad_IdentityFailureIsNotAuthRequired(t *testing.T) {
	f := newFixture()
	f.identity.err = errors.New("redis down")

	err := f.page.Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthRequired)
}

func TestLoad_EmptyProfileRecord(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.page.Load(context.Background()))

	v := f.page.View()
	assert.False(t, v.Loading)
	assert.Equal(t, "", v.Form.FullName)
	assert.Equal(t, "", v.Form.Phone)
	assert.Equal(t, "ana@example.com", v.Email)
	assert.Equal(t, "User", v.DisplayName)
	assert.Equal(t, "?", v.Initials)
	assert.Equal(t, "Not set", v.FullNameText)
	assert.Equal(t, "Not set", v.PhoneText)
	assert.Equal(t, "1,234 DZD", v.Balance)
}

func TestLoad_ProfileReadFailureDegrades(t *testing.T) {
	f := newFixture()
	f.store.getErr = errors.New("relation does not exist")

	require.NoError(t, f.page.Load(context.Background()))
	assert.Equal(t, UserProfile{Email: "ana@example.com"}, f.page.View().Form)
}

func TestLoad_WalletFailureDegrades(t *testing.T) {
	f := newFixture()
	f.wallet.err = errors.New("timeout")

	require.NoError(t, f.page.Load(context.Background()))
	assert.Equal(t, "Unavailable", f.page.View().Balance)
}

func TestLoad_DeadlineKeepsLoading(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.page.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, f.page.View().Loading)
}

func TestLoad_KeepsDraftWhileEditing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("Half typed", "55"))

	require.NoError(t, f.page.Load(ctx))

	v := f.page.View()
	assert.True(t, v.Editing)
	assert.Equal(t, "Half typed", v.Form.FullName)
	assert.Equal(t, "ana@example.com", v.Email)
}

func TestLoad_OtherUserResetsState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("Ana", ""))

	f.identity.identity = &auth.Identity{UserID: "user-2", Email: "bo@example.com"}
	require.NoError(t, f.page.Load(ctx))

	v := f.page.View()
	assert.False(t, v.Editing)
	assert.Equal(t, "bo@example.com", v.Email)
	assert.Equal(t, "", v.Form.FullName)
}

func TestSave_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("A B", "123"))

	require.NoError(t, f.page.Save(ctx))

	v := f.page.View()
	assert.False(t, v.Editing)
	require.Len(t, f.rec.toasts, 1)
	assert.Equal(t, "Profile Updated", f.rec.toasts[0].Title)
	assert.False(t, f.rec.toasts[0].Destructive())
	assert.Equal(t, []string{"ana@example.com|A B"}, f.mailer.sent)

	// A fresh page, as after a reload, reads the new values back.
	fresh := f.newPage(InitialState())
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, UserProfile{FullName: "A B", Email: "ana@example.com", Phone: "123"}, fresh.View().Form)
	assert.Equal(t, "AB", fresh.View().Initials)
}

func TestSave_NoIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("A B", "123"))

	f.identity.identity = nil
	err := f.page.Save(ctx)

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, f.store.writes)
	assert.True(t, f.page.View().Editing)
	require.Len(t, f.rec.toasts, 1)
	assert.True(t, f.rec.toasts[0].Destructive())
	assert.Equal(t, "Not authenticated", f.rec.toasts[0].Description)
}

func TestSave_WriteFailureKeepsEdits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("A B", "123"))

	f.store.updateErr = errors.New("permission denied for table profiles")
	err := f.page.Save(ctx)

	assert.Error(t, err)
	v := f.page.View()
	assert.True(t, v.Editing)
	assert.Equal(t, "A B", v.Form.FullName)
	require.Len(t, f.rec.toasts, 1)
	assert.Equal(t, "Update Failed", f.rec.toasts[0].Title)
	assert.Equal(t, "permission denied for table profiles", f.rec.toasts[0].Description)
	assert.Empty(t, f.mailer.sent)
}

func TestSave_InvalidForm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("A B", "0123456789012345678901234567890123456789"))

	err := f.page.Save(ctx)

	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.Zero(t, f.store.writes)
	assert.True(t, f.page.View().Editing)
	require.Len(t, f.rec.toasts, 1)
	assert.True(t, f.rec.toasts[0].Destructive())
}

func TestSave_MailFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("queue down")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())

	assert.NoError(t, f.page.Save(ctx))
	assert.False(t, f.page.View().Editing)
}

func TestSave_OnlyWhileEditing(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.page.Load(context.Background()))

	assert.ErrorIs(t, f.page.Save(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, f.page.Change("x", "y"), ErrInvalidTransition)
	assert.ErrorIs(t, f.page.Cancel(), ErrInvalidTransition)
}

func TestCancel_RevertsToLastLoaded(t *testing.T) {
	f := newFixture()
	f.store.records["user-1"] = &Record{ID: "user-1", FullName: null.StringFrom("Ana Lima"), Phone: null.StringFrom("555")}
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	require.NoError(t, f.page.Edit())
	require.NoError(t, f.page.Change("Something else", "000"))

	require.NoError(t, f.page.Cancel())

	v := f.page.View()
	assert.False(t, v.Editing)
	assert.Equal(t, UserProfile{FullName: "Ana Lima", Email: "ana@example.com", Phone: "555"}, v.Form)
	assert.Zero(t, f.store.writes)
}

func TestCancel_BlanksWhenNothingLoaded(t *testing.T) {
	f := newFixture()
	page := f.newPage(State{Mode: ModeEditing, Form: UserProfile{FullName: "typed"}})

	require.NoError(t, page.Cancel())
	assert.Equal(t, UserProfile{}, page.View().Form)
}

func TestSignOut_ToastBeforeNavigation(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.page.Load(context.Background()))

	require.NoError(t, f.page.SignOut(context.Background()))

	assert.True(t, f.identity.signedOut)
	assert.Equal(t, []string{"toast:Logged Out", "navigate:/"}, f.rec.events)
	assert.Nil(t, f.page.State().Loaded)
}

func TestSignOut_Failure(t *testing.T) {
	f := newFixture()
	f.identity.signOutErr = errors.New("network unreachable")
	require.NoError(t, f.page.Load(context.Background()))

	err := f.page.SignOut(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []string{"toast:Error"}, f.rec.events)
	assert.Equal(t, "network unreachable", f.rec.toasts[0].Description)
	assert.NotNil(t, f.page.State().Loaded)
}

func TestOpenWallet(t *testing.T) {
	f := newFixture()
	f.page.OpenWallet()
	assert.Equal(t, []string{"navigate:/wallet"}, f.rec.events)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "?", initials(""))
	assert.Equal(t, "AB", initials("A B"))
	assert.Equal(t, "ÉL", initials("Élodie  Lamy"))
	assert.Equal(t, "a", initials("ana"))
}
