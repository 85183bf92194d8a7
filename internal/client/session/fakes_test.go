package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/i18n"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/storage"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

type fakeBackend struct {
	mu       sync.Mutex
	listener func(*models.Principal)

	signIn     func(ctx context.Context, email, password string) (*models.Principal, error)
	signUp     func(ctx context.Context, email, password string) (*models.Principal, error)
	credential func(ctx context.Context, cred models.Credential) (*models.Principal, error)

	signInCalls  int
	resets       []string
	resetErr     error
	displayNames []string
	displayErr   error
	creds        []models.Credential
	signOutCalls int
	signOutErr   error
}

func (b *fakeBackend) SignInPassword(ctx context.Context, email, password string) (*models.Principal, error) {
	b.mu.Lock()
	b.signInCalls++
	fn := b.signIn
	b.mu.Unlock()
	p, err := fn(ctx, email, password)
	if err == nil {
		b.emit(p)
	}
	return p, err
}

func (b *fakeBackend) SignUpPassword(ctx context.Context, email, password string) (*models.Principal, error) {
	p, err := b.signUp(ctx, email, password)
	if err == nil {
		b.emit(p)
	}
	return p, err
}

func (b *fakeBackend) SignInWithCredential(ctx context.Context, cred models.Credential) (*models.Principal, error) {
	b.mu.Lock()
	b.creds = append(b.creds, cred)
	b.mu.Unlock()
	p, err := b.credential(ctx, cred)
	if err == nil {
		b.emit(p)
	}
	return p, err
}

func (b *fakeBackend) SendPasswordReset(_ context.Context, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets = append(b.resets, email)
	return b.resetErr
}

func (b *fakeBackend) UpdateDisplayName(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displayNames = append(b.displayNames, name)
	return b.displayErr
}

func (b *fakeBackend) SignOut(_ context.Context) error {
	b.mu.Lock()
	b.signOutCalls++
	err := b.signOutErr
	b.mu.Unlock()
	b.emit(nil)
	return err
}

func (b *fakeBackend) Subscribe(fn func(*models.Principal)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listener = nil
	}
}

func (b *fakeBackend) Ping(context.Context) error { return nil }
func (b *fakeBackend) Close() error               { return nil }

func (b *fakeBackend) emit(p *models.Principal) {
	b.mu.Lock()
	fn := b.listener
	b.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

type fakeProfiles struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	owners   map[string]string
	fetchErr error
	ownerErr error
}

func (f *fakeProfiles) FetchProfile(_ context.Context, uid string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.docs[uid], nil
}

func (f *fakeProfiles) HandleOwner(_ context.Context, h string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ownerErr != nil {
		return "", f.ownerErr
	}
	return f.owners[h], nil
}

type fakeAdapter struct {
	provider models.Provider
	cred     models.Credential
	err      error
}

func (a *fakeAdapter) Provider() models.Provider { return a.provider }

func (a *fakeAdapter) Obtain(context.Context) (models.Credential, error) {
	return a.cred, a.err
}

type memRepo struct {
	mu       sync.Mutex
	data     map[string][]byte
	gets     int
	setErr   error
	setCalls int
	setMany  []int
}

func newMemRepo() *memRepo { return &memRepo{data: map[string][]byte{}} }

func (m *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	return m.data[key], nil
}

func (m *memRepo) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memRepo) SetMany(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setMany = append(m.setMany, len(values))
	if m.setErr != nil {
		return m.setErr
	}
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) failWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

type harness struct {
	c        *Controller
	backend  *fakeBackend
	profiles *fakeProfiles
	repo     *memRepo
	store    *storage.Store
}

func newHarness(t *testing.T, mod func(d *Deps, o *Options)) *harness {
	t.Helper()

	h := &harness{
		backend: &fakeBackend{
			signIn: func(_ context.Context, email, _ string) (*models.Principal, error) {
				return &models.Principal{UID: "uid-" + email, Email: email}, nil
			},
			signUp: func(_ context.Context, email, _ string) (*models.Principal, error) {
				return &models.Principal{UID: "new-" + email, Email: email}, nil
			},
			credential: func(_ context.Context, cred models.Credential) (*models.Principal, error) {
				return &models.Principal{UID: "fed-" + string(cred.Provider)}, nil
			},
		},
		profiles: &fakeProfiles{docs: map[string]map[string]any{}, owners: map[string]string{}},
		repo:     newMemRepo(),
	}
	h.store = storage.New(h.repo, "", logging.Discard())

	catalog := i18n.MustLoad().Catalog(i18n.BaseLocale)
	deps := Deps{
		Backend:    h.backend,
		Profiles:   h.profiles,
		Store:      h.store,
		Classifier: autherr.NewClassifier(catalog),
		Logger:     logging.Discard(),
	}
	opts := Options{WriteRetries: 2}
	if mod != nil {
		mod(&deps, &opts)
	}

	h.c = New(deps, opts)
	h.c.Start(context.Background())
	t.Cleanup(h.c.Close)
	return h
}

// signedOut resolves the initial restoration with no principal.
func (h *harness) signedOut(t *testing.T) {
	t.Helper()
	h.backend.emit(nil)
	require.Equal(t, PhaseSignedOut, h.c.State().Phase)
}

func (h *harness) signedIn(t *testing.T, email string) State {
	t.Helper()
	h.signedOut(t)
	require.NoError(t, h.c.SignInWithEmail(context.Background(), email, "secret"))
	st := h.c.State()
	require.Equal(t, PhaseSignedIn, st.Phase)
	return st
}
