package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mapfriends/internal/buildinfo"
	"github.com/dmitrijs2005/mapfriends/internal/client/appversion"
	"github.com/dmitrijs2005/mapfriends/internal/client/authconfig"
	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/client"
	"github.com/dmitrijs2005/mapfriends/internal/client/config"
	"github.com/dmitrijs2005/mapfriends/internal/client/i18n"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/providers"
	"github.com/dmitrijs2005/mapfriends/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mapfriends/internal/client/session"
	"github.com/dmitrijs2005/mapfriends/internal/client/storage"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/cryptox"
	"github.com/dmitrijs2005/mapfriends/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const retryBackoff = 200 * time.Millisecond

// sessionAPI is the part of session.Controller the commands use.
type sessionAPI interface {
	Start(ctx context.Context)
	Close()
	State() session.State
	SignInWithEmail(ctx context.Context, email, password string) error
	SignUpWithEmail(ctx context.Context, name, email, password string) error
	SignInWithGoogle(ctx context.Context) error
	SignInWithApple(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	AcceptTerms(ctx context.Context) error
	CompleteOnboarding(ctx context.Context) error
	CompleteProfile(ctx context.Context, in session.ProfileInput) error
	SkipProfileSetup(ctx context.Context) error
	UpdateVisibility(ctx context.Context, v models.Visibility) error
	CheckHandleAvailability(ctx context.Context, raw string) (session.HandleStatus, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session sessionAPI
	pinger  pinger
	version appversion.Info
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error

	mu   sync.Mutex
	Mode Mode
}

// NewApp builds the client from c. The returned App owns every resource it
// opened; Run releases them.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogFormat, c.LogLevel)

	bundle, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	catalog := bundle.Catalog(c.Locale)

	repo, closeRepo, err := openRepository(ctx, c)
	if err != nil {
		log.Error(ctx, "error opening local storage", "backend", c.StorageBackend, "error", err)
		return nil, err
	}

	sessions := repo
	if c.SessionSecret != "" {
		sessions = kv.NewSealedRepository(repo, cryptox.DeriveKey([]byte(c.SessionSecret), []byte(c.Namespace)))
	}

	backend, err := client.NewGRPCClient(c.BackendAddr, sessions, c.Namespace, c.RequestTimeout, log)
	if err != nil {
		_ = closeRepo()
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	ids := authconfig.ResolveGoogleClientIDs(c.ApplicationID, authconfig.GoogleEnv{
		IOSDev:        c.Google.IOSDev,
		IOSProd:       c.Google.IOSProd,
		IOSLegacy:     c.Google.IOSLegacy,
		AndroidDev:    c.Google.AndroidDev,
		AndroidProd:   c.Google.AndroidProd,
		AndroidLegacy: c.Google.AndroidLegacy,
		Web:           c.Google.Web,
	})

	ctrl := session.New(session.Deps{
		Backend:    backend,
		Profiles:   backend,
		Store:      storage.New(repo, c.Namespace, log),
		Classifier: autherr.NewClassifier(catalog),
		Google:     providers.NewGoogle(&stdinGoogle{reader: reader, w: os.Stdout}, ids.ForPlatform(c.Platform), authconfig.Scheme(c.AuthScheme)),
		Apple:      providers.NewApple(&stdinApple{reader: reader, w: os.Stdout, platform: c.Platform}),
		Logger:     log,
	}, session.Options{WriteRetries: c.WriteRetries, RetryBackoff: retryBackoff})

	log.Debug(ctx, "client configured",
		"backend", c.BackendAddr,
		"storage", c.StorageBackend,
		"platform", c.Platform,
		"locale", catalog.Locale(),
		"dev_flavor", ids.IsDevFlavor,
		"sealed_session", c.SessionSecret != "")

	return &App{
		config:  c,
		session: ctrl,
		pinger:  backend,
		version: resolveVersion(c),
		log:     log,
		reader:  reader,
		out:     os.Stdout,
		closers: []func() error{backend.Close, closeRepo},
	}, nil
}

func openRepository(ctx context.Context, c *config.Config) (kv.Repository, func() error, error) {
	switch c.StorageBackend {
	case config.StorageRedis:
		rc, err := kv.NewRedisClient(c.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv.NewRedisRepository(rc, 0), rc.Close, nil
	default:
		db, err := client.InitDatabase(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewSQLiteRepository(db), db.Close, nil
	}
}

func resolveVersion(c *config.Config) appversion.Info {
	return appversion.Resolve(appversion.Source{
		NativeVersion:      common.FirstNonEmpty(buildinfo.Version, c.App.NativeVersion),
		NativeBuild:        common.FirstNonEmpty(buildinfo.Build, c.App.NativeBuild),
		ConfigVersion:      c.App.Version,
		IOSBuildNumber:     c.App.IOSBuildNumber,
		AndroidVersionCode: c.App.AndroidVersionCode,
		Platform:           c.Platform,
	})
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed && a.log != nil {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the session and the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.session.Start(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

// Close stops the session and releases the backend and storage.
func (a *App) Close() error {
	if a.session != nil {
		a.session.Close()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated()
}

// StartOnlineStatusWatcher pings the backend every interval and tracks the
// connectivity mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.pinger.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	var parts []string
	if st := a.session.State(); st.Session != nil {
		parts = append(parts, common.FirstNonEmpty(st.Session.Email, st.Session.UID))
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to MapFriends CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
