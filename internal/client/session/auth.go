package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/profile"
	"github.com/dmitrijs2005/mapfriends/internal/client/providers"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

type attached struct {
	session models.Session
	profile models.UserProfile
	flags   models.OnboardingFlags
}

// exchange turns a credential into a backend principal.
type exchange func(ctx context.Context) (*models.Principal, models.ProfileHint, error)

func (c *Controller) SignInWithEmail(ctx context.Context, email, password string) error {
	return c.run(ctx, "sign_in_email", func(ctx context.Context, log logging.Logger) error {
		return c.authenticate(ctx, log, func(ctx context.Context) (*models.Principal, models.ProfileHint, error) {
			cred, err := providers.Password{Email: email, Secret: password}.Obtain(ctx)
			if err != nil {
				return nil, models.ProfileHint{}, err
			}
			p, err := c.backend.SignInPassword(ctx, cred.Email, cred.Password)
			return p, models.ProfileHint{}, err
		})
	})
}

// SignUpWithEmail creates an account. name is attached to the backend
// account on a best-effort basis and seeds the new profile.
func (c *Controller) SignUpWithEmail(ctx context.Context, name, email, password string) error {
	return c.run(ctx, "sign_up_email", func(ctx context.Context, log logging.Logger) error {
		return c.authenticate(ctx, log, func(ctx context.Context) (*models.Principal, models.ProfileHint, error) {
			cred, err := providers.Password{Email: email, Secret: password}.Obtain(ctx)
			if err != nil {
				return nil, models.ProfileHint{}, err
			}
			p, err := c.backend.SignUpPassword(ctx, cred.Email, cred.Password)
			if err != nil {
				return nil, models.ProfileHint{}, err
			}

			name = strings.TrimSpace(name)
			if name != "" {
				if err := c.backend.UpdateDisplayName(ctx, name); err != nil {
					log.Warn(ctx, "display name not attached", "error", err)
				}
			}
			return p, models.ProfileHint{Name: name}, nil
		})
	})
}

func (c *Controller) SignInWithGoogle(ctx context.Context) error {
	return c.run(ctx, "sign_in_google", func(ctx context.Context, log logging.Logger) error {
		if c.google == nil {
			return c.classify.New(autherr.ConfigurationMissing, autherr.NewCoded(autherr.CodeGoogleNotConfigured, "google sign-in is not configured"))
		}
		return c.authenticate(ctx, log, c.delegated(c.google))
	})
}

func (c *Controller) SignInWithApple(ctx context.Context) error {
	return c.run(ctx, "sign_in_apple", func(ctx context.Context, log logging.Logger) error {
		if c.apple == nil {
			return c.classify.New(autherr.ProviderUnavailable, autherr.NewCoded(autherr.CodeProviderUnavailable, "apple sign-in is not available"))
		}
		return c.authenticate(ctx, log, c.delegated(c.apple))
	})
}

func (c *Controller) delegated(a providers.Adapter) exchange {
	return func(ctx context.Context) (*models.Principal, models.ProfileHint, error) {
		cred, err := a.Obtain(ctx)
		if err != nil {
			return nil, models.ProfileHint{}, err
		}
		p, err := c.backend.SignInWithCredential(ctx, cred)
		return p, cred.Hint, err
	}
}

// authenticate runs ex while the session is Authenticating and attaches the
// resulting principal unless a newer sign-in attached first.
func (c *Controller) authenticate(ctx context.Context, log logging.Logger, ex exchange) error {
	c.mu.Lock()
	c.authGen++
	ag := c.authGen
	c.authInFlight++
	if c.state.Phase != PhaseSignedIn {
		c.state.Phase = PhaseAuthenticating
	}
	c.publishLocked()

	defer func() {
		c.mu.Lock()
		c.authInFlight--
		replay, ok := c.takeDeferredLocked()
		if c.authInFlight == 0 && c.state.Phase == PhaseAuthenticating {
			c.state.Phase = PhaseSignedOut
			if c.state.Session != nil {
				c.state.Phase = PhaseSignedIn
			}
			c.publishLocked()
		} else {
			c.mu.Unlock()
		}

		// No sign-in attached since the backend reported this change.
		if ok {
			log.Debug(ctx, "replaying principal change held back during sign-in")
			c.onPrincipal(replay)
		}
	}()

	p, hint, err := ex(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return autherr.NewCoded("", "backend returned no principal")
	}

	if c.superseded(ag) {
		return fmt.Errorf("sign-in for %s: %w", p.UID, common.ErrSuperseded)
	}

	a := c.load(ctx, log, p, hint)

	c.mu.Lock()
	if ag < c.settledAuth {
		c.mu.Unlock()
		return fmt.Errorf("sign-in for %s: %w", p.UID, common.ErrSuperseded)
	}
	c.settledAuth = ag
	c.deferred, c.hasDeferred = nil, false
	c.attachLocked(a)
	c.publishLocked()

	log.Info(ctx, "signed in", "uid", p.UID)
	return nil
}

func (c *Controller) superseded(ag uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ag < c.settledAuth
}

// load reads and reconciles the records of p and persists them when they are
// new or changed. Failures are logged and never fail the sign-in.
func (c *Controller) load(ctx context.Context, log logging.Logger, p *models.Principal, hint models.ProfileHint) attached {
	local := c.store.Profiles.Get(ctx, p.UID)
	flags := c.store.Onboarding.Get(ctx, p.UID)

	var remote *models.StoredProfile
	if c.remote != nil {
		doc, err := c.remote.FetchProfile(ctx, p.UID)
		if err != nil {
			log.Warn(ctx, "remote profile unavailable", "uid", p.UID, "error", err)
		} else {
			remote = profile.FromRemote(doc)
		}
	}

	fb := profile.Fallback{
		Name:   common.FirstNonEmpty(hint.Name, p.DisplayName),
		Avatar: hint.Avatar,
	}
	if fb.Avatar == nil {
		fb.Avatar = models.StringPtr(p.PhotoURL)
	}

	merged := profile.Merge(local, remote, fb)
	if merged == nil {
		seeded := profile.Seed(fb)
		merged = &seeded
	}

	var writeProfile *models.StoredProfile
	if local == nil || profile.HasDiff(local, merged) {
		writeProfile = merged
	}
	var writeFlags *models.OnboardingFlags
	if flags == nil {
		flags = &models.OnboardingFlags{}
		writeFlags = flags
	}
	if writeProfile != nil || writeFlags != nil {
		if err := c.persist(ctx, log, p.UID, writeProfile, writeFlags); err != nil {
			log.Warn(ctx, "records not persisted", "uid", p.UID, "error", err)
		}
	}

	return attached{
		session: models.Session{UID: p.UID, Email: p.Email, Active: true},
		profile: profile.ToUser(*p, merged),
		flags:   *flags,
	}
}

// SignOut ends the backend session. The in-memory session is cleared even
// when the backend fails.
func (c *Controller) SignOut(ctx context.Context) error {
	return c.run(ctx, "sign_out", func(ctx context.Context, log logging.Logger) error {
		err := c.backend.SignOut(ctx)

		c.mu.Lock()
		// In-flight sign-ins must not attach after this point.
		c.settledAuth = c.authGen + 1
		c.authGen = c.settledAuth
		c.deferred, c.hasDeferred = nil, false
		c.resetLocked()
		c.publishLocked()

		if err != nil {
			return err
		}
		log.Info(ctx, "signed out")
		return nil
	})
}

func (c *Controller) SendPasswordReset(ctx context.Context, email string) error {
	return c.run(ctx, "password_reset", func(ctx context.Context, log logging.Logger) error {
		email = strings.TrimSpace(email)
		if email == "" {
			return autherr.NewCoded(autherr.CodeInvalidEmail, "email is required")
		}
		return c.backend.SendPasswordReset(ctx, email)
	})
}
