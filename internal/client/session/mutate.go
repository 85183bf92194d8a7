package session

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/handle"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

// change edits the live profile and flags and reports which records to
// persist.
type change func(p *models.UserProfile, f *models.OnboardingFlags) (writeProfile, writeFlags bool)

func (c *Controller) AcceptTerms(ctx context.Context) error {
	return c.run(ctx, "accept_terms", func(ctx context.Context, log logging.Logger) error {
		return c.mutate(ctx, log, false, func(_ *models.UserProfile, f *models.OnboardingFlags) (bool, bool) {
			f.HasAcceptedTerms = true
			return false, true
		})
	})
}

func (c *Controller) CompleteOnboarding(ctx context.Context) error {
	return c.run(ctx, "complete_onboarding", func(ctx context.Context, log logging.Logger) error {
		return c.mutate(ctx, log, false, func(_ *models.UserProfile, f *models.OnboardingFlags) (bool, bool) {
			f.HasCompletedOnboarding = true
			return false, true
		})
	})
}

func (c *Controller) UpdateVisibility(ctx context.Context, v models.Visibility) error {
	return c.run(ctx, "update_visibility", func(ctx context.Context, log logging.Logger) error {
		return c.mutate(ctx, log, false, func(p *models.UserProfile, _ *models.OnboardingFlags) (bool, bool) {
			p.Visibility = models.ParseVisibility(string(v))
			return true, false
		})
	})
}

// CompleteProfile replaces the profile with in, keeping the avatar, and
// marks onboarding complete.
func (c *Controller) CompleteProfile(ctx context.Context, in ProfileInput) error {
	return c.run(ctx, "complete_profile", func(ctx context.Context, log logging.Logger) error {
		return c.mutate(ctx, log, true, func(p *models.UserProfile, f *models.OnboardingFlags) (bool, bool) {
			vis := in.Visibility
			if vis == "" {
				vis = models.VisibilityOpen
			}
			*p = models.UserProfile{
				ID:         p.ID,
				Name:       strings.TrimSpace(in.Name),
				Handle:     handle.Normalize(in.Handle),
				Bio:        strings.TrimSpace(in.Bio),
				Avatar:     p.Avatar,
				Visibility: models.ParseVisibility(string(vis)),
			}
			f.HasSkippedProfileSetup = false
			f.HasCompletedOnboarding = true
			return true, true
		})
	})
}

// SkipProfileSetup gives the profile a handle and visibility so the user can
// continue without filling it in.
func (c *Controller) SkipProfileSetup(ctx context.Context) error {
	return c.run(ctx, "skip_profile_setup", func(ctx context.Context, log logging.Logger) error {
		return c.mutate(ctx, log, true, func(p *models.UserProfile, f *models.OnboardingFlags) (bool, bool) {
			if p.Handle == "" {
				h := handle.Normalize(p.Name)
				if len(h) < 3 {
					h = handle.Fallback(p.ID)
				}
				p.Handle = h
			}
			if p.Visibility == "" {
				p.Visibility = models.VisibilityOpen
			}
			f.HasSkippedProfileSetup = true
			return true, true
		})
	})
}

// mutate applies fn in memory with Pending set, persists the touched records
// and rolls them back if the write keeps failing. Without a session it is a
// no-op, or ErrNoSession when requireSession is set.
func (c *Controller) mutate(ctx context.Context, log logging.Logger, requireSession bool, fn change) error {
	c.mu.Lock()
	if c.state.Session == nil {
		c.mu.Unlock()
		if requireSession {
			return c.classify.New(autherr.Unknown, common.ErrNoSession)
		}
		log.Debug(ctx, "no session, nothing to update")
		return nil
	}

	uid := c.state.Session.UID
	var p models.UserProfile
	if c.state.Profile != nil {
		p = c.state.Profile.Clone()
	} else {
		p = models.UserProfile{ID: uid, Visibility: models.VisibilityOpen}
	}
	f := c.state.Onboarding
	writeProfile, writeFlags := fn(&p, &f)

	c.mutGen++
	mg := c.mutGen
	if writeProfile {
		c.profileGen = mg
	}
	if writeFlags {
		c.flagsGen = mg
	}
	c.pending++

	live := p.Clone()
	c.state.Profile = &live
	c.state.Onboarding = f
	c.state.Pending = true
	c.publishLocked()

	var sp *models.StoredProfile
	if writeProfile {
		stored := p.Stored()
		sp = &stored
	}
	var sf *models.OnboardingFlags
	if writeFlags {
		sf = &f
	}
	err := c.persist(ctx, log, uid, sp, sf)

	c.mu.Lock()
	c.pending--
	if c.state.Session == nil || c.state.Session.UID != uid {
		// Signed out or switched user while writing.
		c.state.Pending = c.pending > 0
		c.publishLocked()
		if err != nil {
			return c.classify.New(autherr.Unknown, err)
		}
		return nil
	}

	if err == nil {
		if writeProfile {
			committed := p.Clone()
			c.committed.profile = &committed
		}
		if writeFlags {
			c.committed.flags = f
		}
	} else {
		if writeProfile && c.profileGen == mg {
			c.state.Profile = nil
			if c.committed.profile != nil {
				restored := c.committed.profile.Clone()
				c.state.Profile = &restored
			}
		}
		if writeFlags && c.flagsGen == mg {
			c.state.Onboarding = c.committed.flags
		}
	}
	c.state.Pending = c.pending > 0
	c.publishLocked()

	if err != nil {
		log.Error(ctx, "update rolled back", "uid", uid, "error", err)
		return c.classify.New(autherr.Unknown, err)
	}
	return nil
}

// persist commits the records, retrying up to Options.WriteRetries times.
func (c *Controller) persist(ctx context.Context, log logging.Logger, uid string, p *models.StoredProfile, f *models.OnboardingFlags) error {
	var err error
	for attempt := 0; attempt <= c.opts.WriteRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(c.opts.RetryBackoff * time.Duration(attempt)):
			}
		}
		if err = c.store.Commit(ctx, uid, p, f); err == nil {
			return nil
		}
		log.Warn(ctx, "store write failed", "uid", uid, "attempt", attempt+1, "error", err)
	}
	return err
}

// CheckHandleAvailability reports whether raw, once normalized, can be
// claimed by the current user.
func (c *Controller) CheckHandleAvailability(ctx context.Context, raw string) (HandleStatus, error) {
	h := handle.Normalize(raw)
	if !handle.IsValidFormat(h) {
		return HandleInvalid, nil
	}
	if handle.IsReserved(h) {
		return HandleReserved, nil
	}
	if c.remote == nil {
		return HandleAvailable, nil
	}

	owner, err := c.remote.HandleOwner(ctx, h)
	if err != nil {
		return "", c.classify.Classify(err)
	}

	c.mu.Lock()
	var uid string
	if c.state.Session != nil {
		uid = c.state.Session.UID
	}
	c.mu.Unlock()
	if owner == "" || owner == uid {
		return HandleAvailable, nil
	}
	return HandleTaken, nil
}
