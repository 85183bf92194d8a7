// Package profile reconciles locally cached and remotely stored profile
// records and derives the in-memory user profile from them.
package profile

import (
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/handle"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
)

// Fallback supplies the values used when neither record has them, typically
// the provider display name and avatar.
type Fallback struct {
	Name   string
	Avatar *string
}

// Merge combines local and remote. The remote record is the base whenever it
// exists; each text field takes the first non-empty of base, local,
// fallback. Avatar takes the first non-nil of the same chain. Visibility is
// always the base's. Returns nil when both records are nil.
func Merge(local, remote *models.StoredProfile, fb Fallback) *models.StoredProfile {
	if local == nil && remote == nil {
		return nil
	}

	base := remote
	if base == nil {
		base = local
	}
	var loc models.StoredProfile
	if local != nil {
		loc = *local
	}

	merged := models.StoredProfile{
		Name:       firstSet(base.Name, loc.Name, fb.Name),
		Handle:     firstSet(base.Handle, loc.Handle),
		Bio:        firstSet(base.Bio, loc.Bio),
		Avatar:     firstPtr(base.Avatar, loc.Avatar, fb.Avatar),
		Visibility: base.Visibility,
	}
	return &merged
}

// Seed builds the first record for a user with no stored profile.
func Seed(fb Fallback) models.StoredProfile {
	return models.StoredProfile{
		Name:       fb.Name,
		Avatar:     copyPtr(fb.Avatar),
		Visibility: models.VisibilityOpen,
	}
}

// HasDiff reports whether a and b differ in any of the five fields. Two nil
// records are equal; nil and non-nil differ.
func HasDiff(a, b *models.StoredProfile) bool {
	if a == nil || b == nil {
		return a != b
	}
	return a.Name != b.Name ||
		a.Handle != b.Handle ||
		a.Bio != b.Bio ||
		!samePtr(a.Avatar, b.Avatar) ||
		a.Visibility != b.Visibility
}

// FromRemote converts a remote profile document. Non-string fields read as
// empty, avatar as nil, visibility as open unless it is "locked", and the
// handle is normalized. A nil document gives nil.
func FromRemote(doc map[string]any) *models.StoredProfile {
	if doc == nil {
		return nil
	}

	str := func(key string) string {
		s, _ := doc[key].(string)
		return s
	}

	var avatar *string
	if s, ok := doc["avatar"].(string); ok {
		avatar = &s
	}

	vis, _ := doc["visibility"].(string)
	return &models.StoredProfile{
		Name:       str("name"),
		Handle:     handle.Normalize(str("handle")),
		Bio:        str("bio"),
		Avatar:     avatar,
		Visibility: models.ParseVisibility(vis),
	}
}

// ToUser derives the in-memory profile for principal p. Missing stored
// values fall back to the principal's display name and photo.
func ToUser(p models.Principal, stored *models.StoredProfile) models.UserProfile {
	u := models.UserProfile{
		ID:         p.UID,
		Name:       p.DisplayName,
		Avatar:     models.StringPtr(p.PhotoURL),
		Visibility: models.VisibilityOpen,
	}
	if stored == nil {
		return u
	}

	u.Name = stored.Name
	u.Handle = stored.Handle
	u.Bio = stored.Bio
	if stored.Avatar != nil {
		u.Avatar = copyPtr(stored.Avatar)
	}
	if stored.Visibility != "" {
		u.Visibility = stored.Visibility
	}
	return u
}

// IsComplete reports whether name, handle and bio are non-blank and
// visibility is set. A nil profile is incomplete.
func IsComplete(u *models.UserProfile) bool {
	if u == nil {
		return false
	}
	return strings.TrimSpace(u.Name) != "" &&
		strings.TrimSpace(u.Handle) != "" &&
		strings.TrimSpace(u.Bio) != "" &&
		u.Visibility != ""
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPtr(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return copyPtr(v)
		}
	}
	return nil
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
