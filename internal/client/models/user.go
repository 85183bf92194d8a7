// Package models defines the account, profile and onboarding types shared by
// the auth client packages.
package models

// Visibility controls who can see a profile.
type Visibility string

const (
	VisibilityOpen   Visibility = "open"
	VisibilityLocked Visibility = "locked"
)

// ParseVisibility maps anything other than "locked" to VisibilityOpen.
func ParseVisibility(s string) Visibility {
	if Visibility(s) == VisibilityLocked {
		return VisibilityLocked
	}
	return VisibilityOpen
}

// Principal is the signed-in identity reported by the identity backend.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Session is the live binding to a backend principal.
type Session struct {
	UID    string
	Email  string
	Active bool
}

// UserProfile is the canonical in-memory profile of the signed-in user.
// Handle always matches [a-z0-9_]{0,20}.
type UserProfile struct {
	ID         string
	Name       string
	Handle     string
	Bio        string
	Avatar     *string
	Visibility Visibility
}

// Clone returns a copy that shares no pointers with p.
func (p UserProfile) Clone() UserProfile {
	p.Avatar = cloneString(p.Avatar)
	return p
}

// Stored returns the persisted form of p.
func (p UserProfile) Stored() StoredProfile {
	return StoredProfile{
		Name:       p.Name,
		Handle:     p.Handle,
		Bio:        p.Bio,
		Avatar:     cloneString(p.Avatar),
		Visibility: p.Visibility,
	}
}

// StoredProfile is the profile record kept in local storage and in the
// remote profile document.
type StoredProfile struct {
	Name       string     `json:"name"`
	Handle     string     `json:"handle"`
	Bio        string     `json:"bio"`
	Avatar     *string    `json:"avatar"`
	Visibility Visibility `json:"visibility"`
}

// Clone returns a copy that shares no pointers with p.
func (p StoredProfile) Clone() StoredProfile {
	p.Avatar = cloneString(p.Avatar)
	return p
}

// OnboardingFlags track onboarding progress. The zero value is the default
// state.
type OnboardingFlags struct {
	HasAcceptedTerms       bool `json:"hasAcceptedTerms"`
	HasSkippedProfileSetup bool `json:"hasSkippedProfileSetup"`
	HasCompletedOnboarding bool `json:"hasCompletedOnboarding"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
