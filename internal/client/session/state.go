package session

import (
	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/profile"
)

// Phase is the coarse state of the session.
type Phase string

const (
	// PhaseResolving is the initial phase while the backend restores a
	// previous session.
	PhaseResolving      Phase = "resolving"
	PhaseSignedOut      Phase = "signed_out"
	PhaseAuthenticating Phase = "authenticating"
	PhaseSignedIn       Phase = "signed_in"
)

// State is an immutable snapshot of the controller.
type State struct {
	Phase      Phase
	Session    *models.Session
	Profile    *models.UserProfile
	Onboarding models.OnboardingFlags

	// IsLoading is true while an operation or the initial restoration runs.
	IsLoading bool
	// Pending is true while a mutation is applied in memory but not yet
	// persisted.
	Pending bool
	Error   *autherr.AuthError
}

func (s State) IsAuthenticated() bool {
	return s.Session != nil && s.Session.Active
}

// ProfileComplete is the derived sub-state of PhaseSignedIn.
func (s State) ProfileComplete() bool {
	return profile.IsComplete(s.Profile)
}

func (s State) clone() State {
	if s.Session != nil {
		sess := *s.Session
		s.Session = &sess
	}
	if s.Profile != nil {
		p := s.Profile.Clone()
		s.Profile = &p
	}
	return s
}

// HandleStatus is the outcome of a handle availability check.
type HandleStatus string

const (
	HandleInvalid   HandleStatus = "invalid"
	HandleReserved  HandleStatus = "reserved"
	HandleTaken     HandleStatus = "taken"
	HandleAvailable HandleStatus = "available"
)

// ProfileInput is the payload of CompleteProfile.
type ProfileInput struct {
	Name       string
	Handle     string
	Bio        string
	Visibility models.Visibility
}
