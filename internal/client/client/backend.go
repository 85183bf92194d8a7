package client

import (
	"context"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
)

// Backend is the identity backend the session controller talks to.
//
// Subscribe registers fn for principal changes. fn is called once with the
// restored principal (nil when signed out) and again after every sign-in and
// sign-out. The returned func unregisters fn.
type Backend interface {
	SignInPassword(ctx context.Context, email, password string) (*models.Principal, error)
	SignUpPassword(ctx context.Context, email, password string) (*models.Principal, error)
	SignInWithCredential(ctx context.Context, cred models.Credential) (*models.Principal, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, name string) error
	SignOut(ctx context.Context) error
	Subscribe(fn func(*models.Principal)) (unsubscribe func())
	Ping(ctx context.Context) error
	Close() error
}

// ProfileSource reads the remotely stored, authoritative profile records.
//
// FetchProfile returns (nil, nil) when uid has no remote profile.
// HandleOwner returns "" when handle is unclaimed.
type ProfileSource interface {
	FetchProfile(ctx context.Context, uid string) (map[string]any, error)
	HandleOwner(ctx context.Context, handle string) (string, error)
}
