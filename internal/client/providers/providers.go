// Package providers adapts the supported sign-in mechanisms to one
// interface. The delegated adapters yield a models.Credential or a *Error
// with one of the Reason values; Password only validates its input.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
)

// Reason is why an adapter could not produce a credential.
type Reason string

const (
	ReasonCancelled     Reason = "cancelled"
	ReasonNotConfigured Reason = "not-configured"
	ReasonNotAvailable  Reason = "not-available"
	ReasonMissingToken  Reason = "missing-token"
)

// ErrCancelled is returned by prompters when the user aborts.
var ErrCancelled = errors.New("cancelled by user")

// Adapter obtains a credential from one provider.
type Adapter interface {
	Provider() models.Provider
	Obtain(ctx context.Context) (models.Credential, error)
}

// Error is an adapter failure. Code maps it onto the auth error taxonomy.
type Error struct {
	Provider models.Provider
	Reason   Reason
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s sign-in: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s sign-in: %s", e.Provider, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the symbolic code of the failure.
func (e *Error) Code() string {
	switch e.Reason {
	case ReasonCancelled:
		return autherr.CodeRequestCanceled
	case ReasonNotConfigured:
		return autherr.CodeGoogleNotConfigured
	case ReasonNotAvailable:
		return autherr.CodeProviderUnavailable
	default:
		return ""
	}
}

// IsReason reports whether err is an adapter *Error with reason r.
func IsReason(err error, r Reason) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Reason == r
}

func fail(p models.Provider, r Reason, err error) error {
	return &Error{Provider: p, Reason: r, Err: err}
}
