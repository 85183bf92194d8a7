// Package autherr defines the closed error taxonomy surfaced by the auth
// session and the classifier that maps raw backend and provider failures
// into it.
package autherr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mapfriends/internal/client/i18n"
)

// Kind is one of the error categories shown to users.
type Kind string

const (
	InvalidCredentials   Kind = "invalid_credentials"
	EmailInUse           Kind = "email_in_use"
	InvalidEmail         Kind = "invalid_email"
	WeakPassword         Kind = "weak_password"
	UserDisabled         Kind = "user_disabled"
	TooManyRequests      Kind = "too_many_requests"
	NetworkError         Kind = "network"
	ProviderCancelled    Kind = "provider_cancelled"
	ProviderUnavailable  Kind = "provider_unavailable"
	ConfigurationMissing Kind = "configuration_missing"
	Unknown              Kind = "unknown"
)

// Symbolic codes reported by the identity backend and the credential
// adapters.
const (
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeWrongPassword       = "auth/wrong-password"
	CodeUserNotFound        = "auth/user-not-found"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeWeakPassword        = "auth/weak-password"
	CodeUserDisabled        = "auth/user-disabled"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeNetworkFailed       = "auth/network-request-failed"
	CodeRequestCanceled     = "ERR_REQUEST_CANCELED"
	CodeGoogleNotConfigured = "auth/google-not-configured"
	CodeProviderUnavailable = "auth/provider-unavailable"
)

// MessageKey is the catalog id holding the text for k.
func (k Kind) MessageKey() string {
	return "auth.error." + string(k)
}

// Classify maps a symbolic code to its Kind. Unmapped codes give Unknown.
func Classify(code string) Kind {
	switch code {
	case CodeInvalidCredential, CodeWrongPassword, CodeUserNotFound:
		return InvalidCredentials
	case CodeEmailInUse:
		return EmailInUse
	case CodeInvalidEmail:
		return InvalidEmail
	case CodeWeakPassword:
		return WeakPassword
	case CodeUserDisabled:
		return UserDisabled
	case CodeTooManyRequests:
		return TooManyRequests
	case CodeNetworkFailed:
		return NetworkError
	case CodeRequestCanceled:
		return ProviderCancelled
	case CodeGoogleNotConfigured:
		return ConfigurationMissing
	case CodeProviderUnavailable:
		return ProviderUnavailable
	default:
		return Unknown
	}
}

// AuthError is the only error type published by the session controller.
type AuthError struct {
	Kind    Kind
	Message string
	// Code is the symbolic code the error was classified from, if any.
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches another *AuthError by Kind, so errors.Is(err,
// &AuthError{Kind: InvalidEmail}) works.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// CodedError is a plain error carrying a symbolic code.
type CodedError struct {
	code string
	msg  string
}

// NewCoded returns an error whose Code is code.
func NewCoded(code, msg string) *CodedError {
	if msg == "" {
		msg = code
	}
	return &CodedError{code: code, msg: msg}
}

func (e *CodedError) Error() string { return e.msg }
func (e *CodedError) Code() string  { return e.code }

type coder interface {
	Code() string
}

// CodeOf extracts the symbolic code from err. The first error in the chain
// exposing Code() string wins; a deadline maps to the network code. Returns
// "" when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeNetworkFailed
	}
	return ""
}

// Classifier turns raw errors into *AuthError with a localized message.
type Classifier struct {
	catalog *i18n.Catalog
}

func NewClassifier(catalog *i18n.Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify wraps err into an *AuthError. An *AuthError already in the chain
// is returned unchanged; nil gives nil.
func (c *Classifier) Classify(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	code := CodeOf(err)
	k := Classify(code)
	return &AuthError{
		Kind:    k,
		Message: c.Message(k),
		Code:    code,
		Err:     err,
	}
}

// New builds an *AuthError of kind k around cause.
func (c *Classifier) New(k Kind, cause error) *AuthError {
	return &AuthError{
		Kind:    k,
		Message: c.Message(k),
		Code:    CodeOf(cause),
		Err:     cause,
	}
}

// Message returns the localized text for k.
func (c *Classifier) Message(k Kind) string {
	return c.catalog.Message(k.MessageKey())
}
