package models

// Provider names a sign-in mechanism.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	ProviderApple    Provider = "apple"
)

// ProfileHint carries display data a provider returned alongside its token.
// It is only used as a fallback when no stored profile has the value.
type ProfileHint struct {
	Name   string
	Avatar *string
}

// Credential is the provider-neutral result of a credential adapter. It is
// handed to the identity backend and never persisted.
type Credential struct {
	Provider Provider

	// Password provider.
	Email    string
	Password string

	// Delegated providers.
	IDToken     string
	AccessToken string
	RawNonce    string

	Hint ProfileHint
}
