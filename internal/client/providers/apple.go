package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/common"
)

// AppleResult is what the Apple consent flow returns. Names are only sent on
// the first authorization.
type AppleResult struct {
	IdentityToken string
	GivenName     string
	FamilyName    string
}

// ApplePrompter runs the Apple consent flow. Prompt receives the SHA-256 hex
// digest of the raw nonce and returns ErrCancelled when the user backs out.
type ApplePrompter interface {
	Available(ctx context.Context) bool
	Prompt(ctx context.Context, hashedNonce string) (AppleResult, error)
}

type Apple struct {
	prompter ApplePrompter
	newNonce func() (string, error)
}

// nonceSize is the number of random bytes in a raw nonce.
const nonceSize = 16

func randomNonce() (string, error) {
	return common.MakeRandHexString(nonceSize)
}

func NewApple(prompter ApplePrompter) *Apple {
	return &Apple{prompter: prompter, newNonce: randomNonce}
}

func (a *Apple) Provider() models.Provider { return models.ProviderApple }

func (a *Apple) Obtain(ctx context.Context) (models.Credential, error) {
	if a.prompter == nil || !a.prompter.Available(ctx) {
		return models.Credential{}, fail(models.ProviderApple, ReasonNotAvailable, nil)
	}

	raw, err := a.newNonce()
	if err != nil {
		return models.Credential{}, fail(models.ProviderApple, ReasonNotAvailable, err)
	}
	res, err := a.prompter.Prompt(ctx, HashNonce(raw))
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return models.Credential{}, fail(models.ProviderApple, ReasonCancelled, err)
		}
		return models.Credential{}, fail(models.ProviderApple, ReasonNotAvailable, err)
	}

	idToken := strings.TrimSpace(res.IdentityToken)
	if idToken == "" {
		return models.Credential{}, fail(models.ProviderApple, ReasonMissingToken, nil)
	}

	return models.Credential{
		Provider: models.ProviderApple,
		IDToken:  idToken,
		RawNonce: raw,
		Hint: models.ProfileHint{
			Name: strings.TrimSpace(strings.TrimSpace(res.GivenName) + " " + strings.TrimSpace(res.FamilyName)),
		},
	}, nil
}

// HashNonce returns the lower-case hex SHA-256 digest of raw.
func HashNonce(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
