package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/tokens"
)

// GoogleResult is what the Google consent flow returns.
type GoogleResult struct {
	IDToken     string
	AccessToken string
}

// GooglePrompter runs the Google consent flow for clientID. It returns
// ErrCancelled when the user backs out.
type GooglePrompter interface {
	Prompt(ctx context.Context, clientID, scheme string) (GoogleResult, error)
}

type Google struct {
	prompter GooglePrompter
	clientID string
	scheme   string
}

// NewGoogle returns the Google adapter. clientID is the resolved id for the
// running platform; an empty id makes every Obtain fail with
// ReasonNotConfigured.
func NewGoogle(prompter GooglePrompter, clientID, scheme string) *Google {
	return &Google{prompter: prompter, clientID: strings.TrimSpace(clientID), scheme: scheme}
}

func (g *Google) Provider() models.Provider { return models.ProviderGoogle }

func (g *Google) Obtain(ctx context.Context) (models.Credential, error) {
	if g.clientID == "" || g.prompter == nil {
		return models.Credential{}, fail(models.ProviderGoogle, ReasonNotConfigured, nil)
	}

	res, err := g.prompter.Prompt(ctx, g.clientID, g.scheme)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return models.Credential{}, fail(models.ProviderGoogle, ReasonCancelled, err)
		}
		return models.Credential{}, fail(models.ProviderGoogle, ReasonNotAvailable, err)
	}

	idToken := strings.TrimSpace(res.IDToken)
	if idToken == "" {
		return models.Credential{}, fail(models.ProviderGoogle, ReasonMissingToken, nil)
	}

	cred := models.Credential{
		Provider:    models.ProviderGoogle,
		IDToken:     idToken,
		AccessToken: res.AccessToken,
	}
	if claims, err := tokens.Decode(idToken); err == nil {
		cred.Hint = models.ProfileHint{
			Name:   strings.TrimSpace(claims.Name),
			Avatar: models.StringPtr(claims.Picture),
		}
	}
	return cred, nil
}
