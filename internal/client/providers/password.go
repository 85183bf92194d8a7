package providers

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
)

// Password wraps an email and password pair. Email is trimmed.
type Password struct {
	Email  string
	Secret string
}

func (p Password) Provider() models.Provider { return models.ProviderPassword }

func (p Password) Obtain(_ context.Context) (models.Credential, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return models.Credential{}, autherr.NewCoded(autherr.CodeInvalidEmail, "email is required")
	}
	if p.Secret == "" {
		return models.Credential{}, autherr.NewCoded(autherr.CodeInvalidCredential, "password is required")
	}
	return models.Credential{
		Provider: models.ProviderPassword,
		Email:    email,
		Password: p.Secret,
	}, nil
}
