// Package tokens reads the claims of identity tokens handed to the client.
//
// Signatures are not verified here: identity tokens are verified by the
// backend that issued or receives them, the client only reads display data
// and the subject.
package tokens

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/common"
)

// Claims are the registered claims plus the profile claims issued by the
// identity backend and by Google.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Decode parses token without verifying its signature.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	return claims, nil
}

// UID returns user_id, falling back to sub.
func (c *Claims) UID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Expired reports whether the token had expired at now. Tokens without exp
// never expire.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// Principal converts backend claims to the signed-in principal.
func (c *Claims) Principal() (*models.Principal, error) {
	uid := c.UID()
	if uid == "" {
		return nil, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}
	return &models.Principal{
		UID:         uid,
		Email:       c.Email,
		DisplayName: c.Name,
		PhotoURL:    c.Picture,
	}, nil
}
