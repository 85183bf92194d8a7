package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/providers"
)

// stdinGoogle completes the Google flow by reading an ID token pasted by the
// user.
type stdinGoogle struct {
	reader *bufio.Reader
	w      io.Writer
}

func (p *stdinGoogle) Prompt(ctx context.Context, clientID, scheme string) (providers.GoogleResult, error) {
	if err := ctx.Err(); err != nil {
		return providers.GoogleResult{}, err
	}
	fmt.Fprintf(p.w, "Google sign-in with client %s (redirect %s:/oauth2redirect)\n", clientID, scheme)

	tok, err := getSimpleText(p.reader, "Paste the Google ID token (empty to cancel)", p.w)
	if err != nil {
		return providers.GoogleResult{}, err
	}
	if tok == "" {
		return providers.GoogleResult{}, providers.ErrCancelled
	}

	access, err := getSimpleText(p.reader, "Paste the access token (optional)", p.w)
	if err != nil {
		return providers.GoogleResult{}, err
	}
	return providers.GoogleResult{IDToken: tok, AccessToken: access}, nil
}

// stdinApple completes the Apple flow by reading an identity token pasted by
// the user. Apple sign-in only exists on iOS.
type stdinApple struct {
	reader   *bufio.Reader
	w        io.Writer
	platform string
}

func (p *stdinApple) Available(context.Context) bool {
	return strings.EqualFold(strings.TrimSpace(p.platform), "ios")
}

func (p *stdinApple) Prompt(ctx context.Context, hashedNonce string) (providers.AppleResult, error) {
	if err := ctx.Err(); err != nil {
		return providers.AppleResult{}, err
	}
	fmt.Fprintf(p.w, "Apple sign-in, request nonce %s\n", hashedNonce)

	tok, err := getSimpleText(p.reader, "Paste the Apple identity token (empty to cancel)", p.w)
	if err != nil {
		return providers.AppleResult{}, err
	}
	if tok == "" {
		return providers.AppleResult{}, providers.ErrCancelled
	}

	given, err := getSimpleText(p.reader, "Given name (optional)", p.w)
	if err != nil {
		return providers.AppleResult{}, err
	}
	family, err := getSimpleText(p.reader, "Family name (optional)", p.w)
	if err != nil {
		return providers.AppleResult{}, err
	}
	return providers.AppleResult{IdentityToken: tok, GivenName: given, FamilyName: family}, nil
}
