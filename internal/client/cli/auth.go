package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mapfriends/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

func (a *App) w() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

// Login prompts for an email and password and signs in.
//
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.w())
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.w())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.SignInWithEmail(ctx, email, string(password)); err != nil {
		return err
	}
	a.welcome()
	return nil
}

// Register prompts for a display name, email and password and creates an
// account. The name may be left empty.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name (optional)", a.w())
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.w())
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.w())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.SignUpWithEmail(ctx, name, email, string(password)); err != nil {
		return err
	}
	a.welcome()
	return nil
}

func (a *App) Google(ctx context.Context) error {
	if err := a.session.SignInWithGoogle(ctx); err != nil {
		return err
	}
	a.welcome()
	return nil
}

func (a *App) Apple(ctx context.Context) error {
	if err := a.session.SignInWithApple(ctx); err != nil {
		return err
	}
	a.welcome()
	return nil
}

// Reset asks for an email and sends a password reset link to it.
func (a *App) Reset(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter the account email", a.w())
	if err != nil {
		return err
	}
	if err := a.session.SendPasswordReset(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "If the account exists, a reset link is on its way.")
	return nil
}

// Logout ends the session. Local profile records are kept.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "Signed out.")
	return nil
}

// welcome greets the signed-in user and points at the next onboarding step.
func (a *App) welcome() {
	st := a.session.State()
	if st.Session == nil {
		return
	}
	name := st.Session.Email
	if st.Profile != nil {
		name = common.FirstNonEmpty(st.Profile.Name, name)
	}
	fmt.Fprintf(a.w(), "Signed in as %s\n", common.FirstNonEmpty(name, st.Session.UID))

	switch {
	case !st.Onboarding.HasAcceptedTerms:
		fmt.Fprintln(a.w(), "Next: accept the terms with 'terms'.")
	case !st.ProfileComplete() && !st.Onboarding.HasSkippedProfileSetup:
		fmt.Fprintln(a.w(), "Next: set up your profile with 'profile' or 'skip'.")
	case !st.Onboarding.HasCompletedOnboarding:
		fmt.Fprintln(a.w(), "Next: finish onboarding with 'onboard'.")
	}
}
