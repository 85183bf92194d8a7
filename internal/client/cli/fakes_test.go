package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/session"
)

type fakeSession struct {
	state session.State

	calls   []string
	emails  []string
	names   []string
	secrets []string
	profile session.ProfileInput
	vis     models.Visibility
	checked []string

	handleStatus session.HandleStatus
	err          error
}

func (f *fakeSession) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeSession) signIn(email string) {
	f.state.Phase = session.PhaseSignedIn
	f.state.Session = &models.Session{UID: "u1", Email: email, Active: true}
	f.state.Profile = &models.UserProfile{ID: "u1", Visibility: models.VisibilityOpen}
}

func (f *fakeSession) Start(context.Context) { f.calls = append(f.calls, "start") }
func (f *fakeSession) Close()                { f.calls = append(f.calls, "close") }
func (f *fakeSession) State() session.State  { return f.state }

func (f *fakeSession) SignInWithEmail(_ context.Context, email, password string) error {
	f.emails = append(f.emails, email)
	f.secrets = append(f.secrets, password)
	if err := f.record("signin"); err != nil {
		return err
	}
	f.signIn(email)
	return nil
}

func (f *fakeSession) SignUpWithEmail(_ context.Context, name, email, password string) error {
	f.names = append(f.names, name)
	f.emails = append(f.emails, email)
	f.secrets = append(f.secrets, password)
	if err := f.record("signup"); err != nil {
		return err
	}
	f.signIn(email)
	return nil
}

func (f *fakeSession) SignInWithGoogle(context.Context) error {
	if err := f.record("google"); err != nil {
		return err
	}
	f.signIn("g@x")
	return nil
}

func (f *fakeSession) SignInWithApple(context.Context) error {
	if err := f.record("apple"); err != nil {
		return err
	}
	f.signIn("a@x")
	return nil
}

func (f *fakeSession) SendPasswordReset(_ context.Context, email string) error {
	f.emails = append(f.emails, email)
	return f.record("reset")
}

func (f *fakeSession) SignOut(context.Context) error {
	f.state = session.State{Phase: session.PhaseSignedOut}
	return f.record("signout")
}

func (f *fakeSession) AcceptTerms(context.Context) error {
	if err := f.record("terms"); err != nil {
		return err
	}
	f.state.Onboarding.HasAcceptedTerms = true
	return nil
}

func (f *fakeSession) CompleteOnboarding(context.Context) error {
	return f.record("onboard")
}

func (f *fakeSession) CompleteProfile(_ context.Context, in session.ProfileInput) error {
	f.profile = in
	return f.record("profile")
}

func (f *fakeSession) SkipProfileSetup(context.Context) error {
	if err := f.record("skip"); err != nil {
		return err
	}
	f.state.Profile.Handle = "user_0001"
	return nil
}

func (f *fakeSession) UpdateVisibility(_ context.Context, v models.Visibility) error {
	f.vis = v
	return f.record("visibility")
}

func (f *fakeSession) CheckHandleAvailability(_ context.Context, raw string) (session.HandleStatus, error) {
	f.checked = append(f.checked, raw)
	if f.handleStatus == "" {
		return session.HandleAvailable, nil
	}
	return f.handleStatus, nil
}

// newTestApp returns an App reading lines and writing to the returned buffer.
func newTestApp(t *testing.T, fs *fakeSession, lines ...string) (*App, *bytes.Buffer) {
	t.Helper()
	stubTerminal(t, false)

	var out bytes.Buffer
	in := strings.Join(lines, "\n")
	if len(lines) > 0 {
		in += "\n"
	}
	return &App{
		session: fs,
		reader:  bufio.NewReader(strings.NewReader(in)),
		out:     &out,
	}, &out
}

