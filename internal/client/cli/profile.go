package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/appversion"
	"github.com/dmitrijs2005/mapfriends/internal/client/handle"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/session"
)

var errNotSignedIn = errors.New("not signed in")

func (a *App) requireSession() error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	return nil
}

func (a *App) Terms(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "By continuing you agree to the MapFriends terms of use and privacy policy.")
	answer, err := getSimpleText(a.reader, "Accept? (y/N)", a.w())
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.w(), "Terms not accepted.")
		return nil
	}
	if err := a.session.AcceptTerms(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "Terms accepted.")
	return nil
}

// Profile walks the user through the profile form and saves it.
func (a *App) Profile(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	current := a.session.State().Profile
	if current == nil {
		current = &models.UserProfile{}
	}

	name, err := getSimpleText(a.reader, fmt.Sprintf("Name [%s]", current.Name), a.w())
	if err != nil {
		return err
	}
	name = firstOr(name, current.Name)

	raw, err := getSimpleText(a.reader, fmt.Sprintf("Handle [%s]", current.Handle), a.w())
	if err != nil {
		return err
	}
	h, err := a.pickHandle(ctx, firstOr(raw, current.Handle))
	if err != nil {
		return err
	}
	if h == "" {
		return nil
	}

	bio, err := getMultiline(a.reader, "Bio", a.w())
	if err != nil {
		return err
	}
	bio = firstOr(bio, current.Bio)

	vis, err := getSimpleText(a.reader, "Visibility (open/locked) [open]", a.w())
	if err != nil {
		return err
	}

	in := session.ProfileInput{
		Name:       name,
		Handle:     h,
		Bio:        bio,
		Visibility: models.ParseVisibility(strings.ToLower(vis)),
	}
	if err := a.session.CompleteProfile(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "Profile saved.")
	return nil
}

// pickHandle sanitizes raw and checks it can be claimed. It returns "" after
// telling the user why the handle cannot be used.
func (a *App) pickHandle(ctx context.Context, raw string) (string, error) {
	s := handle.Sanitize(raw)
	if s.RemovedUnsupported {
		fmt.Fprintf(a.w(), "Unsupported characters removed, handle is now %q\n", s.Handle)
	}

	status, err := a.session.CheckHandleAvailability(ctx, s.Handle)
	if err != nil {
		return "", err
	}
	if status != session.HandleAvailable {
		fmt.Fprintln(a.w(), describeHandle(s.Handle, status))
		return "", nil
	}
	return s.Handle, nil
}

func (a *App) Skip(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.session.SkipProfileSetup(ctx); err != nil {
		return err
	}
	if p := a.session.State().Profile; p != nil {
		fmt.Fprintf(a.w(), "Profile setup skipped, your handle is @%s\n", p.Handle)
	}
	return nil
}

// Visibility sets the profile visibility from args[0].
func (a *App) Visibility(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		fmt.Fprintln(a.w(), "Usage: visibility <open|locked>")
		return nil
	}
	v := strings.ToLower(args[0])
	if v != string(models.VisibilityOpen) && v != string(models.VisibilityLocked) {
		fmt.Fprintln(a.w(), "Usage: visibility <open|locked>")
		return nil
	}
	if err := a.session.UpdateVisibility(ctx, models.Visibility(v)); err != nil {
		return err
	}
	fmt.Fprintf(a.w(), "Profile is now %s\n", v)
	return nil
}

func (a *App) Onboard(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.session.CompleteOnboarding(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.w(), "Onboarding complete.")
	return nil
}

// Handle reports whether args[0] can be used as a handle.
func (a *App) Handle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.w(), "Usage: handle <name>")
		return nil
	}
	h := handle.Normalize(args[0])
	status, err := a.session.CheckHandleAvailability(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.w(), describeHandle(h, status))
	return nil
}

func describeHandle(h string, status session.HandleStatus) string {
	switch status {
	case session.HandleInvalid:
		return fmt.Sprintf("@%s is invalid: use 3 to %d letters, digits or underscores", h, handle.MaxLen)
	case session.HandleReserved:
		return fmt.Sprintf("@%s is reserved", h)
	case session.HandleTaken:
		return fmt.Sprintf("@%s is already taken", h)
	default:
		return fmt.Sprintf("@%s is available", h)
	}
}

// Status prints the session, profile and onboarding state.
func (a *App) Status(_ context.Context) error {
	st := a.session.State()
	w := a.w()

	fmt.Fprintf(w, "Session:    %s\n", st.Phase)
	if m := a.mode(); m != "" {
		fmt.Fprintf(w, "Backend:    %s\n", m)
	}
	if st.Session == nil {
		return nil
	}
	fmt.Fprintf(w, "User:       %s (%s)\n", st.Session.Email, st.Session.UID)
	if p := st.Profile; p != nil {
		fmt.Fprintf(w, "Name:       %s\n", p.Name)
		fmt.Fprintf(w, "Handle:     @%s\n", p.Handle)
		fmt.Fprintf(w, "Visibility: %s\n", p.Visibility)
	}
	fmt.Fprintf(w, "Profile:    %s\n", yesNo(st.ProfileComplete(), "complete", "incomplete"))
	fmt.Fprintf(w, "Terms:      %s\n", yesNo(st.Onboarding.HasAcceptedTerms, "accepted", "pending"))
	fmt.Fprintf(w, "Onboarding: %s\n", yesNo(st.Onboarding.HasCompletedOnboarding, "complete", "pending"))
	if st.Pending {
		fmt.Fprintln(w, "Saving changes...")
	}
	return nil
}

func (a *App) Version(_ context.Context) error {
	tmpl := ""
	if a.config != nil {
		tmpl = a.config.App.LabelTemplate
	}
	fmt.Fprintln(a.w(), appversion.Label(tmpl, a.version))
	return nil
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func firstOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
