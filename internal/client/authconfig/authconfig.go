// Package authconfig resolves delegated sign-in settings from the build
// flavor and platform.
package authconfig

import "strings"

// DefaultScheme is the redirect scheme used when none is configured.
const DefaultScheme = "com.eduardo880.mapfriends"

// GoogleEnv lists the configured Google client ids per platform and flavor.
// The legacy slots predate the dev/prod split.
type GoogleEnv struct {
	IOSDev        string
	IOSProd       string
	IOSLegacy     string
	AndroidDev    string
	AndroidProd   string
	AndroidLegacy string
	Web           string
}

// GoogleClientIDs is the outcome of ResolveGoogleClientIDs.
type GoogleClientIDs struct {
	IsDevFlavor bool
	IOS         string
	Android     string
	Web         string
}

// IsDevFlavor reports whether applicationID belongs to the dev build flavor.
func IsDevFlavor(applicationID string) bool {
	return strings.HasSuffix(applicationID, ".dev")
}

// ResolveGoogleClientIDs picks the flavor slot for each platform, falling back
// to the legacy slot and then to "".
func ResolveGoogleClientIDs(applicationID string, env GoogleEnv) GoogleClientIDs {
	dev := IsDevFlavor(applicationID)

	ios, android := env.IOSProd, env.AndroidProd
	if dev {
		ios, android = env.IOSDev, env.AndroidDev
	}
	if ios == "" {
		ios = env.IOSLegacy
	}
	if android == "" {
		android = env.AndroidLegacy
	}

	return GoogleClientIDs{IsDevFlavor: dev, IOS: ios, Android: android, Web: env.Web}
}

// ForPlatform returns the client id the given platform signs in with.
// Unknown platforms use the web client id.
func (ids GoogleClientIDs) ForPlatform(platform string) string {
	switch strings.ToLower(platform) {
	case "ios":
		return ids.IOS
	case "android":
		return ids.Android
	default:
		return ids.Web
	}
}

// Scheme returns scheme, or DefaultScheme when it is blank.
func Scheme(scheme string) string {
	if s := strings.TrimSpace(scheme); s != "" {
		return s
	}
	return DefaultScheme
}
