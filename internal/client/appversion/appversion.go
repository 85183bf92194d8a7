// Package appversion resolves the version and build shown to users and
// formats the label around them.
package appversion

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultVersion = "0.0.0"
	DefaultBuild   = "1"
)

// Source holds the version inputs. Native values come from the installed
// binary and win over the manifest values. AndroidVersionCode 0 means unset.
type Source struct {
	NativeVersion      string
	NativeBuild        string
	ConfigVersion      string
	IOSBuildNumber     string
	AndroidVersionCode int
	Platform           string
}

type Info struct {
	Version string
	Build   string
}

// Resolve picks the version and build from src.
func Resolve(src Source) Info {
	version := firstTrimmed(src.NativeVersion, src.ConfigVersion, DefaultVersion)

	iosBuild := strings.TrimSpace(src.IOSBuildNumber)
	androidBuild := ""
	if src.AndroidVersionCode != 0 {
		androidBuild = strconv.Itoa(src.AndroidVersionCode)
	}

	preferred := firstTrimmed(iosBuild, androidBuild)
	if strings.EqualFold(strings.TrimSpace(src.Platform), "android") {
		preferred = firstTrimmed(androidBuild, iosBuild)
	}

	return Info{
		Version: version,
		Build:   firstTrimmed(src.NativeBuild, preferred, DefaultBuild),
	}
}

// Label renders info with template. Templates may use {{version}} and
// {{build}}; a template starting with "Versão" selects the Portuguese
// default; anything else gives the English default.
func Label(template string, info Info) string {
	tpl := strings.TrimSpace(template)

	if strings.Contains(tpl, "{{version}}") || strings.Contains(tpl, "{{build}}") {
		out := strings.ReplaceAll(tpl, "{{version}}", info.Version)
		return strings.ReplaceAll(out, "{{build}}", info.Build)
	}

	if strings.HasPrefix(strings.ToLower(tpl), "versão") {
		return fmt.Sprintf("Versão %s (Build %s)", info.Version, info.Build)
	}

	return fmt.Sprintf("Version %s (Build %s)", info.Version, info.Build)
}

func firstTrimmed(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
