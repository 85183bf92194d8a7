// Package buildinfo exposes values injected at link time, e.g.
//
//	go build -ldflags "-X github.com/dmitrijs2005/mapfriends/internal/buildinfo.Version=2.4.1 \
//	  -X github.com/dmitrijs2005/mapfriends/internal/buildinfo.Build=507"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = ""
	Build   = ""
	Date    = ""
	Commit  = ""
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// PrintBuildData writes the injected values to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(Version))
	fmt.Fprintf(w, "Build number: %s\n", orNA(Build))
	fmt.Fprintf(w, "Build date: %s\n", orNA(Date))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(Commit))
}
