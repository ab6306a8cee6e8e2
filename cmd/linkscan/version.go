package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden at release time:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=abc1234 -X main.builtAt=2025-06-01T12:00:00Z"
var (
	version = ""
	commit  = ""
	builtAt = ""
)

// buildDetails fills whatever ldflags left blank from the build info
// embedded in the binary: module version, VCS revision, commit time.
func buildDetails() (ver, rev, at string) {
	ver, rev, at = version, commit, builtAt

	if info, ok := debug.ReadBuildInfo(); ok {
		if ver == "" {
			ver = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if rev == "" {
					rev = s.Value
				}
			case "vcs.time":
				if at == "" {
					at = s.Value
				}
			}
		}
	}

	if ver == "" {
		ver = "(devel)"
	}
	if rev == "" {
		rev = "unknown"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if at == "" {
		at = "unknown"
	}
	return ver, rev, at
}

// shortVersion is what cobra prints for --version.
func shortVersion() string {
	ver, _, _ := buildDetails()
	return ver
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the linkscan version, VCS revision, and build time.`,
		Run: func(cmd *cobra.Command, _ []string) {
			ver, rev, at := buildDetails()
			fmt.Fprintf(cmd.OutOrStdout(), "linkscan %s (rev %s, built %s)\n", ver, rev, at)
		},
	}
}
