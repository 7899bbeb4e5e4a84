// Package version reports the build version of wifi-panel.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags="-X github.com/muurk/wifipanel/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/wifipanel/internal/version.Commit=abc1234"
//
// Other builds fall back to the VCS stamp Go embeds in the binary.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	// Version is the release version, or dev-<date> for untagged builds.
	Version = ""
	// Commit is the short git revision.
	Commit = ""
)

// Info is what the binary knows about how it was built.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Dirty   bool   `json:"dirty,omitempty"`
	Built   string `json:"built,omitempty"`
}

var build Info

func init() {
	build = resolve(Version, Commit, readSettings())
	Version, Commit = build.Version, build.Commit
}

func readSettings() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// resolve fills the gaps in the stamped values from the VCS settings.
func resolve(version, commit string, vcs map[string]string) Info {
	info := Info{Version: version, Commit: commit}

	if rev := vcs["vcs.revision"]; info.Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		info.Commit = rev
		info.Dirty = vcs["vcs.modified"] == "true"
	}
	if info.Dirty {
		info.Commit += "-dirty"
	}

	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		info.Built = t.UTC().Format("2006-01-02")
		if info.Version == "" {
			info.Version = "dev-" + t.Format("20060102")
		}
	}

	if info.Version == "" {
		info.Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

// Get returns the resolved build information.
func Get() Info {
	return build
}

// Full returns the version with its commit, e.g. "v0.3.0 (commit: abc1234)".
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
