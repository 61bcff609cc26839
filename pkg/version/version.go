package version

import (
	"runtime/debug"
	"strings"
)

// GetBuildID returns a human readable identifier for this build, combining
// the module version with the VCS revision when the binary carries build info.
func GetBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	id := info.Main.Version
	if id == "" || id == "(devel)" {
		id = "devel"
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		id += "+" + revision
		if modified == "true" {
			id += ".dirty"
		}
	}
	return strings.TrimSpace(id)
}
