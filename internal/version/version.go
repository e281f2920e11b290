// Package version holds the build identity of nxmeta.
package version

// Overridden at build time:
// go build -ldflags "-X nxmeta/internal/version.Version=1.1.0 -X nxmeta/internal/version.Commit=abc123"
var (
	// Version is the semantic version of nxmeta
	Version = "0.9.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line form printed by "nxmeta version".
func Full() string {
	return "nxmeta version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// BuildInfo is the JSON shape of the version endpoint and command.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}

// Current returns the build identity.
func Current() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
}
