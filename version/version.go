package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// Link-time values, e.g.
//
//	-ldflags "-X github.com/kbukum/wskit/version.Version=1.2.0"
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

// Product is the name reported in version output.
const Product = "wskit"

// Info is the build information of the running binary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// GetVersionInfo combines the link-time values with the VCS stamp the Go
// toolchain embeds. A link-time value takes precedence when both exist.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	info.BuildDate, _ = time.Parse(time.RFC3339, BuildTime)

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	vcs := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		vcs[s.Key] = s.Value
	}
	if info.GitCommit == "" {
		info.GitCommit = shortCommit(vcs["vcs.revision"])
	}
	info.IsDirty = vcs["vcs.modified"] == "true"
	if info.BuildDate.IsZero() {
		info.BuildDate, _ = time.Parse(time.RFC3339, vcs["vcs.time"])
	}
	return info
}

func shortCommit(rev string) string {
	return rev[:min(len(rev), 7)]
}

// UserAgent is the User-Agent sent when a request sets none.
func UserAgent() string {
	return Product + "/" + Version
}

// GetShortVersion is version[-commit[-dirty]].
func GetShortVersion() string {
	info := GetVersionInfo()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
		if info.IsDirty {
			parts = append(parts, "dirty")
		}
	}
	return strings.Join(parts, "-")
}

// GetFullVersion adds the branch (unless main or master), the build time
// and the Go version to GetShortVersion.
func GetFullVersion() string {
	info := GetVersionInfo()
	var b strings.Builder
	b.WriteString(info.Version)
	if info.GitCommit != "" {
		b.WriteString("-" + info.GitCommit)
	}
	if info.GitBranch != "" && info.GitBranch != "main" && info.GitBranch != "master" {
		b.WriteString("-" + info.GitBranch)
	}
	if info.IsDirty {
		b.WriteString("-dirty")
	}
	if !info.BuildDate.IsZero() {
		b.WriteString(" (built " + info.BuildDate.UTC().Format(time.RFC3339) + ")")
	}
	if info.GoVersion != "" {
		b.WriteString(" " + info.GoVersion)
	}
	return b.String()
}
