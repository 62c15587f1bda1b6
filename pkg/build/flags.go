// SPDX-License-Identifier: MIT
//
// Package build reports what binary is running. Release builds inject the
// version, commit and build time with -ldflags; development builds fall back
// to the module and VCS stamps the Go toolchain embeds.
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
)

const (
	defaultName = "ptt"
	description = "Push-to-talk voice capture, playback and transcription"
	unknown     = "unknown"
	shortCommit = 7
)

// ErrNoBuildInfo is returned by Initialize when neither linker flags nor
// embedded module information identify the binary.
var ErrNoBuildInfo = errors.New("build: no version information embedded")

// Set with -ldflags "-X ptt/pkg/build.buildVersion=...". Either all of
// version, commit and time are set or none are.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Version     string
	Commit      string
	Time        string
	Modified    bool // built from a dirty work tree
}

// String renders the version line shown by --version.
func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.Commit != unknown {
		commit := i.Commit
		if len(commit) > shortCommit {
			commit = commit[:shortCommit]
		}
		fmt.Fprintf(&b, " (%s", commit)
		if i.Modified {
			b.WriteString("-dirty")
		}
		if i.Time != unknown {
			fmt.Fprintf(&b, ", %s", i.Time)
		}
		b.WriteString(")")
	}
	return b.String()
}

var current atomic.Pointer[Info]

func init() {
	current.Store(defaults())
}

func defaults() *Info {
	return &Info{
		Name:        defaultName,
		Description: description,
		Version:     unknown,
		Commit:      unknown,
		Time:        unknown,
	}
}

// Initialize resolves the build information. Linker flags win; without them
// the module version and VCS stamps are used. It returns ErrNoBuildInfo when
// neither source is available, leaving the defaults in place, and an error
// when the linker flags are only partly set.
func Initialize() error {
	info := defaults()
	defer func() { current.Store(info) }()

	if buildName != "" {
		info.Name = buildName
	}

	switch set := countSet(buildVersion, buildCommit, buildTime); set {
	case 3:
		info.Version = buildVersion
		info.Commit = buildCommit
		info.Time = buildTime
		return nil
	case 0:
	default:
		return fmt.Errorf("build: %d of 3 linker flags set; need version, commit and time", set)
	}

	bi, ok := readBuildInfo()
	if !ok {
		return ErrNoBuildInfo
	}
	fromModule(info, bi)
	if info.Version == unknown && info.Commit == unknown {
		return ErrNoBuildInfo
	}
	return nil
}

func fromModule(info *Info, bi *debug.BuildInfo) {
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Time = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if info.Version == unknown && info.Commit != unknown {
		info.Version = "devel"
	}
}

func countSet(vals ...string) int {
	n := 0
	for _, v := range vals {
		if v != "" {
			n++
		}
	}
	return n
}

// Get returns the resolved build information. Before Initialize it returns
// the defaults.
func Get() Info {
	return *current.Load()
}
