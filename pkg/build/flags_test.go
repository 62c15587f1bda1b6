// SPDX-License-Identifier: MIT
package build

import (
	"errors"
	"runtime/debug"
	"strings"
	"testing"
)

// stub replaces the linker flags and the embedded module information for one
// test. Tests using it must not run in parallel.
func stub(t *testing.T, name, version, commit, at string, bi *debug.BuildInfo) {
	t.Helper()
	oldName, oldVersion, oldCommit, oldTime := buildName, buildVersion, buildCommit, buildTime
	oldRead := readBuildInfo
	t.Cleanup(func() {
		buildName, buildVersion, buildCommit, buildTime = oldName, oldVersion, oldCommit, oldTime
		readBuildInfo = oldRead
		current.Store(defaults())
	})

	buildName, buildVersion, buildCommit, buildTime = name, version, commit, at
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func vcsInfo(version string, settings ...string) *debug.BuildInfo {
	bi := &debug.BuildInfo{Main: debug.Module{Path: "ptt", Version: version}}
	for i := 0; i+1 < len(settings); i += 2 {
		bi.Settings = append(bi.Settings, debug.BuildSetting{Key: settings[i], Value: settings[i+1]})
	}
	return bi
}

func TestGetBeforeInitialize(t *testing.T) {
	got := Get()
	if got.Name != defaultName {
		t.Errorf("Name = %q, want %q", got.Name, defaultName)
	}
	if got.Description != description {
		t.Errorf("Description = %q, want %q", got.Description, description)
	}
	if got.Version != unknown {
		t.Errorf("Version = %q, want %q", got.Version, unknown)
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		ldName  string
		version string
		commit  string
		at      string
		bi      *debug.BuildInfo
		want    Info
		wantErr string
	}{
		{
			name:    "linker flags",
			ldName:  "ptt-relay",
			version: "v1.2.0",
			commit:  "0123456789abcdef",
			at:      "2026-05-01T10:00:00Z",
			bi:      vcsInfo("v0.0.1", "vcs.revision", "ffffffff"),
			want: Info{
				Name: "ptt-relay", Description: description,
				Version: "v1.2.0", Commit: "0123456789abcdef", Time: "2026-05-01T10:00:00Z",
			},
		},
		{
			name:    "partial linker flags",
			version: "v1.2.0",
			bi:      vcsInfo("v0.0.1"),
			want: Info{
				Name: defaultName, Description: description,
				Version: unknown, Commit: unknown, Time: unknown,
			},
			wantErr: "1 of 3 linker flags",
		},
		{
			name: "module version and vcs stamps",
			bi: vcsInfo("v0.3.1",
				"vcs.revision", "abcdef0123456789",
				"vcs.time", "2026-04-02T08:30:00Z",
				"vcs.modified", "true",
			),
			want: Info{
				Name: defaultName, Description: description,
				Version: "v0.3.1", Commit: "abcdef0123456789", Time: "2026-04-02T08:30:00Z",
				Modified: true,
			},
		},
		{
			name: "devel build from a checkout",
			bi:   vcsInfo("(devel)", "vcs.revision", "abcdef0123456789", "vcs.modified", "false"),
			want: Info{
				Name: defaultName, Description: description,
				Version: "devel", Commit: "abcdef0123456789", Time: unknown,
			},
		},
		{
			name: "devel build without vcs",
			bi:   vcsInfo("(devel)"),
			want: Info{
				Name: defaultName, Description: description,
				Version: unknown, Commit: unknown, Time: unknown,
			},
			wantErr: ErrNoBuildInfo.Error(),
		},
		{
			name: "no embedded info",
			want: Info{
				Name: defaultName, Description: description,
				Version: unknown, Commit: unknown, Time: unknown,
			},
			wantErr: ErrNoBuildInfo.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub(t, tt.ldName, tt.version, tt.commit, tt.at, tt.bi)

			err := Initialize()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("Initialize() unexpected error: %v", err)
			case tt.wantErr != "" && err == nil:
				t.Fatalf("Initialize() expected error containing %q", tt.wantErr)
			case tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr):
				t.Fatalf("Initialize() error = %q, want it to contain %q", err, tt.wantErr)
			}

			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInitializeNoInfoIsSentinel(t *testing.T) {
	stub(t, "", "", "", "", nil)
	if err := Initialize(); !errors.Is(err, ErrNoBuildInfo) {
		t.Errorf("Initialize() = %v, want ErrNoBuildInfo", err)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"unknown", Info{Version: unknown, Commit: unknown, Time: unknown}, "unknown"},
		{
			"release",
			Info{Version: "v1.2.0", Commit: "0123456789abcdef", Time: "2026-05-01T10:00:00Z"},
			"v1.2.0 (0123456, 2026-05-01T10:00:00Z)",
		},
		{
			"dirty without time",
			Info{Version: "devel", Commit: "abc", Time: unknown, Modified: true},
			"devel (abc-dirty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
