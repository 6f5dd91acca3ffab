package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag(t *testing.T) {
	assert.Equal(t, "v1.2.3", Info{Version: "1.2.3"}.Tag())
	assert.Equal(t, "v1.2.3", Info{Version: "v1.2.3"}.Tag())
}

func TestStrings(t *testing.T) {
	i := Info{Version: "0.4.0", BuildDate: "2026-01-02", GitCommit: "abc123", GoVersion: "go1.24.1", Platform: "linux/amd64"}
	assert.Equal(t, "staticsql v0.4.0 (linux/amd64 go1.24.1)", i.String())
	assert.Contains(t, i.FullString(), "Git Commit: abc123")
}

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.5.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
		},
	}

	info := Info{BuildDate: "unknown", GitCommit: "unknown"}
	fromBuildInfo(&info, bi)
	assert.Equal(t, Info{Version: "v0.5.1", BuildDate: "2026-03-04T05:06:07Z", GitCommit: "deadbeef"}, info)

	pinned := Info{Version: "1.0.0", BuildDate: "today", GitCommit: "cafe"}
	fromBuildInfo(&pinned, bi)
	assert.Equal(t, Info{Version: "1.0.0", BuildDate: "today", GitCommit: "cafe"}, pinned)
}

func TestFromBuildInfoDevel(t *testing.T) {
	info := Info{BuildDate: "unknown", GitCommit: "unknown"}
	fromBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Empty(t, info.Version)
}
