package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_StampedValuesWin(t *testing.T) {
	info := resolve("v0.3.0", "abc1234", map[string]string{
		"vcs.revision": "ffffffffffffffff",
		"vcs.time":     "2026-03-01T10:00:00Z",
	})

	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-03-01", info.Built)
}

func TestResolve_FromVCS(t *testing.T) {
	info := resolve("", "", map[string]string{
		"vcs.revision": "0123456789abcdef",
		"vcs.modified": "true",
		"vcs.time":     "2026-03-01T10:00:00Z",
	})

	assert.Equal(t, "dev-20260301", info.Version)
	assert.Equal(t, "0123456-dirty", info.Commit)
	assert.True(t, info.Dirty)
}

func TestResolve_NothingKnown(t *testing.T) {
	info := resolve("", "", nil)

	assert.True(t, strings.HasPrefix(info.Version, "dev-"))
	assert.Equal(t, "unknown", info.Commit)
	assert.Empty(t, info.Built)
}

func TestFull(t *testing.T) {
	assert.Equal(t, Version+" (commit: "+Commit+")", Full())
}
