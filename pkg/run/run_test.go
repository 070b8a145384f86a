package run

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

func TestMatcher(t *testing.T) {
	matcher, err := NewMatcher(config.DefaultRunPattern)
	require.NoError(t, err)

	tests := []struct {
		name string
		exp  bool
	}{
		{"010120_M01757_0001_AAAAA", true},
		{"991231_M01757_9999_000000000-ABCDE", true},
		{"210505_NB551234_0042_AHVK7GBGXG", true},
		{"archive", false},
		{"010120_M01757_0001_AAAAA.tar.gz", false},
		{"01012_M01757_0001_AAAAA", false},
		{"010120-M01757-0001-AAAAA", false},
		{"010120_M01757_001_AAAAA", false},
		{"", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, matcher.Matches(test.name), test.name)
	}
}

func TestNewMatcherBadPattern(t *testing.T) {
	_, err := NewMatcher("([")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	matcher, err := NewMatcher(config.DefaultRunPattern)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data/010120_M01757_0001_AAAAA/Images", 0755))
	require.NoError(t, fs.MkdirAll("/data/020120_M01757_0002_BBBBB", 0755))
	require.NoError(t, fs.MkdirAll("/data/not-a-run", 0755))
	require.NoError(t, afero.WriteFile(fs,
		"/data/030120_M01757_0003_CCCCC.tar.gz", []byte("gz"), 0644))

	dirs, err := Discover(fs, "/data", matcher)
	require.NoError(t, err)

	// Only matching directories count. Files are never runs, even when
	// their names would match, and nested directories aren't scanned.
	assert.Equal(t, []Directory{
		{Path: "/data/010120_M01757_0001_AAAAA", Name: "010120_M01757_0001_AAAAA"},
		{Path: "/data/020120_M01757_0002_BBBBB", Name: "020120_M01757_0002_BBBBB"},
	}, dirs)
}

func TestDiscoverBadRoot(t *testing.T) {
	matcher, err := NewMatcher(config.DefaultRunPattern)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data", []byte("file"), 0644))

	_, err = Discover(fs, "/missing", matcher)
	assert.Equal(t, errors.FileNotFound{Path: "/missing"}, err)

	_, err = Discover(fs, "/data", matcher)
	assert.Equal(t, errors.NotADirectory{Path: "/data"}, err)
}

func TestClassify(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := Directory{Path: "/data/010120_M01757_0001_AAAAA", Name: "010120_M01757_0001_AAAAA"}
	require.NoError(t, fs.MkdirAll(dir.Path, 0755))

	status, err := Classify(fs, dir)
	require.NoError(t, err)
	assert.Equal(t, Unarchived, status)

	// A staging file from an interrupted archival isn't an archive.
	require.NoError(t, afero.WriteFile(fs, dir.ArchivePath()+".partial", []byte("x"), 0644))
	status, err = Classify(fs, dir)
	require.NoError(t, err)
	assert.Equal(t, Unarchived, status)

	require.NoError(t, afero.WriteFile(fs, dir.ArchivePath(), []byte("x"), 0644))
	status, err = Classify(fs, dir)
	require.NoError(t, err)
	assert.Equal(t, AlreadyArchived, status)
}
