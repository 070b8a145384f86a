package archiver

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

const runName = "010120_M01757_0001_AAAAA"

func setupTest(t *testing.T) Config {
	fs = afero.NewMemMapFs()
	clock = clockwork.NewFakeClock()

	cfg, err := NewConfig(config.Default(), "/data", false, true)
	require.NoError(t, err)
	return cfg
}

func writeRun(t *testing.T, name string, files map[string][]byte) {
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(fs, "/data/"+name+"/"+path, contents, 0644))
	}
}

func TestArchiveRun(t *testing.T) {
	cfg := setupTest(t)
	writeRun(t, runName, map[string][]byte{
		"RunInfo.xml":           []byte("<run/>"),
		"Data/reads.bcl":        []byte("basecalls"),
		"Images/L001/focus.jpg": []byte("jpeg"),
		"Images/L001/scan.tif":  []byte("tiff"),
	})

	require.NoError(t, Run(cfg))

	// The run directory is replaced by its archive.
	exists, err := afero.DirExists(fs, "/data/"+runName)
	require.NoError(t, err)
	assert.False(t, exists)

	contents := extractArchive(t, "/data/"+runName+".tar.gz")
	assert.Equal(t, map[string][]byte{
		runName + "/RunInfo.xml":    []byte("<run/>"),
		runName + "/Data/reads.bcl": []byte("basecalls"),
	}, contents)
}

func TestArchiveKeepImages(t *testing.T) {
	cfg := setupTest(t)
	cfg.Purge = false
	writeRun(t, runName, map[string][]byte{
		"RunInfo.xml":           []byte("<run/>"),
		"Images/L001/focus.jpg": []byte("jpeg"),
	})

	require.NoError(t, Run(cfg))

	contents := extractArchive(t, "/data/"+runName+".tar.gz")
	assert.Equal(t, map[string][]byte{
		runName + "/RunInfo.xml":           []byte("<run/>"),
		runName + "/Images/L001/focus.jpg": []byte("jpeg"),
	}, contents)
}

func TestAlreadyArchived(t *testing.T) {
	cfg := setupTest(t)
	writeRun(t, runName, map[string][]byte{"RunInfo.xml": []byte("<run/>")})

	archivePath := "/data/" + runName + ".tar.gz"
	oldArchive := []byte("pre-existing archive contents")
	require.NoError(t, afero.WriteFile(fs, archivePath, oldArchive, 0644))

	require.NoError(t, Run(cfg))

	// The directory is removed without re-archiving, and the existing
	// archive is byte-for-byte untouched.
	exists, err := afero.DirExists(fs, "/data/"+runName)
	require.NoError(t, err)
	assert.False(t, exists)

	actual, err := afero.ReadFile(fs, archivePath)
	require.NoError(t, err)
	assert.Equal(t, oldArchive, actual)
}

func TestDryRunNeverMutates(t *testing.T) {
	for _, purge := range []bool{true, false} {
		cfg := setupTest(t)
		cfg.DryRun = true
		cfg.Purge = purge

		writeRun(t, runName, map[string][]byte{
			"RunInfo.xml":           []byte("<run/>"),
			"Images/L001/focus.jpg": []byte("jpeg"),
		})
		writeRun(t, "020120_M01757_0002_BBBBB", map[string][]byte{
			"RunInfo.xml": []byte("<run/>"),
		})
		require.NoError(t, afero.WriteFile(fs,
			"/data/020120_M01757_0002_BBBBB.tar.gz", []byte("gz"), 0644))

		before := snapshotFs(t)
		require.NoError(t, Run(cfg))
		assert.Equal(t, before, snapshotFs(t))
	}
}

func TestNoMatchingRuns(t *testing.T) {
	cfg := setupTest(t)
	require.NoError(t, fs.MkdirAll("/data/not-a-run", 0755))

	before := snapshotFs(t)
	err := Run(cfg)
	assert.Equal(t, errors.NoMatchingRuns{Root: "/data"}, err)
	assert.Equal(t, before, snapshotFs(t))
}

func TestIdempotence(t *testing.T) {
	cfg := setupTest(t)
	writeRun(t, runName, map[string][]byte{"RunInfo.xml": []byte("<run/>")})

	require.NoError(t, Run(cfg))
	after := snapshotFs(t)

	// The second pass finds nothing to archive and changes nothing.
	err := Run(cfg)
	assert.Equal(t, errors.NoMatchingRuns{Root: "/data"}, err)
	assert.Equal(t, after, snapshotFs(t))
}

func TestPartialArchiveIsNotTrusted(t *testing.T) {
	cfg := setupTest(t)
	writeRun(t, runName, map[string][]byte{"RunInfo.xml": []byte("<run/>")})

	// A staging file from an interrupted run must not stop re-archival.
	require.NoError(t, afero.WriteFile(fs,
		"/data/"+runName+".tar.gz.partial", []byte("truncated"), 0644))

	require.NoError(t, Run(cfg))

	contents := extractArchive(t, "/data/"+runName+".tar.gz")
	assert.Equal(t, map[string][]byte{
		runName + "/RunInfo.xml": []byte("<run/>"),
	}, contents)
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d   time.Duration
		exp string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{60 * time.Second, "1m0s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 4*time.Minute + 6*time.Second, "2h4m6s"},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, humanDuration(test.d))
	}
}

func TestGib(t *testing.T) {
	assert.Equal(t, 1.0, gib(1<<30))
	assert.Equal(t, 0.5, gib(1<<29))
}

func TestNewConfigBadPattern(t *testing.T) {
	vault := config.Default()
	vault.Pattern = "(["
	_, err := NewConfig(vault, "/data", false, true)
	assert.Error(t, err)
}

// extractArchive returns the regular files in the tarball, keyed by entry
// name.
func extractArchive(t *testing.T, path string) map[string][]byte {
	archiveBytes, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	gzr, err := gzip.NewReader(bytes.NewReader(archiveBytes))
	require.NoError(t, err)
	defer gzr.Close()

	contents := map[string][]byte{}
	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		if header.Typeflag != tar.TypeReg {
			continue
		}

		fileBytes, err := ioutil.ReadAll(tr)
		require.NoError(t, err)
		contents[header.Name] = fileBytes
	}
	return contents
}

// snapshotFs captures every path and file contents so tests can assert
// that nothing changed.
func snapshotFs(t *testing.T) map[string]string {
	snapshot := map[string]string{}
	err := afero.Walk(fs, "/", func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			snapshot[path] = "dir"
			return nil
		}
		contents, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		snapshot[path] = string(contents)
		return nil
	})
	require.NoError(t, err)
	return snapshot
}
