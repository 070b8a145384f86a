// Package syncer copies finished archives to the backup destination.
package syncer

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/seqops/runvault/pkg/errors"
	"github.com/seqops/runvault/pkg/run"
)

// Variables mocked for unit testing.
var (
	fs    = afero.NewOsFs()
	clock = clockwork.NewRealClock()
)

// Stats summarizes one transfer.
type Stats struct {
	// Scanned is the number of archives found under the source directory.
	Scanned int

	// Copied is the number of archives transferred to the destination.
	Copied int

	// Skipped is the number of archives already present and unchanged at
	// the destination.
	Skipped int

	// BytesCopied is the total size of the transferred archives.
	BytesCopied int64

	Elapsed time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("copied %d archives (%.2f GiB), skipped %d unchanged",
		s.Copied, float64(s.BytesCopied)/(1<<30), s.Skipped)
}

// Sync copies every archive directly under src into dst. The transfer is
// idempotent: archives whose destination copy already has the same size
// and contents are skipped, so repeated runs settle into a no-op. Failures
// abort the transfer and are not retried.
func Sync(src, dst string) (Stats, error) {
	start := clock.Now()
	var stats Stats

	fi, err := fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, errors.FileNotFound{Path: src}
		}
		return stats, errors.WithContext(err, "stat source")
	}
	if !fi.IsDir() {
		return stats, errors.NotADirectory{Path: src}
	}

	if err := fs.MkdirAll(dst, 0755); err != nil {
		return stats, errors.WithContext(err, "make destination")
	}

	infos, err := afero.ReadDir(fs, src)
	if err != nil {
		return stats, errors.WithContext(err, "read source")
	}

	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), run.ArchiveSuffix) {
			continue
		}
		stats.Scanned++

		srcPath := filepath.Join(src, fi.Name())
		dstPath := filepath.Join(dst, fi.Name())

		same, err := unchanged(srcPath, dstPath, fi.Size())
		if err != nil {
			return stats, errors.WithContext(err, fmt.Sprintf("compare %q", fi.Name()))
		}
		if same {
			log.WithField("archive", fi.Name()).Debug("Unchanged at destination. Skipping.")
			stats.Skipped++
			continue
		}

		if err := copyFile(srcPath, dstPath); err != nil {
			return stats, errors.WithContext(err, fmt.Sprintf("copy %q", fi.Name()))
		}
		stats.Copied++
		stats.BytesCopied += fi.Size()
		log.WithField("archive", fi.Name()).Info("Copied archive")
	}

	stats.Elapsed = clock.Now().Sub(start)
	return stats, nil
}

// unchanged reports whether the destination copy already matches the
// source. Size is compared first so that the expensive hash only runs on
// candidates that could actually match.
func unchanged(srcPath, dstPath string, srcSize int64) (bool, error) {
	dstInfo, err := fs.Stat(dstPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithContext(err, "stat destination")
	}
	if dstInfo.Size() != srcSize {
		return false, nil
	}

	srcHash, err := hashFile(srcPath)
	if err != nil {
		return false, errors.WithContext(err, "hash source")
	}
	dstHash, err := hashFile(dstPath)
	if err != nil {
		return false, errors.WithContext(err, "hash destination")
	}
	return srcHash == dstHash, nil
}

func hashFile(path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	hasher := sha512.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer srcFile.Close()

	fileInfo, err := srcFile.Stat()
	if err != nil {
		return errors.WithContext(err, "stat")
	}

	dstFile, err := fs.Create(dst)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer dstFile.Close()

	if err := fs.Chmod(dst, fileInfo.Mode()); err != nil {
		return errors.WithContext(err, "set file mode")
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return errors.WithContext(err, "copy")
	}

	// Change the modification time as the last step so that it doesn't get
	// reset by other file operations.
	if err := fs.Chtimes(dst, time.Now(), fileInfo.ModTime()); err != nil {
		return errors.WithContext(err, "set file modtime")
	}
	return nil
}
