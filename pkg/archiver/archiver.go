// Package archiver brings run directories to a terminal state: archived
// into a compressed tarball and removed, or removed outright when an
// archive already exists.
package archiver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

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

// Config is the resolved configuration for one archival pass. It's built
// once per invocation and never mutated.
type Config struct {
	// Root is the data directory holding the run directories.
	Root string

	// DryRun reports intended actions without mutating the filesystem.
	DryRun bool

	// Purge deletes disposable image files before compressing.
	Purge bool

	// PurgeExtensions is the disposable extension set. Extensions are
	// lowercase and include the leading dot.
	PurgeExtensions []string

	// Matcher decides which subdirectory names are run directories.
	Matcher run.Matcher
}

// Run processes every run directory under cfg.Root, one at a time, in
// discovery order. The first failure aborts the pass: directories already
// processed stay processed, unreached ones stay untouched.
func Run(cfg Config) error {
	dirs, err := run.Discover(fs, cfg.Root, cfg.Matcher)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return errors.NoMatchingRuns{Root: cfg.Root}
	}

	if cfg.DryRun {
		log.Warn("Dry run: nothing will be changed, and reported timings are meaningless.")
	}

	start := clock.Now()
	for _, dir := range dirs {
		if err := processDirectory(cfg, dir); err != nil {
			return errors.WithContext(err, fmt.Sprintf("process %q", dir.Name))
		}
	}

	log.WithFields(log.Fields{
		"runs":    len(dirs),
		"elapsed": humanDuration(clock.Now().Sub(start)),
	}).Info("Finished archival pass")
	return nil
}

func processDirectory(cfg Config, dir run.Directory) error {
	status, err := run.Classify(fs, dir)
	if err != nil {
		return err
	}

	if status == run.AlreadyArchived {
		log.WithField("run", dir.Name).Warn(
			"An archive already exists for this run. " +
				"Removing the unarchived copy and keeping the archive.")
		return discard(cfg, dir)
	}

	if cfg.Purge {
		if err := purge(cfg, dir); err != nil {
			return errors.WithContext(err, "purge")
		}
	}
	return archive(cfg, dir)
}

// discard removes a run directory whose archive already exists. The
// pre-existing archive is treated as authoritative and left untouched.
func discard(cfg Config, dir run.Directory) error {
	if cfg.DryRun {
		log.Infof("Would remove %q", dir.Path)
		return nil
	}

	start := clock.Now()
	if err := fs.RemoveAll(dir.Path); err != nil {
		return errors.WithContext(err, "remove")
	}

	log.WithFields(log.Fields{
		"run":     dir.Name,
		"elapsed": humanDuration(clock.Now().Sub(start)),
	}).Info("Removed unarchived copy")
	return nil
}

// purge deletes every disposable file under the run directory and returns
// how many were deleted. In dry run mode it deletes nothing, but still
// logs each would-be victim so that operators can audit the image impact
// before an execution run.
func purge(cfg Config, dir run.Directory) error {
	start := clock.Now()
	count := 0
	err := afero.Walk(fs, dir.Path, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !isDisposable(cfg.PurgeExtensions, path) {
			return nil
		}

		if cfg.DryRun {
			log.Infof("Would purge %q", path)
			count++
			return nil
		}

		if err := fs.Remove(path); err != nil {
			return errors.WithContext(err, fmt.Sprintf("remove %q", path))
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	entry := log.WithFields(log.Fields{
		"run":     dir.Name,
		"files":   count,
		"elapsed": humanDuration(clock.Now().Sub(start)),
	})
	if cfg.DryRun {
		entry.Info("Would purge image files")
	} else {
		entry.Info("Purged image files")
	}
	return nil
}

func isDisposable(extensions []string, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, disposable := range extensions {
		if ext == disposable {
			return true
		}
	}
	return false
}

// archive compresses the run directory into a sibling tarball, then
// removes the original. The tarball is staged under a partial name and
// only renamed into place once it's fully written and non-empty, so an
// interrupted run never leaves a truncated file that classification would
// trust.
func archive(cfg Config, dir run.Directory) error {
	archivePath := dir.ArchivePath()
	if cfg.DryRun {
		log.Infof("Would compress %q into %q and remove the original", dir.Path, archivePath)
		return nil
	}

	start := clock.Now()
	partialPath := archivePath + partialSuffix
	if err := tarDirectory(dir, partialPath); err != nil {
		// Clean up the staging file so a later run starts from scratch.
		if rmErr := fs.Remove(partialPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.WithError(rmErr).WithField("path", partialPath).Warn(
				"Failed to remove partial archive")
		}
		return errors.WithContext(err, "compress")
	}

	fi, err := fs.Stat(partialPath)
	if err != nil {
		return errors.WithContext(err, "stat archive")
	}
	if fi.Size() == 0 {
		return errors.New("archive is empty")
	}

	if err := fs.Rename(partialPath, archivePath); err != nil {
		return errors.WithContext(err, "publish archive")
	}

	// The archive is safely in place. Only now is the source removed.
	if err := fs.RemoveAll(dir.Path); err != nil {
		return errors.WithContext(err, "remove source")
	}

	log.WithFields(log.Fields{
		"run":     dir.Name,
		"size":    fmt.Sprintf("%.2f GiB", gib(fi.Size())),
		"elapsed": humanDuration(clock.Now().Sub(start)),
	}).Info("Archived run directory")
	return nil
}

// gib converts a byte count to binary gigabytes (1024^3 bytes, not 10^9).
func gib(bytes int64) float64 {
	return float64(bytes) / (1 << 30)
}
