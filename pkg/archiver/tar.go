package archiver

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/seqops/runvault/pkg/errors"
	"github.com/seqops/runvault/pkg/run"
)

// partialSuffix marks archives that are still being written. Discovery and
// classification never treat a partial file as an archive.
const partialSuffix = ".partial"

// afero can't read symlink targets, so they're resolved through the OS.
// Mocked for unit testing.
var readlink = os.Readlink

// tarHeader builds the tar header for a walked entry. Symlinks record their
// actual target so extraction reproduces them.
func tarHeader(file string, fi os.FileInfo) (*tar.Header, error) {
	link := ""
	if fi.Mode()&os.ModeSymlink != 0 {
		var err error
		if link, err = readlink(file); err != nil {
			return nil, errors.WithContext(err, fmt.Sprintf("read link %s", file))
		}
	}
	return tar.FileInfoHeader(fi, link)
}

// tarDirectory streams the run directory into a gzipped tarball at
// outPath. Entries are named relative to the run directory, prefixed with
// its name, so extraction reproduces the original layout.
func tarDirectory(dir run.Directory, outPath string) error {
	out, err := fs.Create(outPath)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	walkErr := afero.Walk(fs, dir.Path, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tarHeader(file, fi)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("make header %s", file))
		}

		relPath, err := filepath.Rel(dir.Path, file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s to %s", file, dir.Path))
		}

		header.Name = filepath.Join(dir.Name, relPath)
		if err := tw.WriteHeader(header); err != nil {
			return errors.WithContext(err, fmt.Sprintf("write %s header", file))
		}

		// Only write contents if it's a file (i.e. not a directory).
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := fs.Open(file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("open %s", file))
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return errors.WithContext(err, fmt.Sprintf("copy %s", file))
		}
		return nil
	})

	// Close innermost first so the tar and gzip trailers get flushed before
	// the file is closed. A failed close means the archive can't be trusted.
	if err := tw.Close(); err != nil && walkErr == nil {
		walkErr = errors.WithContext(err, "close tar stream")
	}
	if err := gzw.Close(); err != nil && walkErr == nil {
		walkErr = errors.WithContext(err, "close gzip stream")
	}
	if err := out.Close(); err != nil && walkErr == nil {
		walkErr = errors.WithContext(err, "close archive")
	}
	return walkErr
}
