// Package run models sequencing run directories: the naming convention
// that identifies them, their discovery under a data directory, and their
// archival status.
package run

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/seqops/runvault/pkg/errors"
)

// ArchiveSuffix is appended to a run directory's name to form its archive.
const ArchiveSuffix = ".tar.gz"

// Directory is one sequencing instrument's output for a single experiment.
type Directory struct {
	// Path is the full path to the directory.
	Path string

	// Name is the directory's base name.
	Name string
}

// ArchivePath returns the path of the archive adjacent to the directory.
func (d Directory) ArchivePath() string {
	return d.Path + ArchiveSuffix
}

// Status is a run directory's archival state.
type Status int

const (
	// Unarchived means no archive exists for the directory yet.
	Unarchived Status = iota

	// AlreadyArchived means an archive with the directory's name exists
	// adjacent to it. The archive's presence is trusted; its contents are
	// never verified.
	AlreadyArchived
)

func (s Status) String() string {
	if s == AlreadyArchived {
		return "archived"
	}
	return "unarchived"
}

// Matcher decides whether a directory name follows the run naming
// convention.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles the given naming pattern.
func NewMatcher(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Matcher{}, errors.WithContext(err, "compile run pattern")
	}
	return Matcher{re: re}, nil
}

// Matches reports whether name follows the run naming convention. Matching
// is case sensitive.
func (m Matcher) Matches(name string) bool {
	return m.re.MatchString(name)
}

// Discover returns the run directories immediately under root. The scan is
// one level deep and never recurses. Re-scanning an unchanged filesystem
// yields the same results.
func Discover(fs afero.Fs, root string, matcher Matcher) ([]Directory, error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.IsDir() {
		return nil, errors.NotADirectory{Path: root}
	}

	infos, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, errors.WithContext(err, "read data dir")
	}

	var dirs []Directory
	for _, fi := range infos {
		if !fi.IsDir() || !matcher.Matches(fi.Name()) {
			continue
		}
		dirs = append(dirs, Directory{
			Path: filepath.Join(root, fi.Name()),
			Name: fi.Name(),
		})
	}
	return dirs, nil
}

// Classify returns the directory's archival status. Staging files left by
// an interrupted archival (for example foo.tar.gz.partial) don't count as
// archives.
func Classify(fs afero.Fs, dir Directory) (Status, error) {
	exists, err := afero.Exists(fs, dir.ArchivePath())
	if err != nil {
		return Unarchived, errors.WithContext(err, "check archive")
	}
	if exists {
		return AlreadyArchived, nil
	}
	return Unarchived, nil
}
