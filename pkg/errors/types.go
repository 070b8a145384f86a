package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// NotADirectory represents when a path that must be a directory turned out
// to be a regular file.
type NotADirectory struct {
	Path string
}

func (err NotADirectory) Error() string {
	return fmt.Sprintf("%q is not a directory", err.Path)
}

// NoMatchingRuns represents a data directory without any subdirectories
// matching the run naming convention. Nothing was mutated, so it's closer
// to a benign terminal state than a failure, but callers still exit
// non-zero so that schedulers notice an instrument that has stopped
// producing runs.
type NoMatchingRuns struct {
	Root string
}

func (err NoMatchingRuns) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage implements FriendlyError.
func (err NoMatchingRuns) FriendlyMessage() string {
	return fmt.Sprintf("No run directories found under %q.\n"+
		"Either the instrument hasn't finished a run yet, or every run has "+
		"already been archived.", err.Root)
}
