// Package fswatch signals when the contents of the data directory change.
package fswatch

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/seqops/runvault/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch sends an event on the returned channel whenever anything directly
// under root changes. The watch is deliberately non-recursive: the
// archiver only cares about run directories appearing or disappearing at
// the top level, and instruments write thousands of files inside a run
// while it's in progress.
func Watch(root string) (chan struct{}, error) {
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

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	if err := watcher.Add(root); err != nil {
		// Close the watcher so that we release the file handle.
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
		return nil, errors.WithContext(err, fmt.Sprintf("watch %q", root))
	}
	return combineUpdates(watcher.Events), nil
}

// combineUpdates collapses a burst of filesystem events into a single
// trigger so that one finished run doesn't start a pass per written file.
func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}
