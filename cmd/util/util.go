package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/seqops/runvault/pkg/errors"
)

// exit is mocked for unit testing.
var exit = os.Exit

// HandleFatalError prints err to stderr and terminates the process with a
// non-zero exit code. Friendly errors are printed verbatim; anything else
// keeps its context chain so that bug reports stay actionable.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic recovers from panics in the calling goroutine, prints the
// stack, and exits non-zero. It should be installed with `defer` at the
// top of every goroutine.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "runvault crashed: %v\n\n%s", r, debug.Stack())
	exit(1)
}
