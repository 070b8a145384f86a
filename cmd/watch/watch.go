package watch

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/archiver"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
	"github.com/seqops/runvault/pkg/fswatch"
)

// The interval to re-scan the data directory even without a filesystem
// event. Instruments on network shares don't always generate events.
const pollInterval = 5 * time.Minute

// Mocked for unit testing.
var archiverRun = archiver.Run

// New creates a new `watch` command.
func New() *cobra.Command {
	var keepImg bool
	cmd := &cobra.Command{
		Use:   "watch DATA_DIR",
		Short: "Archive new runs as they appear",
		Long: "Run an archival pass over DATA_DIR, then keep re-running it\n" +
			"whenever the directory changes. Each pass archives runs one at a\n" +
			"time, exactly like `runvault archive`.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := main(args[0], keepImg); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&keepImg, "keep-img", "k", false,
		"keep disposable image files instead of purging them")
	return cmd
}

func main(root string, keepImg bool) error {
	vault, err := config.ParseVaultOrDefault()
	if err != nil {
		return errors.WithContext(err, "load config")
	}

	cfg, err := archiver.NewConfig(vault, root, false, !keepImg)
	if err != nil {
		return err
	}

	trigger, err := fswatch.Watch(root)
	if err != nil {
		return errors.WithContext(err, "watch data dir")
	}

	log.WithField("dataDir", root).Info("Watching for finished runs")
	ticker := time.NewTicker(pollInterval).C
	for {
		if err := runOnce(cfg); err != nil {
			return err
		}

		select {
		case <-trigger:
		case <-ticker:
		}
	}
}

// runOnce runs one archival pass. An empty data directory is expected
// while waiting for the instrument, so it doesn't end the watch.
func runOnce(cfg archiver.Config) error {
	err := archiverRun(cfg)
	if err != nil {
		if _, benign := errors.RootCause(err).(errors.NoMatchingRuns); benign {
			log.Debug("No runs to archive")
			return nil
		}
	}
	return err
}
