package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	archiveCmd "github.com/seqops/runvault/cmd/archive"
	configCmd "github.com/seqops/runvault/cmd/config"
	mountCmd "github.com/seqops/runvault/cmd/mount"
	statusCmd "github.com/seqops/runvault/cmd/status"
	syncCmd "github.com/seqops/runvault/cmd/sync"
	"github.com/seqops/runvault/cmd/util"
	versionCmd "github.com/seqops/runvault/cmd/version"
	watchCmd "github.com/seqops/runvault/cmd/watch"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info
// and above.
const verboseLogKey = "RUNVAULT_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "runvault",
		Short:        "Manage the lifecycle of sequencing instrument run data",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		archiveCmd.New(),
		configCmd.New(),
		mountCmd.New(),
		statusCmd.New(),
		syncCmd.New(),
		versionCmd.New(),
		watchCmd.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
