package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
	"github.com/seqops/runvault/pkg/syncer"
)

// New creates a new `sync` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [SOURCE [DESTINATION]]",
		Short: "Copy finished archives to the backup destination",
		Long: "Copy every .tar.gz archive under SOURCE to DESTINATION.\n" +
			"Archives that are already present and unchanged at the\n" +
			"destination are skipped, so repeated runs are cheap. Defaults\n" +
			"for both paths come from ~/.runvault.yaml.",
		Args: cobra.MaximumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if err := main(args); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func main(args []string) error {
	src, dst, err := resolvePaths(args)
	if err != nil {
		return err
	}

	stats, err := syncer.Sync(src, dst)
	if err != nil {
		return errors.WithContext(err, "sync archives")
	}

	fmt.Printf("Synced %q to %q: %s in %s.\n", src, dst, stats, stats.Elapsed)
	return nil
}

func resolvePaths(args []string) (src, dst string, err error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	vault, err := config.ParseVault()
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return "", "", errors.NewFriendlyError("The runvault config file "+
				"doesn't exist at %q.\nEither create it, or pass the source "+
				"and destination as arguments.", config.VaultConfigPath)
		}
		return "", "", err
	}

	src = vault.DataDir
	if len(args) == 1 {
		src = args[0]
	}
	dst = vault.Sync.Destination

	if src == "" || dst == "" {
		return "", "", errors.NewFriendlyError("The sync command needs a "+
			"source and a destination.\nSet `dataDir` and `sync.destination` "+
			"in %s, or pass them as arguments.", config.VaultConfigPath)
	}
	return src, dst, nil
}
