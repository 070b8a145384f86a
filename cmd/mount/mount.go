package mount

import (
	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
	"github.com/seqops/runvault/pkg/mounter"
)

// New creates a new `mount` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "mount",
		Short: "Mount the instrument's network share",
		Long: "Mount the instrument's network share as configured in\n" +
			"~/.runvault.yaml. The mount is declarative and one-shot: a\n" +
			"failure from the OS mount utility is fatal and never retried.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := main(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func main() error {
	vault, err := config.ParseVault()
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return errors.NewFriendlyError("The runvault config file doesn't "+
				"exist at %q.\nThe mount command needs the share settings "+
				"from it.", config.VaultConfigPath)
		}
		return err
	}

	return mounter.Mount(vault.Mount)
}
