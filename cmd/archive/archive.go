package archive

import (
	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/archiver"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

// New creates a new `archive` command.
func New() *cobra.Command {
	var dryRun, keepImg bool
	cmd := &cobra.Command{
		Use:   "archive DATA_DIR",
		Short: "Archive finished run directories into compressed tarballs",
		Long: "Archive every run directory under DATA_DIR into a sibling\n" +
			"<name>.tar.gz and remove the original. Directories whose archive\n" +
			"already exists are removed without re-archiving. By default,\n" +
			"disposable image files are purged before compression.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			main(args[0], dryRun, keepImg)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false,
		"report intended actions without changing anything")
	cmd.Flags().BoolVarP(&keepImg, "keep-img", "k", false,
		"keep disposable image files instead of purging them")
	return cmd
}

func main(root string, dryRun, keepImg bool) {
	vault, err := config.ParseVaultOrDefault()
	if err != nil {
		util.HandleFatalError(errors.WithContext(err, "load config"))
	}

	cfg, err := archiver.NewConfig(vault, root, dryRun, !keepImg)
	if err != nil {
		util.HandleFatalError(err)
	}

	if err := archiver.Run(cfg); err != nil {
		util.HandleFatalError(err)
	}
}
