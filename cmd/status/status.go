package status

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/run"
)

// Mocked for unit testing.
var (
	fs                     = afero.NewOsFs()
	stdout       io.Writer = os.Stdout
	parseConfig            = config.ParseVaultOrDefault
)

// New creates a new `status` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "status DATA_DIR",
		Short: "List run directories and their archival state",
		Long: "List every run directory under DATA_DIR together with its\n" +
			"archival state, plus archives whose source directory is already\n" +
			"gone. Never changes anything.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := main(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func main(root string) error {
	vault, err := parseConfig()
	if err != nil {
		return err
	}

	matcher, err := run.NewMatcher(vault.Pattern)
	if err != nil {
		return err
	}

	dirs, err := run.Discover(fs, root, matcher)
	if err != nil {
		return err
	}

	present := map[string]bool{}
	for _, dir := range dirs {
		present[dir.Name] = true

		status, err := run.Classify(fs, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\n", dir.Name, status)
	}

	// Fully processed runs only exist as archives at this point. List them
	// too so that the output covers every run the data directory has seen.
	infos, err := afero.ReadDir(fs, root)
	if err != nil {
		return err
	}
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), run.ArchiveSuffix) {
			continue
		}
		name := strings.TrimSuffix(fi.Name(), run.ArchiveSuffix)
		if !present[name] && matcher.Matches(name) {
			fmt.Fprintf(stdout, "%s\tarchive only\n", name)
		}
	}
	return nil
}
