package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqops/runvault/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of runvault.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("runvault version: %s\n", version.Version)
		},
	}
}
