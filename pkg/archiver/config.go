package archiver

import (
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/run"
)

// NewConfig resolves the archiver configuration for one invocation from
// the operator's vault config and the command line.
func NewConfig(vault config.Vault, root string, dryRun, purge bool) (Config, error) {
	matcher, err := run.NewMatcher(vault.Pattern)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Root:            root,
		DryRun:          dryRun,
		Purge:           purge,
		PurgeExtensions: vault.PurgeExtensions,
		Matcher:         matcher,
	}, nil
}
