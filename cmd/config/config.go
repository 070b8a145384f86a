package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seqops/runvault/cmd/util"
	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout           io.Writer = os.Stdout
	stdin            io.Reader = os.Stdin
	parseVaultConfig           = config.ParseVault
	writeVaultConfig           = config.WriteVault
	getConfigPath              = config.GetVaultConfigPath
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.Vault
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the runvault configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.DataDir, "data-dir", "",
		"Set the data directory in the config. "+
			"Optional: If not set, `runvault config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Pattern, "pattern", "",
		"Set the run name pattern in the config. "+
			"Optional: If not set, `runvault config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Mount.Share, "share", "",
		"Set the instrument share in the config. "+
			"Optional: If not set, `runvault config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Mount.Target, "mount-target", "",
		"Set the mount target in the config. "+
			"Optional: If not set, `runvault config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Sync.Destination, "destination", "",
		"Set the sync destination in the config. "+
			"Optional: If not set, `runvault config` will interactively prompt.")

	// Setup the commands for querying the contents of the config.
	type getterSpec struct {
		use, short string
		fn         func(config.Vault) string
	}

	getters := []getterSpec{
		{
			use:   "get-data-dir",
			short: "Get the currently configured data directory",
			fn:    func(cfg config.Vault) string { return cfg.DataDir },
		},
		{
			use:   "get-destination",
			short: "Get the currently configured sync destination",
			fn:    func(cfg config.Vault) string { return cfg.Sync.Destination },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseVaultConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

func SetupConfig(cliOpts config.Vault) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeVaultConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := getConfigPath()
	if err != nil {
		return errors.WithContext(err, "get config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func patternValidationFn(pattern string) (string, bool) {
	if pattern == "" {
		return "", true
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Sprintf("This pattern isn't a valid regular expression:\n"+
			"%s\nPlease enter another pattern.", err), false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the operator to decide what the desired
// configuration is. Values from the current config file are offered as
// answers, and flags override the prompts entirely.
func generateConfig(cliOpts config.Vault) (config.Vault, error) {
	currConfig, err := parseVaultConfig()
	if err != nil {
		currConfig = config.Vault{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.DataDir == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the directory the instrument writes finished runs into.\n" +
				"This is usually the mount target of the instrument share.",
			prompt:     "Data directory",
			currAnswer: currConfig.DataDir,
			field:      &cfg.DataDir,
		})
	}

	if cliOpts.Pattern == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the regular expression that run directory names must match.\n" +
				"Directories that don't match it are never archived or purged.",
			prompt:        "Run name pattern",
			defaultAnswer: config.DefaultRunPattern,
			currAnswer:    currConfig.Pattern,
			field:         &cfg.Pattern,
			validationFn:  patternValidationFn,
		})
	}

	if cliOpts.Mount.Share == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the network share the instrument exports, e.g. //instrument/data.",
			prompt:     "Instrument share",
			currAnswer: currConfig.Mount.Share,
			field:      &cfg.Mount.Share,
		})
	}

	if cliOpts.Mount.Target == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the local directory the instrument share is mounted at.",
			prompt:     "Mount target",
			currAnswer: currConfig.Mount.Target,
			field:      &cfg.Mount.Target,
		})
	}

	if cliOpts.Sync.Destination == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the directory finished archives are copied to by `runvault sync`.",
			prompt:     "Sync destination",
			currAnswer: currConfig.Sync.Destination,
			field:      &cfg.Sync.Destination,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.Vault{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\n")

			// Default to the first choice if the operator doesn't enter
			// anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\n"), nil
}
