package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/seqops/runvault/pkg/errors"
)

const (
	// VaultConfigPath is the default path to the runvault config.
	VaultConfigPath = "~/.runvault.yaml"

	// InitialVaultConfigVersion is the first version of the runvault
	// config. Config files that do not specify a version will default to
	// this version.
	InitialVaultConfigVersion = "v1alpha1"

	// SupportedVaultConfigVersion is the supported version of the runvault
	// config of the current runvault binary.
	SupportedVaultConfigVersion = "v1alpha1"

	// DefaultRunPattern matches the instrument's run naming convention:
	// a six digit date stamp, the instrument identifier, the zero padded
	// run number, and the flowcell identifier, joined by underscores.
	// For example, 010120_M01757_0001_AAAAA.
	DefaultRunPattern = `^[0-9]{6}_[A-Za-z0-9]+_[0-9]{4}_[A-Za-z0-9-]+$`
)

// DefaultPurgeExtensions are the file extensions that are purged before
// archival by default. They cover the thumbnail and focus images the
// instrument writes during a run, which are large and regenerable.
var DefaultPurgeExtensions = []string{".jpg", ".jpeg", ".tif", ".tiff"}

// Vault is the operator's runvault configuration.
type Vault struct {
	Version string `json:"version,omitempty"`

	// DataDir is the default data directory for commands that aren't given
	// one explicitly.
	DataDir string `json:"dataDir,omitempty"`

	// Pattern is the regular expression that run directory names must
	// match. Empty means DefaultRunPattern.
	Pattern string `json:"pattern,omitempty"`

	// PurgeExtensions is the set of disposable file extensions. Empty means
	// DefaultPurgeExtensions.
	PurgeExtensions []string `json:"purgeExtensions,omitempty"`

	Mount Mount `json:"mount,omitempty"`
	Sync  Sync  `json:"sync,omitempty"`
}

// Mount describes the instrument's network share.
type Mount struct {
	// Share is the remote share, e.g. //instrument/data.
	Share string `json:"share"`

	// Target is the local mount point.
	Target string `json:"target"`

	// Type is the filesystem type passed to mount -t. Defaults to cifs.
	Type string `json:"type,omitempty"`

	// CredentialsFile is the path to the file holding the share
	// credentials. It's passed to the mount utility rather than read by
	// runvault.
	CredentialsFile string `json:"credentialsFile,omitempty"`

	// Options are extra mount options, passed through verbatim.
	Options string `json:"options,omitempty"`
}

// Sync describes where finished archives are copied.
type Sync struct {
	Destination string `json:"destination"`
}

func (v Vault) getVersion() string {
	return v.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// Default returns the built-in configuration used when no config file
// exists. Only the archival settings have defaults; mount and sync need an
// explicit config.
func Default() Vault {
	return Vault{
		Version:         SupportedVaultConfigVersion,
		Pattern:         DefaultRunPattern,
		PurgeExtensions: DefaultPurgeExtensions,
	}
}

// ParseVault attempts to parse the Vault config stored in the default
// path. If the file doesn't exist, the returned error's root cause is
// errors.FileNotFound so that callers can fall back to Default.
func ParseVault() (Vault, error) {
	path, err := GetVaultConfigPath()
	if err != nil {
		return Vault{}, errors.WithContext(err, "expand config path")
	}

	config := Vault{Version: InitialVaultConfigVersion}
	if err := parseConfig(path, &config, SupportedVaultConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Vault{}, err
		}
		return Vault{}, errors.WithContext(err, "parse")
	}

	if config.Pattern == "" {
		config.Pattern = DefaultRunPattern
	}
	if len(config.PurgeExtensions) == 0 {
		config.PurgeExtensions = DefaultPurgeExtensions
	}

	config.DataDir, err = homedirExpand(config.DataDir)
	if err != nil {
		return Vault{}, errors.WithContext(err, "expand data dir")
	}

	// Evaluate relative paths relative to the config path.
	if config.DataDir != "" && !filepath.IsAbs(config.DataDir) {
		config.DataDir = filepath.Join(filepath.Dir(path), config.DataDir)
	}
	return config, nil
}

// ParseVaultOrDefault parses the Vault config, falling back to the
// built-in defaults if no config file exists.
func ParseVaultOrDefault() (Vault, error) {
	config, err := ParseVault()
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return Default(), nil
		}
		return Vault{}, err
	}
	return config, nil
}

// WriteVault writes the given config to disk.
func WriteVault(cfg Vault) error {
	cfg.Version = SupportedVaultConfigVersion
	path, err := GetVaultConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetVaultConfigPath returns the path to the operator's global runvault
// configuration. This path is expanded, so it can be directly passed to
// file operations.
func GetVaultConfigPath() (string, error) {
	return homedirExpand(VaultConfigPath)
}
