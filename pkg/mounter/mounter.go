// Package mounter mounts the instrument's network share.
package mounter

import (
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

// Variables mocked for unit testing.
var runCommand = (*exec.Cmd).Run

const defaultFsType = "cifs"

// Mount performs the one-shot declarative mount described by cfg. The OS
// mount utility's exit status is authoritative: a failure is surfaced
// as-is and never retried.
func Mount(cfg config.Mount) error {
	if cfg.Share == "" || cfg.Target == "" {
		return errors.NewFriendlyError("The mount section of the runvault "+
			"config must set both `share` and `target`.\n"+
			"Please review %s.", config.VaultConfigPath)
	}

	argv := Args(cfg)
	log.WithField("cmd", strings.Join(argv, " ")).Info("Mounting instrument share")

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := runCommand(cmd); err != nil {
		return errors.WithContext(err, "mount")
	}
	return nil
}

// Args returns the mount argv for cfg. The credentials file is handed to
// the mount utility as an option; runvault never reads it.
func Args(cfg config.Mount) []string {
	fsType := cfg.Type
	if fsType == "" {
		fsType = defaultFsType
	}

	args := []string{"mount", "-t", fsType}

	var opts []string
	if cfg.CredentialsFile != "" {
		opts = append(opts, "credentials="+cfg.CredentialsFile)
	}
	if cfg.Options != "" {
		opts = append(opts, cfg.Options)
	}
	if len(opts) > 0 {
		args = append(args, "-o", strings.Join(opts, ","))
	}

	return append(args, cfg.Share, cfg.Target)
}
