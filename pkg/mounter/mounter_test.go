package mounter

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seqops/runvault/pkg/config"
	"github.com/seqops/runvault/pkg/errors"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Mount
		exp  []string
	}{
		{
			name: "Minimal",
			cfg: config.Mount{
				Share:  "//instrument/data",
				Target: "/mnt/instrument",
			},
			exp: []string{"mount", "-t", "cifs",
				"//instrument/data", "/mnt/instrument"},
		},
		{
			name: "Credentials",
			cfg: config.Mount{
				Share:           "//instrument/data",
				Target:          "/mnt/instrument",
				CredentialsFile: "/etc/runvault/credentials",
			},
			exp: []string{"mount", "-t", "cifs",
				"-o", "credentials=/etc/runvault/credentials",
				"//instrument/data", "/mnt/instrument"},
		},
		{
			name: "TypeAndOptions",
			cfg: config.Mount{
				Share:   "instrument:/data",
				Target:  "/mnt/instrument",
				Type:    "nfs",
				Options: "ro,vers=3",
			},
			exp: []string{"mount", "-t", "nfs",
				"-o", "ro,vers=3",
				"instrument:/data", "/mnt/instrument"},
		},
		{
			name: "CredentialsAndOptions",
			cfg: config.Mount{
				Share:           "//instrument/data",
				Target:          "/mnt/instrument",
				CredentialsFile: "/etc/runvault/credentials",
				Options:         "ro",
			},
			exp: []string{"mount", "-t", "cifs",
				"-o", "credentials=/etc/runvault/credentials,ro",
				"//instrument/data", "/mnt/instrument"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Args(test.cfg))
		})
	}
}

func TestMount(t *testing.T) {
	var gotArgs []string
	runCommand = func(cmd *exec.Cmd) error {
		gotArgs = cmd.Args
		return nil
	}

	cfg := config.Mount{Share: "//instrument/data", Target: "/mnt/instrument"}
	assert.NoError(t, Mount(cfg))
	assert.Equal(t, []string{"mount", "-t", "cifs",
		"//instrument/data", "/mnt/instrument"}, gotArgs)

	// The mount utility's exit status is surfaced as-is.
	runCommand = func(_ *exec.Cmd) error {
		return errors.New("exit status 32")
	}
	assert.Error(t, Mount(cfg))
}

func TestMountMissingSettings(t *testing.T) {
	err := Mount(config.Mount{})
	assert.Error(t, err)
	_, friendly := err.(errors.FriendlyError)
	assert.True(t, friendly)
}
