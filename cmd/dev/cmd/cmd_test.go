package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagErrors(t *testing.T) {
	bare := &cobra.Command{}
	err := BuildCmd().RunE(bare, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not get os flag")

	err = ChangelogCmd().RunE(bare, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not get output flag")
}

func TestBuildUnknownTarget(t *testing.T) {
	cmd := BuildCmd()
	cmd.SetArgs([]string{"--target", "amiga"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "amiga"`)
}
