package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{
		{"migrate"},
		{"seed"},
		{"user", "add"},
		{"user", "list"},
		{"role", "add"},
		{"role", "list"},
		{"role", "grant"},
		{"role", "revoke"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRoleGrant_RequiresTwoArgs(t *testing.T) {
	root := rootCmd()
	root.SetArgs([]string{"role", "grant", "admin"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	assert.Error(t, root.Execute())
}
