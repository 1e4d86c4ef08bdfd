package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--storage", "memory"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "*  1. Night Owl - Broke For Free"), lines[0])
	assert.Contains(t, lines[2], "Enthusiast - Tours")
}

func TestSearchCommand(t *testing.T) {
	out, err := execute(t, "search", "night", "owl")
	require.NoError(t, err)
	assert.Contains(t, out, "100   1. Night Owl - Broke For Free")

	out, err = execute(t, "search", "--plain", "zzzz")
	require.NoError(t, err)
	assert.Equal(t, service.MessageNoMatches+"\n", out)
}

func TestSearchCommand_NeedsQuery(t *testing.T) {
	_, err := execute(t, "search")
	assert.Error(t, err)
}

func TestUnknownStorage(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--storage", "floppy", "list"})
	assert.Error(t, cmd.Execute())
}
