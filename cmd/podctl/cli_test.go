package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeConfirmation_FlagSkipsPrompt(t *testing.T) {
	asked := false
	got, err := purgeConfirmation("p1", "DELETE", func(string, bool) (string, error) {
		asked = true
		return "", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "DELETE", got)
	assert.False(t, asked)
}

func TestPurgeConfirmation_Prompts(t *testing.T) {
	var title string
	got, err := purgeConfirmation("p1", "", func(tt string, secret bool) (string, error) {
		title = tt
		assert.False(t, secret)
		return "delete", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "delete", got)
	assert.Contains(t, title, "Type DELETE to permanently delete pod p1")
}

func TestPurgeConfirmation_PromptAborted(t *testing.T) {
	_, err := purgeConfirmation("p1", "", func(string, bool) (string, error) {
		return "", errors.New("user aborted")
	})
	assert.EqualError(t, err, "user aborted")
}

func TestReadSheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email,licenses\n"), 0o600))

	name, data, err := readSheet(path)
	require.NoError(t, err)
	assert.Equal(t, "users.csv", name)
	assert.Equal(t, "name,email,licenses\n", string(data))
}

func TestReadSheet_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, _, err := readSheet(path)
	assert.ErrorContains(t, err, "is empty")
}

func TestReadSheet_Missing(t *testing.T) {
	_, _, err := readSheet(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorContains(t, err, "failed to open")
}

func TestParseCount(t *testing.T) {
	n, err := parseCount("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseCount("-1")
	assert.Error(t, err)
	_, err = parseCount("ten")
	assert.Error(t, err)
}

func TestRootCommand_Tree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "whoami", "pods", "users", "mass-upload", "reports"} {
		assert.True(t, names[want], want)
	}

	cmd, _, err := rootCmd.Find([]string{"pods", "licenses", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", cmd.Name())
}
