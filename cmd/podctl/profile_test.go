package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile_MissingFileUsesDefaults(t *testing.T) {
	p, err := loadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, defaultAPIURL, p.APIURL)
	assert.Equal(t, defaultAccount, p.Account)
}

func TestLoadProfile_ReadsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://api.acme.io/api\naccount: ops\n"), 0o600))

	p, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.acme.io/api", p.APIURL)
	assert.Equal(t, "ops", p.Account)
}

func TestLoadProfile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0o600))

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, saveProfile(path, &Profile{APIURL: "https://x.io/api", Account: "qa"}))

	p, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "qa", p.Account)
}
