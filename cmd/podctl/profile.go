package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL  = "http://localhost:5001/api"
	defaultAccount = "default"
	profileName    = ".podctl.yaml"
)

// Profile holds the operator's saved defaults. Flags override it.
type Profile struct {
	APIURL  string `yaml:"api_url"`
	Account string `yaml:"account"`
}

func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return profileName
	}
	return filepath.Join(home, profileName)
}

// loadProfile reads path. A missing file yields the defaults.
func loadProfile(path string) (*Profile, error) {
	p := &Profile{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	}
	if p.APIURL == "" {
		p.APIURL = defaultAPIURL
	}
	if p.Account == "" {
		p.Account = defaultAccount
	}
	return p, nil
}

func saveProfile(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", path, err)
	}
	return nil
}
