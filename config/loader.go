package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is the directory name used under the XDG config home.
const AppName = "lazyload"

// DefaultConfigFile is the policy file looked up in the working directory.
const DefaultConfigFile = ".lazyload.yaml"

// Load reads and validates the policy file at path. A missing file yields
// ErrConfigNotFound.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a policy file. Unknown keys are rejected so
// typos do not silently fall back to defaults. An empty document yields an
// empty File.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Find returns the policy file to use, searching in order:
//  1. configPath, if not empty
//  2. .lazyload.yaml in the current directory
//  3. lazyload/config.yaml under the XDG config home
//
// It returns "" when no file exists.
func Find(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
