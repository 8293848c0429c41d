// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves skyfile's connection settings from three
// layers, highest precedence first: command-line flags, environment
// variables (SKYFILE_SERVICE, SKYFILE_IDENTIFIER, SKYFILE_PASSWORD,
// SKYFILE_PASSWORD_FILE), and a JSONC config file (JSON extended with
// comments and trailing commas).
//
// The config file lives at $SKYFILE_CONFIG or
// ~/.config/skyfile/config.json and is written with 0600 permissions
// because it may hold an app password. A missing file is not an error;
// a malformed one is.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/skyfile-dev/skyfile/lib/secret"
)

// DefaultService is the PDS used when no layer names one.
const DefaultService = "https://bsky.social"

// Environment variable names, ordered as documented.
const (
	EnvConfig       = "SKYFILE_CONFIG"
	EnvService      = "SKYFILE_SERVICE"
	EnvIdentifier   = "SKYFILE_IDENTIFIER"
	EnvPassword     = "SKYFILE_PASSWORD"
	EnvPasswordFile = "SKYFILE_PASSWORD_FILE"
)

// File is the on-disk config shape. All fields are optional; absent
// fields fall through to the next precedence layer.
type File struct {
	// Service is the PDS base URL (e.g., "https://bsky.social").
	Service string `json:"service,omitempty"`
	// Identifier is the account handle or DID used to authenticate.
	Identifier string `json:"identifier,omitempty"`
	// Password is the app password. Stored in the 0600 config file;
	// prefer SKYFILE_PASSWORD_FILE where a file manager or backup
	// tool might read the config.
	Password string `json:"password,omitempty"`
}

// Path returns the config file location: $SKYFILE_CONFIG if set,
// otherwise ~/.config/skyfile/config.json.
func Path() (string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return path, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locating user config directory: %w", err)
	}
	return filepath.Join(configDir, "skyfile", "config.json"), nil
}

// Load reads the config file. A missing file yields an empty File and
// no error; any other read failure or malformed content is an error.
func Load() (*File, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a config file from an explicit path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var file File
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &file, nil
}

// Save writes the config file with 0600 permissions, creating the
// parent directory as needed.
func Save(file *File) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: creating %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Clear removes the config file. A missing file is not an error.
func Clear() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: removing %s: %w", path, err)
	}
	return nil
}

// Flags carries the connection values supplied on the command line.
// Empty fields fall through to the environment and the config file.
type Flags struct {
	Service      string
	Identifier   string
	Password     string
	PasswordFile string
}

// Resolved is the outcome of the precedence merge. Password is nil
// when no layer supplied one — the caller decides whether to prompt.
type Resolved struct {
	Service    string
	Identifier string
	Password   *secret.Buffer
}

// Close releases the password buffer, if any.
func (r *Resolved) Close() error {
	if r.Password == nil {
		return nil
	}
	err := r.Password.Close()
	r.Password = nil
	return err
}

// Resolve merges flags, environment, and the config file, highest
// precedence first. The password is moved into mlock-backed memory;
// when a password file is named (flag or SKYFILE_PASSWORD_FILE), its
// content wins over inline passwords from lower layers.
func Resolve(flags Flags) (*Resolved, error) {
	file, err := Load()
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{
		Service:    firstNonEmpty(flags.Service, os.Getenv(EnvService), file.Service, DefaultService),
		Identifier: firstNonEmpty(flags.Identifier, os.Getenv(EnvIdentifier), file.Identifier),
	}

	passwordPath := firstNonEmpty(flags.PasswordFile, os.Getenv(EnvPasswordFile))

	switch {
	case flags.Password != "":
		resolved.Password, err = secret.NewFromBytes([]byte(flags.Password))
	case passwordPath != "":
		resolved.Password, err = secret.ReadFromPath(passwordPath)
	case os.Getenv(EnvPassword) != "":
		resolved.Password, err = secret.NewFromBytes([]byte(os.Getenv(EnvPassword)))
	case file.Password != "":
		resolved.Password, err = secret.NewFromBytes([]byte(file.Password))
	}
	if err != nil {
		return nil, fmt.Errorf("config: resolving password: %w", err)
	}

	return resolved, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
