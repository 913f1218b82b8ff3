// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyenclave.
//
// go-keyenclave is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave/software"
	"github.com/jeremyhahn/go-keyenclave/pkg/logging"
	"github.com/jeremyhahn/go-keyenclave/pkg/storage/file"
)

// EnvMasterSecret is the environment variable consulted for the sealing
// master secret when no secret file is configured.
const EnvMasterSecret = "KEYENCLAVE_MASTER_SECRET"

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// KeyDir is the directory holding sealed key blobs and characteristics
	KeyDir string

	// MasterSecretFile is the path to a file containing the sealing master
	// secret. If empty, the KEYENCLAVE_MASTER_SECRET environment variable
	// is consulted instead.
	MasterSecretFile string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool
}

// fileConfig mirrors the YAML configuration file. Verbosity stays flag-only.
type fileConfig struct {
	KeyDir           string `yaml:"key_dir"`
	MasterSecretFile string `yaml:"master_secret_file"`
	Output           string `yaml:"output"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		KeyDir:       "keyenclave-data",
		OutputFormat: "text",
		Verbose:      false,
	}
}

// LoadFile merges settings from the YAML configuration file into the
// configuration. Flags set explicitly on the command line always win over
// file values. When no --config flag is given, $HOME/.keyenclave.yaml is
// tried and silently skipped if absent.
func (c *Config) LoadFile(cmd *cobra.Command) error {
	path := c.ConfigFile
	implicit := false
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".keyenclave.yaml")
		implicit = true
	}

	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		if implicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	flags := cmd.Flags()
	if fc.KeyDir != "" && !flags.Changed("key-dir") {
		c.KeyDir = fc.KeyDir
	}
	if fc.MasterSecretFile != "" && !flags.Changed("master-secret-file") {
		c.MasterSecretFile = fc.MasterSecretFile
	}
	if fc.Output != "" && !flags.Changed("output") {
		c.OutputFormat = fc.Output
	}
	return nil
}

// CreateEnclave creates the software enclave backed by file storage under
// the key directory. The caller owns the returned manager and must Close it.
func (c *Config) CreateEnclave() (enclave.KeyManager, error) {
	secret, err := c.MasterSecret()
	if err != nil {
		return nil, err
	}

	storageBackend, err := file.New(c.KeyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}

	return software.New(&software.Config{
		Storage:      storageBackend,
		MasterSecret: secret,
		Logger:       c.newLogger(),
	})
}

// MasterSecret resolves the sealing master secret. A configured secret file
// takes precedence over the KEYENCLAVE_MASTER_SECRET environment variable.
// Trailing newlines in the secret file are ignored.
func (c *Config) MasterSecret() ([]byte, error) {
	if c.MasterSecretFile != "" {
		// #nosec G304 - Secret file path is provided by admin/user
		data, err := os.ReadFile(c.MasterSecretFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read master secret file: %w", err)
		}
		return bytes.TrimRight(data, "\r\n"), nil
	}

	if env := os.Getenv(EnvMasterSecret); env != "" {
		return []byte(env), nil
	}

	return nil, fmt.Errorf("no master secret configured: set --master-secret-file or %s", EnvMasterSecret)
}

// newLogger returns the enclave logger, with debug output when verbose
// mode is enabled.
func (c *Config) newLogger() *logging.Logger {
	if c.Verbose {
		return logging.NewLogger(true)
	}
	return logging.DefaultLogger()
}
