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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global configuration
	globalConfig *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keyenclave",
	Short: "go-keyenclave CLI - Enclave-backed RSA encryption tool",
	Long: `go-keyenclave CLI manages RSA keys held inside an isolated key
enclave and runs encrypt/decrypt operations against them. Private key
material never leaves the enclave; the CLI only ever handles aliases,
ciphertext and plaintext.

Keys are sealed at rest under a master secret and stored in the key
directory. Supported padding schemes:
  - NONE:   raw RSA (no padding, input zero-padded to the modulus)
  - PKCS1:  RSAES-PKCS1-v1_5
  - OAEP:   RSAES-OAEP with MGF1 (SHA-1 through SHA-512 digests)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return globalConfig.LoadFile(cmd)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global config
	globalConfig = NewConfig()

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigFile, "config", "",
		"config file (default is $HOME/.keyenclave.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.KeyDir, "key-dir", "keyenclave-data",
		"directory for sealed key storage")
	rootCmd.PersistentFlags().StringVar(&globalConfig.MasterSecretFile, "master-secret-file", "",
		"file containing the sealing master secret (min 16 bytes)")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if globalConfig.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
