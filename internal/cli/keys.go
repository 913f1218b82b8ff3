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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// keysCmd represents the keys command group
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage enclave keys",
	Long:  `Manage RSA keys held inside the key enclave`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate <alias>",
	Short: "Generate a new RSA key pair",
	Long: `Generate a new RSA key pair inside the enclave. The key is sealed
under the master secret and recorded with an authorization list restricting
the purposes, padding schemes and OAEP digests it may serve. Unrestricted
dimensions default to everything the enclave supports.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		alias := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		// Get flags
		bits, _ := cmd.Flags().GetInt("bits")
		purposes, _ := cmd.Flags().GetStringSlice("purposes")
		paddings, _ := cmd.Flags().GetStringSlice("paddings")
		digests, _ := cmd.Flags().GetStringSlice("digests")

		printVerbose("Generating %d-bit RSA key with alias: %s", bits, alias)

		spec, err := buildKeySpec(bits, purposes, paddings, digests)
		if err != nil {
			handleError(fmt.Errorf("invalid key parameters: %w", err))
			return
		}

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		if err := manager.GenerateKey(context.Background(), alias, spec); err != nil {
			handleError(fmt.Errorf("failed to generate key: %w", err))
			return
		}

		if err := printer.PrintSuccess(fmt.Sprintf("Successfully generated %d-bit RSA key: %s", spec.Bits, alias)); err != nil {
			handleError(err)
		}
	},
}

var keysImportCmd = &cobra.Command{
	Use:   "import <alias> <pem-file>",
	Short: "Import a PKCS#8 private key",
	Long: `Import PEM-encoded PKCS#8 RSA private key material into the enclave.
Encrypted PKCS#8 input is decrypted with --passphrase. The recorded key size
is taken from the imported material, not from flags.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		alias := args[0]
		pemFile := args[1]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		// Get flags
		passphrase, _ := cmd.Flags().GetString("passphrase")
		purposes, _ := cmd.Flags().GetStringSlice("purposes")
		paddings, _ := cmd.Flags().GetStringSlice("paddings")
		digests, _ := cmd.Flags().GetStringSlice("digests")

		printVerbose("Importing PKCS#8 key from %s with alias: %s", pemFile, alias)

		spec, err := buildKeySpec(0, purposes, paddings, digests)
		if err != nil {
			handleError(fmt.Errorf("invalid key parameters: %w", err))
			return
		}

		// #nosec G304 - Key file path is provided by the user
		pemBytes, err := os.ReadFile(pemFile)
		if err != nil {
			handleError(fmt.Errorf("failed to read key file: %w", err))
			return
		}

		var secret []byte
		if passphrase != "" {
			secret = []byte(passphrase)
		}

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		if err := manager.ImportPKCS8(context.Background(), alias, pemBytes, secret, spec); err != nil {
			handleError(fmt.Errorf("failed to import key: %w", err))
			return
		}

		if err := printer.PrintSuccess(fmt.Sprintf("Successfully imported key: %s", alias)); err != nil {
			handleError(err)
		}
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <alias>",
	Short: "Delete a key",
	Long:  `Delete the sealed key and its characteristics from the enclave`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		alias := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		printVerbose("Deleting key: %s", alias)

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		if err := manager.DeleteKey(context.Background(), alias); err != nil {
			handleError(fmt.Errorf("failed to delete key: %w", err))
			return
		}

		if err := printer.PrintSuccess(fmt.Sprintf("Successfully deleted key: %s", alias)); err != nil {
			handleError(err)
		}
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keys",
	Long:  `List every key stored in the enclave`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		printVerbose("Listing keys from: %s", cfg.KeyDir)

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		keys, err := manager.ListKeys(context.Background())
		if err != nil {
			handleError(fmt.Errorf("failed to list keys: %w", err))
			return
		}

		if err := printer.PrintKeyList(keys); err != nil {
			handleError(err)
		}
	},
}

var keysInfoCmd = &cobra.Command{
	Use:   "info <alias>",
	Short: "Show key characteristics",
	Long:  `Show the tagged characteristics recorded for a key (algorithm, size, origin, authorization list)`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		alias := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		printVerbose("Fetching characteristics for key: %s", alias)

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		chars, err := manager.KeyCharacteristics(context.Background(), alias)
		if err != nil {
			handleError(fmt.Errorf("failed to get key characteristics: %w", err))
			return
		}

		if err := printer.PrintCharacteristics(alias, chars); err != nil {
			handleError(err)
		}
	},
}

// buildKeySpec builds an authorization spec from command-line flags. Empty
// flag slices keep the default spec's full authorization for that dimension.
func buildKeySpec(bits int, purposes, paddings, digests []string) (*enclave.KeySpec, error) {
	spec := enclave.DefaultRSAKeySpec()
	if bits > 0 {
		spec.Bits = bits
	}

	if len(purposes) > 0 {
		spec.Purposes = nil
		for _, s := range purposes {
			mode := types.ParseOperationMode(s)
			if mode == "" {
				return nil, fmt.Errorf("unknown purpose: %s", s)
			}
			spec.Purposes = append(spec.Purposes, mode)
		}
	}

	if len(paddings) > 0 {
		spec.Paddings = nil
		for _, s := range paddings {
			padding := types.ParseRSAPadding(s)
			if padding == "" {
				return nil, fmt.Errorf("unknown padding: %s", s)
			}
			spec.Paddings = append(spec.Paddings, padding)
		}
	}

	if len(digests) > 0 {
		spec.Digests = nil
		for _, s := range digests {
			digest := types.ParseHashName(s)
			if digest == "" {
				return nil, fmt.Errorf("unknown digest: %s", s)
			}
			spec.Digests = append(spec.Digests, digest)
		}
	}

	return spec, nil
}

func init() {
	// Add key subcommands
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysImportCmd)
	keysCmd.AddCommand(keysDeleteCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysInfoCmd)

	// Flags for generate command
	keysGenerateCmd.Flags().Int("bits", 2048, "Key size in bits (2048 minimum)")
	keysGenerateCmd.Flags().StringSlice("purposes", nil, "Authorized purposes (encrypt, decrypt, wrap, unwrap; default all)")
	keysGenerateCmd.Flags().StringSlice("paddings", nil, "Authorized padding schemes (none, pkcs1, oaep; default all)")
	keysGenerateCmd.Flags().StringSlice("digests", nil, "Authorized OAEP digests (sha1, sha224, sha256, sha384, sha512; default all)")

	// Flags for import command
	keysImportCmd.Flags().String("passphrase", "", "Passphrase for encrypted PKCS#8 input")
	keysImportCmd.Flags().StringSlice("purposes", nil, "Authorized purposes (encrypt, decrypt, wrap, unwrap; default all)")
	keysImportCmd.Flags().StringSlice("paddings", nil, "Authorized padding schemes (none, pkcs1, oaep; default all)")
	keysImportCmd.Flags().StringSlice("digests", nil, "Authorized OAEP digests (sha1, sha224, sha256, sha384, sha512; default all)")
}
