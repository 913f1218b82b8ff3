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
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// decryptCmd represents the decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt <alias> [ciphertext]",
	Short: "Decrypt data with an enclave key",
	Long: `Decrypt data with the private half of an enclave key. The private
key never leaves the enclave. The ciphertext is given base64 encoded as an
argument, or read raw from --in. The padding scheme and OAEP digest must
match the ones used to encrypt.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		alias := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		// Get flags
		padding, _ := cmd.Flags().GetString("padding")
		digest, _ := cmd.Flags().GetString("digest")
		inFile, _ := cmd.Flags().GetString("in")
		outFile, _ := cmd.Flags().GetString("out")

		ciphertext, err := readCiphertext(args, inFile)
		if err != nil {
			handleError(err)
			return
		}

		printVerbose("Decrypting %d bytes with key %s (%s)", len(ciphertext), alias, padding)

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		plaintext, err := runCipher(manager, types.OperationDecrypt, alias, padding, digest, ciphertext)
		if err != nil {
			handleError(fmt.Errorf("failed to decrypt: %w", err))
			return
		}

		if outFile != "" {
			if err := os.WriteFile(outFile, plaintext, 0600); err != nil {
				handleError(fmt.Errorf("failed to write output file: %w", err))
				return
			}
			if err := printer.PrintSuccess(fmt.Sprintf("Wrote %d bytes to %s", len(plaintext), outFile)); err != nil {
				handleError(err)
			}
			return
		}

		if err := printer.PrintPlaintext(string(plaintext)); err != nil {
			handleError(err)
		}
	},
}

// readCiphertext resolves ciphertext from the optional base64 positional
// argument or raw bytes in the --in file. Exactly one source must be
// provided.
func readCiphertext(args []string, inFile string) ([]byte, error) {
	if len(args) > 1 && inFile != "" {
		return nil, fmt.Errorf("provide ciphertext as an argument or via --in, not both")
	}
	if len(args) > 1 {
		data, err := base64.StdEncoding.DecodeString(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid base64 ciphertext: %w", err)
		}
		return data, nil
	}
	if inFile != "" {
		// #nosec G304 - Input file path is provided by the user
		data, err := os.ReadFile(inFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no input: provide an argument or --in")
}

func init() {
	decryptCmd.Flags().String("padding", "OAEP", "Padding scheme (none, pkcs1, oaep)")
	decryptCmd.Flags().String("digest", "SHA-256", "OAEP digest (sha1, sha224, sha256, sha384, sha512)")
	decryptCmd.Flags().String("in", "", "Read raw ciphertext from file")
	decryptCmd.Flags().String("out", "", "Write plaintext to file")
}
