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
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rsacipher "github.com/jeremyhahn/go-keyenclave/pkg/cipher/rsa"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// encryptCmd represents the encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt <alias> [plaintext]",
	Short: "Encrypt data with an enclave key",
	Long: `Encrypt data with the public half of an enclave key. The plaintext
is given as an argument or read from --in; ciphertext is printed base64
encoded or written raw to --out.

The padding scheme bounds the maximum plaintext size: a 2048-bit key
accepts up to 245 bytes with PKCS1, 256 bytes with NONE, and for OAEP
the modulus size minus twice the digest size minus two.`,
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

		plaintext, err := readInput(args, inFile)
		if err != nil {
			handleError(err)
			return
		}

		printVerbose("Encrypting %d bytes with key %s (%s)", len(plaintext), alias, padding)

		manager, err := cfg.CreateEnclave()
		if err != nil {
			handleError(fmt.Errorf("failed to create enclave: %w", err))
			return
		}
		defer func() { _ = manager.Close() }()

		ciphertext, err := runCipher(manager, types.OperationEncrypt, alias, padding, digest, plaintext)
		if err != nil {
			handleError(fmt.Errorf("failed to encrypt: %w", err))
			return
		}

		if outFile != "" {
			if err := os.WriteFile(outFile, ciphertext, 0600); err != nil {
				handleError(fmt.Errorf("failed to write output file: %w", err))
				return
			}
			if err := printer.PrintSuccess(fmt.Sprintf("Wrote %d bytes to %s", len(ciphertext), outFile)); err != nil {
				handleError(err)
			}
			return
		}

		if err := printer.PrintCiphertext(base64.StdEncoding.EncodeToString(ciphertext)); err != nil {
			handleError(err)
		}
	},
}

// runCipher drives one full cipher operation against the enclave. The key
// role follows the operation mode: encryption binds the public half,
// decryption the private half.
func runCipher(service enclave.Service, mode types.OperationMode,
	alias, paddingName, digestName string, input []byte) ([]byte, error) {

	padding := types.ParseRSAPadding(paddingName)
	if padding == "" {
		return nil, fmt.Errorf("unknown padding: %s", paddingName)
	}

	var cipher *rsacipher.Cipher
	var err error
	if padding == types.RSAPaddingOAEP {
		digest := types.ParseHashName(digestName)
		if digest == "" {
			return nil, fmt.Errorf("unknown digest: %s", digestName)
		}
		cipher, err = rsacipher.NewOAEPCipher(service, digest)
	} else {
		cipher, err = rsacipher.NewCipher(service, padding)
	}
	if err != nil {
		return nil, err
	}

	var key types.KeyHandle
	if mode.IsEncrypting() {
		key = types.NewPublicKeyHandle(alias, types.AlgorithmRSA)
	} else {
		key = types.NewPrivateKeyHandle(alias, types.AlgorithmRSA)
	}

	ctx := context.Background()
	if err := cipher.Configure(ctx, mode, key, nil); err != nil {
		return nil, err
	}
	return cipher.Finish(ctx, input)
}

// readInput resolves operation input from the optional positional argument
// or the --in file. Exactly one source must be provided.
func readInput(args []string, inFile string) ([]byte, error) {
	if len(args) > 1 && inFile != "" {
		return nil, fmt.Errorf("provide input as an argument or via --in, not both")
	}
	if len(args) > 1 {
		return []byte(args[1]), nil
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
	encryptCmd.Flags().String("padding", "OAEP", "Padding scheme (none, pkcs1, oaep)")
	encryptCmd.Flags().String("digest", "SHA-256", "OAEP digest (sha1, sha224, sha256, sha384, sha512)")
	encryptCmd.Flags().String("in", "", "Read plaintext from file")
	encryptCmd.Flags().String("out", "", "Write raw ciphertext to file")
}
