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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintKeyList prints a list of keys
func (p *Printer) PrintKeyList(keys []enclave.KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		keyList := make([]map[string]interface{}, len(keys))
		for i, key := range keys {
			keyList[i] = map[string]interface{}{
				"alias":     key.Alias,
				"algorithm": key.Algorithm,
				"bits":      key.Bits,
				"origin":    key.Origin,
				"created":   key.CreatedAt.Format(time.RFC3339),
			}
		}
		return p.printJSON(map[string]interface{}{
			"keys": keyList,
		})
	case OutputFormatTable:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-30s %-10s %-6s %-10s %-20s\n", "ALIAS", "ALGORITHM", "BITS", "ORIGIN", "CREATED")
		fmt.Fprintln(p.writer, strings.Repeat("-", 80))
		for _, key := range keys {
			fmt.Fprintf(p.writer, "%-30s %-10s %-6d %-10s %-20s\n",
				key.Alias, key.Algorithm, key.Bits, key.Origin,
				key.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	case OutputFormatText:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintln(p.writer, "Keys:")
		for _, key := range keys {
			fmt.Fprintf(p.writer, "  - %s (%s, %d bits, %s)\n",
				key.Alias, key.Algorithm, key.Bits, key.Origin)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyInfo prints detailed information for a single key
func (p *Printer) PrintKeyInfo(info enclave.KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"alias":     info.Alias,
			"algorithm": info.Algorithm,
			"bits":      info.Bits,
			"origin":    info.Origin,
			"created":   info.CreatedAt.Format(time.RFC3339),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Alias:     %s\n", info.Alias)
		fmt.Fprintf(p.writer, "Algorithm: %s\n", info.Algorithm)
		fmt.Fprintf(p.writer, "Bits:      %d\n", info.Bits)
		fmt.Fprintf(p.writer, "Origin:    %s\n", info.Origin)
		fmt.Fprintf(p.writer, "Created:   %s\n", info.CreatedAt.Format(time.RFC3339))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCharacteristics prints the full tagged characteristics of a key
func (p *Printer) PrintCharacteristics(alias string, chars *enclave.Arguments) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"alias":           alias,
			"characteristics": chars,
		})
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "%-15s %s\n", "TAG", "VALUE")
		fmt.Fprintln(p.writer, strings.Repeat("-", 40))
		for _, arg := range chars.List() {
			fmt.Fprintf(p.writer, "%-15s %s\n", arg.Tag, arg.Value)
		}
		return nil
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Characteristics of %s:\n", alias)
		for _, arg := range chars.List() {
			fmt.Fprintf(p.writer, "  %s=%s\n", arg.Tag, arg.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCiphertext prints ciphertext (base64 encoded)
func (p *Printer) PrintCiphertext(ciphertext string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"ciphertext": ciphertext,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, ciphertext)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintPlaintext prints recovered plaintext
func (p *Printer) PrintPlaintext(plaintext string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"plaintext": plaintext,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, plaintext)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
