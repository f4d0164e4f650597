// Package commands implements the kds CLI subcommands. Each Run function takes
// its collaborators and an output writer so tests can drive it without a container.
package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// IOTuple is the input and output of commands that read a document from stdin.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO reads stdin and writes stdout.
func DefaultIO() IOTuple {
	return IOTuple{Reader: os.Stdin, Writer: os.Stdout}
}

// decodeSecret decodes a base64 long-term secret given on the command line or in
// an import document. The caller zeroes the result.
func decodeSecret(name, value string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be base64: %w", name, err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}
	return secret, nil
}

func writeJSON(writer io.Writer, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, _ = fmt.Fprintln(writer, string(body))
	return nil
}
