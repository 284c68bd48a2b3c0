// Package config – password.go reads secrets from the terminal without
// echoing them.
package config

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ReadPassword prompts and reads a line with terminal echo disabled.
// Fails when stdin is not a terminal; callers fall back to visible input.
func ReadPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal")
	}

	fmt.Print(prompt)
	data, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(data), nil
}
