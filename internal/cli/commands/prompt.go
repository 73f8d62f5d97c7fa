package commands

import (
	"fmt"
	"syscall"

	"golang.org/x/term"
)

// promptPassword reads a password from the terminal without echoing it.
// Fails in non-interactive mode; scripts pass credentials via flags or env.
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or EXPENZEUS_PASSWORD env var)")
	}

	fmt.Print(label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	return string(bytePassword), nil
}
