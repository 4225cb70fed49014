package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = "queryreport"

// ErrNoPassword is returned when no password source produced a value.
var ErrNoPassword = errors.New("no password available")

// PasswordPrompt asks the user for a password.
type PasswordPrompt func(prompt string) (string, error)

// passwordEnv lists the variables consulted, in order, for a profile.
func passwordEnv(c Connection) []string {
	if c.IsMySQL() {
		return []string{envPrefix + "_PASSWORD", "MYSQL_PASSWORD"}
	}
	return []string{envPrefix + "_PASSWORD", "PGPASSWORD"}
}

// ResolvePassword finds the password for c: the profile itself, then the
// environment, then the OS keyring, then prompt (when not nil).
func ResolvePassword(c Connection, prompt PasswordPrompt) (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}

	for _, name := range passwordEnv(c) {
		if p := os.Getenv(name); p != "" {
			return p, nil
		}
	}

	// an unavailable keyring (no secret service on the host) is not fatal
	if p, err := keyring.Get(KeyringService, c.Name); err == nil && p != "" {
		return p, nil
	}

	if prompt == nil {
		return "", ErrNoPassword
	}

	p, err := prompt(fmt.Sprintf("Password for %s: ", c.DisplayString()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if p == "" {
		return "", ErrNoPassword
	}
	return p, nil
}

// StorePassword saves the password for c in the OS keyring.
func StorePassword(c Connection, password string) error {
	if err := keyring.Set(KeyringService, c.Name, password); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}

// DeletePassword removes a stored password. Missing entries are not an error.
func DeletePassword(c Connection) error {
	err := keyring.Delete(KeyringService, c.Name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}
