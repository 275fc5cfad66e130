//go:build darwin

package keychain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 2 * time.Second

// Available reports whether the macOS Keychain can be used.
func Available() bool { return true }

// ReadGenericPassword reads a generic password from macOS Keychain using the
// `security` CLI. A missing item returns ErrNotFound.
func ReadGenericPassword(ctx context.Context, service, account string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	args := []string{"find-generic-password", "-s", service}
	if account != "" {
		args = append(args, "-a", account)
	}
	args = append(args, "-w")

	out, err := exec.CommandContext(ctx, "security", args...).Output()
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

// WriteGenericPassword creates or replaces a generic password item. The
// command is fed to `security -i` on stdin so the secret stays out of argv.
func WriteGenericPassword(ctx context.Context, service, account, secret string) error {
	line, err := addPasswordCommand(service, account, secret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "security", "-i")
	cmd.Stdin = strings.NewReader(line)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("security add-generic-password: %w", err)
	}
	// Interactive mode exits 0 even when a command fails, so errors only
	// surface in the output.
	if msg := strings.TrimSpace(strings.ReplaceAll(string(out), "security>", "")); msg != "" {
		return fmt.Errorf("security add-generic-password: %s", msg)
	}
	return nil
}

// DeleteGenericPassword removes a generic password item. Deleting a missing
// item is not an error.
func DeleteGenericPassword(ctx context.Context, service, account string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	err := exec.CommandContext(ctx, "security", "delete-generic-password",
		"-s", service, "-a", account).Run()
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// security exits 44 when the item could not be found.
func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 44
}
