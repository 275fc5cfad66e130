//go:build !darwin

package keychain

import (
	"context"
	"errors"
)

var errUnavailable = errors.New("keychain not available on this platform")

// Available reports whether the macOS Keychain can be used.
func Available() bool { return false }

// ReadGenericPassword is only available on macOS.
func ReadGenericPassword(_ context.Context, _, _ string) (string, error) {
	return "", errUnavailable
}

// WriteGenericPassword is only available on macOS.
func WriteGenericPassword(_ context.Context, _, _, _ string) error {
	return errUnavailable
}

// DeleteGenericPassword is only available on macOS.
func DeleteGenericPassword(_ context.Context, _, _ string) error {
	return errUnavailable
}
