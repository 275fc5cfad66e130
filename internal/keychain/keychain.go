// Package keychain stores generic passwords in the macOS Keychain.
package keychain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no matching Keychain item exists.
var ErrNotFound = errors.New("keychain item not found")

// addPasswordCommand builds the `security -i` input line that creates or
// replaces a generic password. The secret travels hex-encoded via -X on
// stdin so it never shows up in the process argument list.
func addPasswordCommand(service, account, secret string) (string, error) {
	for _, v := range []string{service, account} {
		if strings.ContainsAny(v, "\r\n") {
			return "", fmt.Errorf("keychain: line break in service or account %q", v)
		}
	}
	// -U updates the item in place when it already exists.
	return fmt.Sprintf("add-generic-password -U -s %s -a %s -X %s\n",
		quoteArg(service), quoteArg(account), hex.EncodeToString([]byte(secret))), nil
}

func quoteArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
