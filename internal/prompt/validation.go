package prompt

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateNotEmpty returns an error if the string is empty or whitespace-only.
func ValidateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value cannot be empty")
	}
	return nil
}

// ExtractCode accepts either a bare authorization code or the full callback
// URL pasted from the browser and returns the code.
func ExtractCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := ValidateNotEmpty(s); err != nil {
		return "", err
	}
	if !strings.Contains(s, "://") {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", errors.New("not a valid callback URL")
	}
	if msg := u.Query().Get("error"); msg != "" {
		return "", errors.New(msg)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("callback URL has no code parameter")
	}
	return code, nil
}

// ValidateCode is ExtractCode shaped for an Input validator.
func ValidateCode(s string) error {
	_, err := ExtractCode(s)
	return err
}
