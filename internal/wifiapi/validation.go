package wifiapi

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidCredentials is wrapped by every validation failure
var ErrInvalidCredentials = errors.New("invalid network credentials")

// ValidateAPName validates an SSID.
// SSIDs must be non-empty and <= 32 bytes (802.11 limit).
func ValidateAPName(apName string) error {
	if apName == "" {
		return fmt.Errorf("%w: SSID cannot be empty", ErrInvalidCredentials)
	}
	if len(apName) > 32 {
		return fmt.Errorf("%w: SSID too long (max 32 bytes): %d bytes", ErrInvalidCredentials, len(apName))
	}
	return nil
}

// ValidateAPPass validates a passphrase. Empty means an open network.
// Accepted otherwise: a 5 or 13 character WEP key, an 8-63 character WPA
// passphrase, or a raw WPA PSK of 64 hex digits.
func ValidateAPPass(apPass string) error {
	switch n := len(apPass); {
	case n == 0, n == 5, n == 13:
		return nil
	case n < 8:
		return fmt.Errorf("%w: passphrase too short (min 8 chars, or a 5/13 char WEP key): %d chars", ErrInvalidCredentials, n)
	case n <= 63:
		return nil
	case n == 64 && isHex(apPass):
		return nil
	case n == 64:
		return fmt.Errorf("%w: a 64 char key must be hex digits", ErrInvalidCredentials)
	default:
		return fmt.Errorf("%w: passphrase too long (max 63 chars, or 64 hex digits): %d chars", ErrInvalidCredentials, n)
	}
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// ValidateCredentials validates an SSID/passphrase pair.
func ValidateCredentials(apName, apPass string) error {
	if err := ValidateAPName(apName); err != nil {
		return err
	}
	return ValidateAPPass(apPass)
}

// VerifySaved reads the saved list back and checks that apName is in it.
// Used after Add when the caller wants confirmation the device kept it.
func VerifySaved(ctx context.Context, c *Client, apName string) (*SavedNetwork, error) {
	saved, err := c.Configured(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved networks for verification: %w", err)
	}

	for i := range saved {
		if saved[i].APName == apName {
			return &saved[i], nil
		}
	}
	return nil, fmt.Errorf("network %q not found in saved list after add", apName)
}
