// Package solana holds Solana address helpers.
package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of a Solana public key in bytes.
const PublicKeyLength = 32

// ErrInvalidPublicKey is returned for strings that are not base58-encoded 32-byte keys.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a raw Solana account address.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	if s == "" {
		return pk, fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %q: %v", ErrInvalidPublicKey, s, err)
	}
	if len(decoded) != PublicKeyLength {
		return pk, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidPublicKey, s, len(decoded))
	}
	copy(pk[:], decoded)
	return pk, nil
}

// String returns the base58 encoding.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsOnCurve reports whether the key is a valid ed25519 point.
// Program-derived addresses are off-curve; mints normally are not.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}
