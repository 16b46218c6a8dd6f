package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
)

// FeltHexLen is the number of hex digits in a zero-padded field element.
const FeltHexLen = 2 * fp.Bytes

var (
	errEmptyHex   = errors.New("empty hex string")
	errNotHex     = errors.New("not a hex string")
	errOutOfField = errors.New("value exceeds field prime")
)

// ParseFelt decodes a hex string ("0x1f" or "1f") into a Stark field element.
// Values greater than or equal to the field prime are rejected rather than
// reduced.
func ParseFelt(s string) (fp.Element, error) {
	var e fp.Element

	v, err := parseHexBig(s)
	if err != nil {
		return e, err
	}
	if v.Cmp(fp.Modulus()) >= 0 {
		return e, errOutOfField
	}
	e.SetBigInt(v)
	return e, nil
}

// ParseAssetID parses an asset identifier. The error wraps
// ErrInvalidAssetEncoding.
func ParseAssetID(s string) (fp.Element, error) {
	e, err := ParseFelt(s)
	if err != nil {
		return e, fmt.Errorf("%w: %q: %v", ErrInvalidAssetEncoding, s, err)
	}
	return e, nil
}

// FeltHex returns e as 64 lowercase hex digits, without prefix.
func FeltHex(e *fp.Element) string {
	b := e.Bytes()
	return hex.EncodeToString(b[:])
}

// FeltFromUint64 lifts v into the field.
func FeltFromUint64(v uint64) fp.Element {
	var e fp.Element
	e.SetUint64(v)
	return e
}

// PedersenHash is the two-input Stark Pedersen hash.
func PedersenHash(a, b *fp.Element) fp.Element {
	return pedersenhash.Pedersen(a, b)
}

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func parseHexBig(s string) (*big.Int, error) {
	digits := stripHexPrefix(s)
	if digits == "" {
		return nil, errEmptyHex
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, errNotHex
	}
	return new(big.Int).SetBytes(raw), nil
}
