package crypto

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignatureHexLen is the length of an encoded signature: "0x" + r + s.
const SignatureHexLen = 2 + 2*FeltHexLen

// Signature is a Stark ECDSA (r, s) pair.
type Signature struct {
	R *big.Int
	S *big.Int
}

// Bytes returns r || s, each left-padded to 32 bytes.
func (sig Signature) Bytes() []byte {
	out := make([]byte, 2*fp.Bytes)
	sig.R.FillBytes(out[:fp.Bytes])
	sig.S.FillBytes(out[fp.Bytes:])
	return out
}

// String encodes the signature the way the exchange expects it in the
// l2Signature field: 0x followed by 64 hex digits of r and 64 of s.
func (sig Signature) String() string {
	return hexutil.Encode(sig.Bytes())
}

// ParseSignature decodes the 130-character form produced by String.
func ParseSignature(s string) (Signature, error) {
	if len(s) != SignatureHexLen {
		return Signature{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidSignature, len(s), SignatureHexLen)
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return Signature{
		R: new(big.Int).SetBytes(raw[:fp.Bytes]),
		S: new(big.Int).SetBytes(raw[fp.Bytes:]),
	}, nil
}

// VerifySignature checks an encoded signature over hash against pub.
// Keys rebuilt from a bare stark key are accepted with either sign of y,
// as the exchange does.
func VerifySignature(pub PublicKey, hash fp.Element, signature string) (bool, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return false, err
	}
	z := hash.BigInt(new(big.Int))

	if ecdsaVerify(&pub.point, z, sig.R, sig.S) {
		return true, nil
	}
	if pub.xOnly {
		neg := pub.point
		neg.Neg(&pub.point)
		return ecdsaVerify(&neg, z, sig.R, sig.S), nil
	}
	return false, nil
}
