package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
	"go.uber.org/zap"
)

// DefaultMaxSignAttempts bounds how many nonces Sign draws before giving up.
// A rejected nonce has probability around 2^-250, so hitting the bound means
// the randomness source is broken.
const DefaultMaxSignAttempts = 16

// StarkSigner owns one L2 private key and signs order hashes with it.
// The key is set once at construction and is never exposed, logged or
// serialized. A StarkSigner is safe for concurrent use as long as its nonce
// source is.
type StarkSigner struct {
	privateKey  *big.Int
	publicKey   PublicKey
	nonceSource io.Reader
	maxAttempts int
	logger      *zap.Logger
}

// SignerOption configures a StarkSigner.
type SignerOption func(*StarkSigner)

// WithNonceSource replaces crypto/rand as the source of signing nonces.
// Every call must yield fresh bytes; reusing a nonce for two different
// hashes leaks the private key.
func WithNonceSource(r io.Reader) SignerOption {
	return func(s *StarkSigner) { s.nonceSource = r }
}

// WithMaxAttempts sets the nonce retry bound. Values below 1 are ignored.
func WithMaxAttempts(n int) SignerOption {
	return func(s *StarkSigner) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger. Only attempt counts and the public key are
// ever logged.
func WithLogger(l *zap.Logger) SignerOption {
	return func(s *StarkSigner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStarkSigner parses a hex-encoded L2 private key ("0x..." or bare hex).
// The key must be a non-zero element of the Stark field. Errors wrap
// ErrInvalidKeyEncoding and never include the key material.
func NewStarkSigner(hexKey string, opts ...SignerOption) (*StarkSigner, error) {
	key, err := ParseFelt(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}

	priv := key.BigInt(new(big.Int))
	if new(big.Int).Mod(priv, fr.Modulus()).Sign() == 0 {
		return nil, fmt.Errorf("%w: key is zero modulo the curve order", ErrInvalidKeyEncoding)
	}

	s := &StarkSigner{
		privateKey:  priv,
		publicKey:   derivePublicKey(priv),
		nonceSource: rand.Reader,
		maxAttempts: DefaultMaxSignAttempts,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PublicKey returns the curve point for this signer's key.
func (s *StarkSigner) PublicKey() PublicKey {
	return s.publicKey
}

// PublicKeyHex returns the stark key (x-coordinate) as 0x-prefixed hex.
func (s *StarkSigner) PublicKeyHex() string {
	return s.publicKey.Hex()
}

// String keeps the private key out of fmt and log output.
func (s *StarkSigner) String() string {
	return fmt.Sprintf("StarkSigner{starkKey: %s}", s.publicKey.Hex())
}

// GoString is String for %#v.
func (s *StarkSigner) GoString() string {
	return s.String()
}

// SignHash signs a message hash with a freshly drawn nonce.
// Rejected nonces are redrawn up to the attempt bound.
func (s *StarkSigner) SignHash(hash fp.Element) (Signature, error) {
	z := hash.BigInt(new(big.Int))

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		k, err := s.drawNonce()
		if err != nil {
			return Signature{}, fmt.Errorf("%w: read nonce: %v", ErrSigningFailure, err)
		}

		r, sv, err := ecdsaSign(s.privateKey, z, k)
		switch {
		case err == nil:
			return Signature{R: r, S: sv}, nil
		case errors.Is(err, errNonceRejected):
			s.logger.Warn("nonce_rejected",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.maxAttempts),
			)
			continue
		default:
			return Signature{}, fmt.Errorf("%w: %v", ErrSigningFailure, err)
		}
	}

	s.logger.Error("signing_attempts_exhausted",
		zap.Int("max_attempts", s.maxAttempts),
		zap.String("stark_key", s.publicKey.Hex()),
	)
	return Signature{}, fmt.Errorf("%w: every nonce rejected after %d attempts", ErrSigningFailure, s.maxAttempts)
}

// Sign signs hash and returns the l2Signature string:
// "0x" + 64 hex digits of r + 64 hex digits of s.
func (s *StarkSigner) Sign(hash fp.Element) (string, error) {
	sig, err := s.SignHash(hash)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

// SignOrder hashes a limit order and signs the hash.
// Returns the order hash alongside the encoded signature.
func (s *StarkSigner) SignOrder(p OrderParameters) (fp.Element, string, error) {
	hash, err := HashLimitOrder(p)
	if err != nil {
		return hash, "", fmt.Errorf("failed to hash order: %w", err)
	}

	signature, err := s.Sign(hash)
	if err != nil {
		return hash, "", fmt.Errorf("failed to sign order: %w", err)
	}
	return hash, signature, nil
}

// SignMessage would sign REST request headers. The exchange has not
// published how header payloads are hashed for Stark keys, so this always
// fails instead of returning a placeholder.
func (s *StarkSigner) SignMessage(message []byte) (string, error) {
	return "", ErrHeaderSigningUnsupported
}

// drawNonce samples 32 bytes and clears the top five bits, which keeps the
// nonce below 2^251 and therefore below both the field prime and the curve
// order.
func (s *StarkSigner) drawNonce() (*big.Int, error) {
	var buf [32]byte
	if _, err := io.ReadFull(s.nonceSource, buf[:]); err != nil {
		return nil, err
	}
	buf[0] &= 0x07
	return new(big.Int).SetBytes(buf[:]), nil
}
