package crypto

import "errors"

var (
	// ErrInvalidKeyEncoding is returned when a private key is not valid hex
	// or does not decode to a usable Stark field element.
	ErrInvalidKeyEncoding = errors.New("invalid private key encoding")

	// ErrInvalidAssetEncoding is returned when an asset id cannot be parsed
	// into a field element.
	ErrInvalidAssetEncoding = errors.New("invalid asset id encoding")

	// ErrSigningFailure is returned when no signature could be produced,
	// either because every sampled nonce was rejected or because the message
	// hash is outside the signable range.
	ErrSigningFailure = errors.New("signing failed")

	// ErrInvalidSignature is returned when a signature string is malformed.
	ErrInvalidSignature = errors.New("invalid signature encoding")

	// ErrHeaderSigningUnsupported is returned by SignMessage. The exchange's
	// REST header scheme is not defined for Stark keys yet.
	ErrHeaderSigningUnsupported = errors.New("request header signing is not supported")
)
