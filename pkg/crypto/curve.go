package crypto

import (
	"errors"
	"fmt"
	"math/big"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// ECDSABits bounds r, w = 1/s and the message hash of a Stark signature.
const ECDSABits = 251

var (
	ecdsaBound = new(big.Int).Lsh(big.NewInt(1), ECDSABits)

	errNonceRejected = errors.New("nonce rejected by curve")
	errMessageRange  = errors.New("message hash is not below 2^251")
)

// PublicKey is a point on the Stark curve. The exchange identifies accounts
// by its x-coordinate (the "stark key").
type PublicKey struct {
	point starkcurve.G1Affine
	// xOnly is set when the key was rebuilt from its x-coordinate and the
	// sign of y is unknown.
	xOnly bool
}

// X returns the stark key.
func (pk PublicKey) X() fp.Element { return pk.point.X }

// Hex returns the stark key as 0x-prefixed, zero-padded hex.
func (pk PublicKey) Hex() string {
	return "0x" + FeltHex(&pk.point.X)
}

// PublicKeyFromStarkKey rebuilds a public key from its x-coordinate.
func PublicKeyFromStarkKey(s string) (PublicKey, error) {
	x, err := ParseFelt(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parse stark key: %w", err)
	}

	// y^2 = x^3 + x + beta
	var rhs, y fp.Element
	b := curveBeta()
	rhs.Square(&x).Mul(&rhs, &x).Add(&rhs, &x).Add(&rhs, &b)
	if y.Sqrt(&rhs) == nil {
		return PublicKey{}, fmt.Errorf("stark key %s is not on the curve", s)
	}

	pk := PublicKey{point: starkcurve.G1Affine{X: x, Y: y}, xOnly: true}
	if !pk.point.IsOnCurve() {
		return PublicKey{}, fmt.Errorf("stark key %s is not on the curve", s)
	}
	return pk, nil
}

// curveBeta derives the curve constant from the generator so that it always
// agrees with the library's curve definition.
func curveBeta() fp.Element {
	_, g := starkcurve.Generators()
	var x3, y2, beta fp.Element
	x3.Square(&g.X).Mul(&x3, &g.X)
	y2.Square(&g.Y)
	beta.Sub(&y2, &x3).Sub(&beta, &g.X)
	return beta
}

func derivePublicKey(priv *big.Int) PublicKey {
	g, _ := starkcurve.Generators()
	var q starkcurve.G1Jac
	q.ScalarMultiplication(&g, priv)

	var pk PublicKey
	pk.point.FromJacobian(&q)
	return pk
}

func inSignableRange(v *big.Int) bool {
	return v.Sign() > 0 && v.Cmp(ecdsaBound) < 0
}

// ecdsaSign computes a StarkEx ECDSA signature over z with the caller's
// nonce k:
//
//	r = (k*G).x, w = k / (z + r*priv) mod n, s = 1/w mod n
//
// errNonceRejected means a different k must be tried.
func ecdsaSign(priv, z, k *big.Int) (r, s *big.Int, err error) {
	if z.Sign() < 0 || z.Cmp(ecdsaBound) >= 0 {
		return nil, nil, errMessageRange
	}

	kMod := new(big.Int).Mod(k, fr.Modulus())
	if kMod.Sign() == 0 {
		return nil, nil, errNonceRejected
	}

	g, _ := starkcurve.Generators()
	var rJac starkcurve.G1Jac
	var rAff starkcurve.G1Affine
	rJac.ScalarMultiplication(&g, kMod)
	rAff.FromJacobian(&rJac)

	r = rAff.X.BigInt(new(big.Int))
	if !inSignableRange(r) {
		return nil, nil, errNonceRejected
	}

	var rF, dF, zF, kF, t, w, sF fr.Element
	rF.SetBigInt(r)
	dF.SetBigInt(priv)
	zF.SetBigInt(z)
	kF.SetBigInt(kMod)

	t.Mul(&rF, &dF).Add(&t, &zF)
	if t.IsZero() {
		return nil, nil, errNonceRejected
	}
	w.Inverse(&t).Mul(&w, &kF)
	if !inSignableRange(w.BigInt(new(big.Int))) {
		return nil, nil, errNonceRejected
	}

	sF.Inverse(&w)
	return r, sF.BigInt(new(big.Int)), nil
}

// ecdsaVerify checks w*(z*G + r*Q) has x-coordinate r, with w = 1/s.
func ecdsaVerify(pub *starkcurve.G1Affine, z, r, s *big.Int) bool {
	if !inSignableRange(r) || z.Sign() < 0 || z.Cmp(ecdsaBound) >= 0 {
		return false
	}
	if s.Sign() <= 0 || s.Cmp(fr.Modulus()) >= 0 {
		return false
	}
	if pub.IsInfinity() || !pub.IsOnCurve() {
		return false
	}

	var sF, w, zF, rF, u1, u2 fr.Element
	sF.SetBigInt(s)
	w.Inverse(&sF)
	if !inSignableRange(w.BigInt(new(big.Int))) {
		return false
	}
	zF.SetBigInt(z)
	rF.SetBigInt(r)
	u1.Mul(&zF, &w)
	u2.Mul(&rF, &w)

	g, _ := starkcurve.Generators()
	var q, p1, p2 starkcurve.G1Jac
	q.FromAffine(pub)
	p1.ScalarMultiplication(&g, u1.BigInt(new(big.Int)))
	p2.ScalarMultiplication(&q, u2.BigInt(new(big.Int)))
	p1.AddAssign(&p2)

	var res starkcurve.G1Affine
	res.FromJacobian(&p1)
	if res.IsInfinity() {
		return false
	}
	return res.X.BigInt(new(big.Int)).Cmp(r) == 0
}
