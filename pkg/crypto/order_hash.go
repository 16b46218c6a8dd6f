package crypto

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// LimitOrderWithFeeType is the order-type tag at the head of the second
// packed word.
const LimitOrderWithFeeType = 3

// Bit widths of the packed order words. These are part of the exchange's
// wire protocol.
const (
	AmountBits  = 64
	NonceBits   = 32
	AccountBits = 64
	ExpiryBits  = 32
	PaddingBits = 17
)

var (
	shiftAmount  = powerOfTwo(AmountBits)
	shiftNonce   = powerOfTwo(NonceBits)
	shiftAccount = powerOfTwo(AccountBits)
	shiftExpiry  = powerOfTwo(ExpiryBits)
	shiftPadding = powerOfTwo(PaddingBits)
)

// OrderParameters are the economic fields of a limit order that the exchange
// signs over. Asset ids are hex strings; amounts are already scaled to
// integer resolution.
//
// Nonce and ExpireTime are carried in 64-bit fields but only 32 bits are
// reserved for them in the packed encoding. HashLimitOrder does not check
// widths; values that do not fit wrap inside the field. Call Validate for
// strict rejection.
type OrderParameters struct {
	SyntheticAssetID  string
	CollateralAssetID string
	FeeAssetID        string
	IsBuy             bool
	AmountSynthetic   uint64
	AmountCollateral  uint64
	AmountFee         uint64
	Nonce             uint64
	AccountID         uint64
	ExpireTime        uint64
}

// Validate reports whether the 32-bit fields fit their packed widths.
func (p OrderParameters) Validate() error {
	if p.Nonce>>NonceBits != 0 {
		return fmt.Errorf("nonce %d exceeds %d bits", p.Nonce, NonceBits)
	}
	if p.ExpireTime>>ExpiryBits != 0 {
		return fmt.Errorf("expire time %d exceeds %d bits", p.ExpireTime, ExpiryBits)
	}
	return nil
}

// HashLimitOrder computes the Pedersen hash chain for a limit order with
// fee:
//
//	h = H(H(H(H(sell, buy), fee), packed0), packed1)
//
// where packed0 = amountSell|amountBuy|amountFee|nonce and
// packed1 = (3|account|account|account|expiry) << 17.
func HashLimitOrder(p OrderParameters) (fp.Element, error) {
	var out fp.Element

	synthetic, err := ParseAssetID(p.SyntheticAssetID)
	if err != nil {
		return out, err
	}
	collateral, err := ParseAssetID(p.CollateralAssetID)
	if err != nil {
		return out, err
	}
	fee, err := ParseAssetID(p.FeeAssetID)
	if err != nil {
		return out, err
	}

	assetSell, assetBuy := synthetic, collateral
	amountSell, amountBuy := p.AmountSynthetic, p.AmountCollateral
	if p.IsBuy {
		assetSell, assetBuy = collateral, synthetic
		amountSell, amountBuy = p.AmountCollateral, p.AmountSynthetic
	}

	msg := PedersenHash(&assetSell, &assetBuy)
	msg = PedersenHash(&msg, &fee)

	packed0 := FeltFromUint64(amountSell)
	packed0 = shiftAdd(&packed0, &shiftAmount, amountBuy)
	packed0 = shiftAdd(&packed0, &shiftAmount, p.AmountFee)
	packed0 = shiftAdd(&packed0, &shiftNonce, p.Nonce)
	msg = PedersenHash(&msg, &packed0)

	// The account id appears three times: position, fee and collateral
	// vault owners all collapse to the same account.
	packed1 := FeltFromUint64(LimitOrderWithFeeType)
	packed1 = shiftAdd(&packed1, &shiftAccount, p.AccountID)
	packed1 = shiftAdd(&packed1, &shiftAccount, p.AccountID)
	packed1 = shiftAdd(&packed1, &shiftAccount, p.AccountID)
	packed1 = shiftAdd(&packed1, &shiftExpiry, p.ExpireTime)
	packed1.Mul(&packed1, &shiftPadding)

	out = PedersenHash(&msg, &packed1)
	return out, nil
}

// shiftAdd returns acc*shift + v in the field.
func shiftAdd(acc, shift *fp.Element, v uint64) fp.Element {
	var r fp.Element
	add := FeltFromUint64(v)
	r.Mul(acc, shift)
	r.Add(&r, &add)
	return r
}

func powerOfTwo(bits int64) fp.Element {
	var two, r fp.Element
	two.SetUint64(2)
	r.Exp(two, big.NewInt(bits))
	return r
}
