package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/l2signer/pkg/crypto"
)

// Side is the order direction as the exchange spells it.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts buy/sell in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

type TimeInForce string

const (
	GoodTillCancel    TimeInForce = "GOOD_TIL_CANCEL"
	ImmediateOrCancel TimeInForce = "IMMEDIATE_OR_CANCEL"
	FillOrKill        TimeInForce = "FILL_OR_KILL"
)

// Contract holds the L2 metadata of a tradable contract.
// Resolutions are the integer multipliers that turn human quantities into
// on-chain amounts (e.g. 10^10 for a synthetic, 10^6 for USDC).
type Contract struct {
	ID                   uint64
	SyntheticAssetID     string
	SyntheticResolution  int64
	CollateralAssetID    string
	CollateralResolution int64
	FeeRate              decimal.Decimal
}

// FeeAssetID is the asset fees are charged in. Fees are always paid in
// collateral.
func (c Contract) FeeAssetID() string { return c.CollateralAssetID }

// LimitOrder is an order in human units, before it is scaled and signed.
type LimitOrder struct {
	Contract      Contract
	Side          Side
	Price         decimal.Decimal
	Size          decimal.Decimal
	TimeInForce   TimeInForce
	ClientOrderID string
}

// Amounts are the integer quantities that go into the order hash, plus the
// decimal strings the request carries alongside them.
type Amounts struct {
	Synthetic  uint64
	Collateral uint64
	Fee        uint64

	Value    decimal.Decimal // price * size
	LimitFee decimal.Decimal // ceil(value * feeRate) at collateral resolution
}

var (
	ErrNonPositive    = errors.New("price and size must be positive")
	ErrSizeResolution = errors.New("size is finer than the synthetic resolution")
	ErrAmountOverflow = errors.New("amount does not fit in 64 bits")

	maxUint64 = decimal.RequireFromString("18446744073709551615")
)

// ScaleAmounts converts a limit order to integer amounts.
// The collateral amount rounds against the account: up when buying, down
// when selling. The fee always rounds up.
func ScaleAmounts(o LimitOrder) (Amounts, error) {
	var a Amounts
	if !o.Price.IsPositive() || !o.Size.IsPositive() {
		return a, ErrNonPositive
	}
	c := o.Contract
	if c.SyntheticResolution <= 0 || c.CollateralResolution <= 0 {
		return a, fmt.Errorf("contract %d: resolutions must be positive", c.ID)
	}

	synthRes := decimal.NewFromInt(c.SyntheticResolution)
	collRes := decimal.NewFromInt(c.CollateralResolution)

	synthetic := o.Size.Mul(synthRes)
	if !synthetic.IsInteger() {
		return a, fmt.Errorf("%w: size %s, resolution %d", ErrSizeResolution, o.Size, c.SyntheticResolution)
	}

	a.Value = o.Price.Mul(o.Size)
	collateral := a.Value.Mul(collRes)
	if o.Side == SideBuy {
		collateral = collateral.Ceil()
	} else {
		collateral = collateral.Floor()
	}

	fee := a.Value.Mul(c.FeeRate).Mul(collRes).Ceil()
	a.LimitFee = fee.Div(collRes)

	var err error
	if a.Synthetic, err = toUint64("synthetic", synthetic); err != nil {
		return a, err
	}
	if a.Collateral, err = toUint64("collateral", collateral); err != nil {
		return a, err
	}
	if a.Fee, err = toUint64("fee", fee); err != nil {
		return a, err
	}
	return a, nil
}

func toUint64(name string, d decimal.Decimal) (uint64, error) {
	if d.IsNegative() || d.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %s amount %s", ErrAmountOverflow, name, d)
	}
	return d.BigInt().Uint64(), nil
}

// Parameters assembles the hash input for an order.
// expireHours is the expiry in hours since the Unix epoch.
func Parameters(o LimitOrder, a Amounts, accountID, nonce, expireHours uint64) crypto.OrderParameters {
	return crypto.OrderParameters{
		SyntheticAssetID:  o.Contract.SyntheticAssetID,
		CollateralAssetID: o.Contract.CollateralAssetID,
		FeeAssetID:        o.Contract.FeeAssetID(),
		IsBuy:             o.Side == SideBuy,
		AmountSynthetic:   a.Synthetic,
		AmountCollateral:  a.Collateral,
		AmountFee:         a.Fee,
		Nonce:             nonce,
		AccountID:         accountID,
		ExpireTime:        expireHours,
	}
}
