package api

import (
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/order"
)

// Request and response bodies for the signing sidecar.

// OrderParams is the JSON form of crypto.OrderParameters.
type OrderParams struct {
	SyntheticAssetID  string `json:"syntheticAssetId"`
	CollateralAssetID string `json:"collateralAssetId"`
	FeeAssetID        string `json:"feeAssetId"`
	IsBuy             bool   `json:"isBuy"`
	AmountSynthetic   uint64 `json:"amountSynthetic"`
	AmountCollateral  uint64 `json:"amountCollateral"`
	AmountFee         uint64 `json:"amountFee"`
	Nonce             uint64 `json:"nonce"`
	AccountID         uint64 `json:"accountId"`
	ExpireTime        uint64 `json:"expireTime"` // hours since epoch
}

func (p OrderParams) toParameters() crypto.OrderParameters {
	return crypto.OrderParameters{
		SyntheticAssetID:  p.SyntheticAssetID,
		CollateralAssetID: p.CollateralAssetID,
		FeeAssetID:        p.FeeAssetID,
		IsBuy:             p.IsBuy,
		AmountSynthetic:   p.AmountSynthetic,
		AmountCollateral:  p.AmountCollateral,
		AmountFee:         p.AmountFee,
		Nonce:             p.Nonce,
		AccountID:         p.AccountID,
		ExpireTime:        p.ExpireTime,
	}
}

// HashResponse is returned by POST /api/v1/orders/hash
type HashResponse struct {
	OrderHash string `json:"orderHash"`
}

// SignResponse is returned by POST /api/v1/orders/sign
type SignResponse struct {
	OrderHash   string `json:"orderHash"`
	L2Signature string `json:"l2Signature"`
}

// BuildOrderRequest is the payload for POST /api/v1/orders/build
type BuildOrderRequest struct {
	ContractID           uint64          `json:"contractId"`
	SyntheticAssetID     string          `json:"syntheticAssetId"`
	SyntheticResolution  int64           `json:"syntheticResolution"`
	CollateralAssetID    string          `json:"collateralAssetId"`
	CollateralResolution int64           `json:"collateralResolution"`
	FeeRate              decimal.Decimal `json:"feeRate"`
	Side                 string          `json:"side"` // "buy" or "sell"
	Price                decimal.Decimal `json:"price"`
	Size                 decimal.Decimal `json:"size"`
	TimeInForce          string          `json:"timeInForce,omitempty"`
	ClientOrderID        string          `json:"clientOrderId,omitempty"`
}

func (r BuildOrderRequest) toLimitOrder() (order.LimitOrder, error) {
	side, err := order.ParseSide(r.Side)
	if err != nil {
		return order.LimitOrder{}, err
	}
	return order.LimitOrder{
		Contract: order.Contract{
			ID:                   r.ContractID,
			SyntheticAssetID:     r.SyntheticAssetID,
			SyntheticResolution:  r.SyntheticResolution,
			CollateralAssetID:    r.CollateralAssetID,
			CollateralResolution: r.CollateralResolution,
			FeeRate:              r.FeeRate,
		},
		Side:          side,
		Price:         r.Price,
		Size:          r.Size,
		TimeInForce:   order.TimeInForce(r.TimeInForce),
		ClientOrderID: r.ClientOrderID,
	}, nil
}

// VerifyRequest is the payload for POST /api/v1/signatures/verify
type VerifyRequest struct {
	StarkKey    string `json:"starkKey"`
	OrderHash   string `json:"orderHash"`
	L2Signature string `json:"l2Signature"`
}

// VerifyResponse reports whether the signature is valid
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// SignerInfo describes the loaded key
type SignerInfo struct {
	StarkKey  string `json:"starkKey"`
	AccountID uint64 `json:"accountId"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
