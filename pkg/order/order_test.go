package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func btcContract() Contract {
	return Contract{
		ID:                   10000001,
		SyntheticAssetID:     "0x4254432d3130000000000000000000",
		SyntheticResolution:  10_000_000_000,
		CollateralAssetID:    "0x2ce625e94458d39dd0bf3b45a843544dd4a14b8169045a3a3d15aa564b936c5",
		CollateralResolution: 1_000_000,
		FeeRate:              decimal.RequireFromString("0.0005"),
	}
}

func limit(side Side, price, size string) LimitOrder {
	return LimitOrder{
		Contract: btcContract(),
		Side:     side,
		Price:    decimal.RequireFromString(price),
		Size:     decimal.RequireFromString(size),
	}
}

func TestScaleAmounts(t *testing.T) {
	tests := []struct {
		name       string
		order      LimitOrder
		synthetic  uint64
		collateral uint64
		fee        uint64
		value      string
		limitFee   string
	}{
		{
			name:       "buy whole",
			order:      limit(SideBuy, "30000", "0.1"),
			synthetic:  1_000_000_000,
			collateral: 3_000_000_000,
			fee:        1_500_000,
			value:      "3000",
			limitFee:   "1.5",
		},
		{
			name:       "buy rounds collateral up",
			order:      limit(SideBuy, "0.3333333", "0.001"),
			synthetic:  10_000_000,
			collateral: 334,
			fee:        1,
			value:      "0.0003333333",
			limitFee:   "0.000001",
		},
		{
			name:       "sell rounds collateral down",
			order:      limit(SideSell, "0.3333333", "0.001"),
			synthetic:  10_000_000,
			collateral: 333,
			fee:        1,
			value:      "0.0003333333",
			limitFee:   "0.000001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ScaleAmounts(tt.order)
			if err != nil {
				t.Fatalf("ScaleAmounts: %v", err)
			}
			if a.Synthetic != tt.synthetic || a.Collateral != tt.collateral || a.Fee != tt.fee {
				t.Errorf("amounts = (%d, %d, %d), want (%d, %d, %d)",
					a.Synthetic, a.Collateral, a.Fee, tt.synthetic, tt.collateral, tt.fee)
			}
			if a.Value.String() != tt.value {
				t.Errorf("value = %s, want %s", a.Value, tt.value)
			}
			if a.LimitFee.String() != tt.limitFee {
				t.Errorf("limit fee = %s, want %s", a.LimitFee, tt.limitFee)
			}
		})
	}
}

func TestScaleAmountsRejects(t *testing.T) {
	if _, err := ScaleAmounts(limit(SideBuy, "0", "1")); !errors.Is(err, ErrNonPositive) {
		t.Errorf("zero price: err = %v", err)
	}
	if _, err := ScaleAmounts(limit(SideBuy, "1", "-1")); !errors.Is(err, ErrNonPositive) {
		t.Errorf("negative size: err = %v", err)
	}
	if _, err := ScaleAmounts(limit(SideBuy, "1", "0.00000000001")); !errors.Is(err, ErrSizeResolution) {
		t.Errorf("sub-resolution size: err = %v", err)
	}
	if _, err := ScaleAmounts(limit(SideBuy, "1", "100000000000")); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("oversized amount: err = %v", err)
	}
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"buy": SideBuy, "SELL": SideSell, "Buy": SideBuy} {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Errorf("ParseSide(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Error("ParseSide accepted an unknown side")
	}
}

func TestParametersSelectsFeeAsset(t *testing.T) {
	o := limit(SideSell, "30000", "0.1")
	a, _ := ScaleAmounts(o)
	p := Parameters(o, a, 7, 9, 480000)
	if p.FeeAssetID != o.Contract.CollateralAssetID {
		t.Errorf("fee asset = %s, want collateral", p.FeeAssetID)
	}
	if p.IsBuy {
		t.Error("sell order marked as buy")
	}
	if p.AccountID != 7 || p.Nonce != 9 || p.ExpireTime != 480000 {
		t.Errorf("unexpected parameters: %+v", p)
	}
}
