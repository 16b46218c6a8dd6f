package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"go.uber.org/zap"

	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/util"
)

const millisPerHour = int64(time.Hour / time.Millisecond)

// ExpireHours converts an l2ExpireTime in Unix milliseconds to the hour
// count that goes into the order hash.
func ExpireHours(expireMs int64) uint64 {
	return uint64(expireMs / millisPerHour)
}

// OrderSigner hashes and signs order parameters.
// *crypto.StarkSigner implements it.
type OrderSigner interface {
	SignOrder(p crypto.OrderParameters) (fp.Element, string, error)
}

// NonceAllocator hands out order nonces. Two orders with identical economic
// fields are only distinguishable by their nonce.
type NonceAllocator interface {
	Next(accountID uint64) (uint64, error)
}

// ErrNonceAllocation wraps failures of the NonceAllocator. They come from
// local state, not from the order.
var ErrNonceAllocation = errors.New("allocate nonce")

// Builder turns limit orders into signed create-order requests for one
// account.
type Builder struct {
	signer    OrderSigner
	nonces    NonceAllocator
	accountID uint64
	ttl       time.Duration
	clock     util.Clock
	logger    *zap.Logger
}

type BuilderOption func(*Builder)

func WithClock(c util.Clock) BuilderOption { return func(b *Builder) { b.clock = c } }

func WithTTL(d time.Duration) BuilderOption { return func(b *Builder) { b.ttl = d } }

func WithLogger(l *zap.Logger) BuilderOption { return func(b *Builder) { b.logger = l } }

// DefaultTTL matches the exchange's default order lifetime.
const DefaultTTL = 14 * 24 * time.Hour

func NewBuilder(signer OrderSigner, nonces NonceAllocator, accountID uint64, opts ...BuilderOption) *Builder {
	b := &Builder{
		signer:    signer,
		nonces:    nonces,
		accountID: accountID,
		ttl:       DefaultTTL,
		clock:     util.RealClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build scales, hashes and signs o. The returned request is ready to be
// serialized; a signing failure never yields a request.
func (b *Builder) Build(o LimitOrder) (*CreateOrderRequest, error) {
	if o.Side != SideBuy && o.Side != SideSell {
		return nil, fmt.Errorf("unknown side %q", o.Side)
	}

	amounts, err := ScaleAmounts(o)
	if err != nil {
		return nil, fmt.Errorf("scale order: %w", err)
	}

	nonce, err := b.nonces.Next(b.accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonceAllocation, err)
	}

	expireMs := b.clock.Now().Add(b.ttl).UnixMilli()
	if expireMs <= 0 {
		return nil, errors.New("order expiry is before the epoch")
	}
	params := Parameters(o, amounts, b.accountID, nonce, ExpireHours(expireMs))
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, signature, err := b.signer.SignOrder(params)
	if err != nil {
		return nil, err
	}

	tif := o.TimeInForce
	if tif == "" {
		tif = GoodTillCancel
	}

	b.logger.Info("order_signed",
		zap.Uint64("account_id", b.accountID),
		zap.Uint64("contract_id", o.Contract.ID),
		zap.String("side", string(o.Side)),
		zap.Uint64("l2_nonce", nonce),
		zap.String("order_hash", "0x"+crypto.FeltHex(&hash)),
	)

	return &CreateOrderRequest{
		Price:         o.Price.String(),
		Size:          o.Size.String(),
		Type:          OrderTypeLimit,
		TimeInForce:   tif,
		AccountID:     b.accountID,
		ContractID:    o.Contract.ID,
		Side:          o.Side,
		ClientOrderID: o.ClientOrderID,
		L2Nonce:       nonce,
		L2Value:       amounts.Value.String(),
		L2Size:        o.Size.String(),
		L2LimitFee:    amounts.LimitFee.String(),
		L2ExpireTime:  expireMs,
		L2Signature:   signature,
	}, nil
}
