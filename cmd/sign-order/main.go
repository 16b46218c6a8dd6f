package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/l2signer/params"
	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/order"
	"github.com/uhyunpark/l2signer/pkg/storage"
	"github.com/uhyunpark/l2signer/pkg/util"
)

type options struct {
	EnvFile string `long:"env" description:"Path to .env file (default: ./.env)"`

	ContractID           uint64 `long:"contract" default:"10000001" description:"Contract id"`
	SyntheticAssetID     string `long:"synthetic" default:"0x4254432d3130000000000000000000" description:"Synthetic asset id (hex)"`
	SyntheticResolution  int64  `long:"synthetic-resolution" default:"10000000000" description:"Synthetic resolution"`
	CollateralAssetID    string `long:"collateral" default:"0x2ce625e94458d39dd0bf3b45a843544dd4a14b8169045a3a3d15aa564b936c5" description:"Collateral asset id (hex)"`
	CollateralResolution int64  `long:"collateral-resolution" default:"1000000" description:"Collateral resolution"`
	FeeRate              string `long:"fee-rate" default:"0.0005" description:"Maximum fee rate"`

	Side  string `long:"side" default:"buy" description:"buy or sell"`
	Price string `long:"price" default:"30000" description:"Limit price"`
	Size  string `long:"size" default:"0.1" description:"Order size"`
	Nonce uint64 `long:"nonce" description:"Use this order nonce instead of the nonce store"`
}

// fixedNonce hands out a single caller-chosen nonce.
type fixedNonce uint64

func (n fixedNonce) Next(uint64) (uint64, error) { return uint64(n), nil }

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := params.LoadFromEnv(opts.EnvFile)
	if cfg.Signer.PrivateKey == "" {
		return errors.New("L2_PRIVATE_KEY is not set")
	}

	logger, err := util.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Step 1: Load key
	signer, err := crypto.NewStarkSigner(cfg.Signer.PrivateKey,
		crypto.WithMaxAttempts(cfg.Signer.MaxAttempts),
		crypto.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	fmt.Printf("Stark key: %s\n", signer.PublicKeyHex())
	fmt.Printf("Account:   %d\n\n", cfg.Account.ID)

	// Step 2: Describe order
	side, err := order.ParseSide(opts.Side)
	if err != nil {
		return err
	}
	lo := order.LimitOrder{
		Contract: order.Contract{
			ID:                   opts.ContractID,
			SyntheticAssetID:     opts.SyntheticAssetID,
			SyntheticResolution:  opts.SyntheticResolution,
			CollateralAssetID:    opts.CollateralAssetID,
			CollateralResolution: opts.CollateralResolution,
		},
		Side: side,
	}
	if lo.Contract.FeeRate, err = decimal.NewFromString(opts.FeeRate); err != nil {
		return fmt.Errorf("fee rate: %w", err)
	}
	if lo.Price, err = decimal.NewFromString(opts.Price); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if lo.Size, err = decimal.NewFromString(opts.Size); err != nil {
		return fmt.Errorf("size: %w", err)
	}

	var nonces order.NonceAllocator = fixedNonce(opts.Nonce)
	if opts.Nonce == 0 {
		store, err := storage.NewNonceStore(cfg.Storage.NonceDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		nonces = store
	}

	// Step 3: Scale, hash and sign
	builder := order.NewBuilder(signer, nonces, cfg.Account.ID,
		order.WithTTL(cfg.Account.OrderTTL),
		order.WithLogger(logger),
	)
	req, err := builder.Build(lo)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	fmt.Println("Create order request (JSON):")
	fmt.Println(string(out))
	fmt.Println()

	// Step 4: Verify the way the exchange would
	amounts, err := order.ScaleAmounts(lo)
	if err != nil {
		return err
	}
	hash, err := crypto.HashLimitOrder(order.Parameters(lo, amounts, cfg.Account.ID, req.L2Nonce, order.ExpireHours(req.L2ExpireTime)))
	if err != nil {
		return err
	}
	valid, err := crypto.VerifySignature(signer.PublicKey(), hash, req.L2Signature)
	if err != nil {
		return err
	}
	if !valid {
		return errors.New("signature INVALID")
	}
	fmt.Printf("Order hash: 0x%s\n", crypto.FeltHex(&hash))
	fmt.Println("Signature VALID")
	return nil
}
