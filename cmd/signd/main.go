package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uhyunpark/l2signer/params"
	"github.com/uhyunpark/l2signer/pkg/api"
	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/order"
	"github.com/uhyunpark/l2signer/pkg/storage"
	"github.com/uhyunpark/l2signer/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File)

	if cfg.Signer.PrivateKey == "" {
		sugar.Fatalw("missing_private_key", "env", "L2_PRIVATE_KEY")
	}
	signer, err := crypto.NewStarkSigner(cfg.Signer.PrivateKey,
		crypto.WithMaxAttempts(cfg.Signer.MaxAttempts),
		crypto.WithLogger(logger),
	)
	if err != nil {
		sugar.Fatalw("load_signer", "err", err)
	}
	sugar.Infow("signer_loaded", "stark_key", signer.PublicKeyHex(), "account_id", cfg.Account.ID)

	nonces, err := storage.NewNonceStore(cfg.Storage.NonceDBPath)
	if err != nil {
		sugar.Fatalw("open_nonce_store", "path", cfg.Storage.NonceDBPath, "err", err)
	}
	defer nonces.Close()

	builder := order.NewBuilder(signer, nonces, cfg.Account.ID,
		order.WithTTL(cfg.Account.OrderTTL),
		order.WithLogger(logger),
	)
	server := api.NewServer(signer, builder, cfg.Account.ID, cfg.API.CORSOrigins, logger)

	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sugar.Infow("api_listening", "addr", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("api_server", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		sugar.Warnw("shutdown", "err", err)
	}
}
