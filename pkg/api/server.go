package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/order"
)

const maxBodyBytes = 64 << 10

// Server exposes the signer over HTTP for local clients that cannot link the
// Go package. It should only listen on loopback.
type Server struct {
	signer    *crypto.StarkSigner
	builder   *order.Builder
	accountID uint64
	router    *mux.Router
	origins   []string
	log       *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(signer *crypto.StarkSigner, builder *order.Builder, accountID uint64, origins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		signer:    signer,
		builder:   builder,
		accountID: accountID,
		router:    mux.NewRouter(),
		origins:   origins,
		log:       logger.Sugar(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/signer", s.handleGetSigner).Methods("GET")
	api.HandleFunc("/orders/hash", s.handleHashOrder).Methods("POST")
	api.HandleFunc("/orders/sign", s.handleSignOrder).Methods("POST")
	api.HandleFunc("/orders/build", s.handleBuildOrder).Methods("POST")
	api.HandleFunc("/signatures/verify", s.handleVerify).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSigner(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, SignerInfo{StarkKey: s.signer.PublicKeyHex(), AccountID: s.accountID})
}

func (s *Server) handleHashOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderParams
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := crypto.HashLimitOrder(req.toParameters())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}
	respondJSON(w, HashResponse{OrderHash: "0x" + crypto.FeltHex(&hash)})
}

func (s *Server) handleSignOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderParams
	if !decodeBody(w, r, &req) {
		return
	}
	params := req.toParameters()
	if err := params.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	hash, sig, err := s.signer.SignOrder(params)
	if err != nil {
		s.writeSignError(w, err)
		return
	}
	s.log.Infow("order_signed",
		"account_id", params.AccountID,
		"nonce", params.Nonce,
		"order_hash", "0x"+crypto.FeltHex(&hash),
	)
	respondJSON(w, SignResponse{OrderHash: "0x" + crypto.FeltHex(&hash), L2Signature: sig})
}

func (s *Server) handleBuildOrder(w http.ResponseWriter, r *http.Request) {
	var req BuildOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	lo, err := req.toLimitOrder()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	built, err := s.builder.Build(lo)
	if err != nil {
		s.writeSignError(w, err)
		return
	}
	respondJSON(w, built)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pub, err := crypto.PublicKeyFromStarkKey(req.StarkKey)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stark key", err.Error())
		return
	}
	hash, err := crypto.ParseFelt(req.OrderHash)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order hash", err.Error())
		return
	}
	valid, err := crypto.VerifySignature(pub, hash, req.L2Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid signature", err.Error())
		return
	}
	respondJSON(w, VerifyResponse{Valid: valid})
}

// writeSignError maps failures from hashing, scaling or signing to a status.
// Signing and nonce store failures are server-side.
func (s *Server) writeSignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crypto.ErrSigningFailure):
		s.log.Errorw("sign_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "signing failed", err.Error())
	case errors.Is(err, order.ErrNonceAllocation):
		s.log.Errorw("nonce_allocation_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "nonce allocation failed", err.Error())
	default:
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
