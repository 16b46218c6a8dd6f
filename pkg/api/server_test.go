package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/uhyunpark/l2signer/pkg/crypto"
	"github.com/uhyunpark/l2signer/pkg/order"
	"github.com/uhyunpark/l2signer/pkg/storage"
	"github.com/uhyunpark/l2signer/pkg/util"
)

const testKey = "0x03c1e9550e66958296d11b60f8e8e7a7ad990d07fa65d5f7652c4a6c87d4e3cc"

func newTestServer(t *testing.T) (*Server, *crypto.StarkSigner) {
	t.Helper()
	signer, err := crypto.NewStarkSigner(testKey)
	if err != nil {
		t.Fatalf("NewStarkSigner: %v", err)
	}
	nonces, err := storage.NewNonceStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewNonceStore: %v", err)
	}
	t.Cleanup(func() { nonces.Close() })

	clock := util.FixedClock{T: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	builder := order.NewBuilder(signer, nonces, 542, order.WithClock(clock))
	return NewServer(signer, builder, 542, []string{"http://localhost:3000"}, nil), signer
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleParams() OrderParams {
	return OrderParams{
		SyntheticAssetID:  "0x1",
		CollateralAssetID: "0x2",
		FeeAssetID:        "0x3",
		IsBuy:             true,
		AmountSynthetic:   100,
		AmountCollateral:  200,
		AmountFee:         10,
		Nonce:             123,
		AccountID:         1,
		ExpireTime:        999999,
	}
}

func TestHealthAndSigner(t *testing.T) {
	srv, signer := newTestServer(t)
	h := srv.Handler()

	if rec := do(t, h, "GET", "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec := do(t, h, "GET", "/api/v1/signer", nil)
	var info SignerInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.StarkKey != signer.PublicKeyHex() || info.AccountID != 542 {
		t.Errorf("signer info = %+v", info)
	}
	if strings.Contains(rec.Body.String(), strings.TrimPrefix(testKey, "0x0")) {
		t.Error("signer endpoint leaked the private key")
	}
}

func TestHashEndpointMatchesLibrary(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "POST", "/api/v1/orders/hash", sampleParams())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp HashResponse
	json.NewDecoder(rec.Body).Decode(&resp)

	want, _ := crypto.HashLimitOrder(sampleParams().toParameters())
	if resp.OrderHash != "0x"+crypto.FeltHex(&want) {
		t.Errorf("orderHash = %s, want 0x%s", resp.OrderHash, crypto.FeltHex(&want))
	}
}

func TestSignThenVerify(t *testing.T) {
	srv, signer := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, "POST", "/api/v1/orders/sign", sampleParams())
	if rec.Code != http.StatusOK {
		t.Fatalf("sign status = %d: %s", rec.Code, rec.Body)
	}
	var signed SignResponse
	json.NewDecoder(rec.Body).Decode(&signed)
	if len(signed.L2Signature) != crypto.SignatureHexLen {
		t.Errorf("signature length = %d", len(signed.L2Signature))
	}

	rec = do(t, h, "POST", "/api/v1/signatures/verify", VerifyRequest{
		StarkKey:    signer.PublicKeyHex(),
		OrderHash:   signed.OrderHash,
		L2Signature: signed.L2Signature,
	})
	var verified VerifyResponse
	json.NewDecoder(rec.Body).Decode(&verified)
	if rec.Code != http.StatusOK || !verified.Valid {
		t.Errorf("verify: status %d, valid %v", rec.Code, verified.Valid)
	}
}

func TestBuildEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{
		"contractId": 10000001,
		"syntheticAssetId": "0x4254432d3130000000000000000000",
		"syntheticResolution": 10000000000,
		"collateralAssetId": "0x2ce625e94458d39dd0bf3b45a843544dd4a14b8169045a3a3d15aa564b936c5",
		"collateralResolution": 1000000,
		"feeRate": "0.0005",
		"side": "buy",
		"price": "30000",
		"size": "0.1"
	}`
	rec := do(t, srv.Handler(), "POST", "/api/v1/orders/build", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var req order.CreateOrderRequest
	if err := json.NewDecoder(rec.Body).Decode(&req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.L2Nonce != 1 || req.Side != order.SideBuy || req.AccountID != 542 {
		t.Errorf("unexpected request: %+v", req)
	}
	if _, err := crypto.ParseSignature(req.L2Signature); err != nil {
		t.Errorf("bad l2Signature: %v", err)
	}
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	bad := sampleParams()
	bad.FeeAssetID = "0xzz"
	if rec := do(t, h, "POST", "/api/v1/orders/sign", bad); rec.Code != http.StatusBadRequest {
		t.Errorf("bad asset: status = %d", rec.Code)
	}

	wide := sampleParams()
	wide.Nonce = 1 << 33
	if rec := do(t, h, "POST", "/api/v1/orders/sign", wide); rec.Code != http.StatusBadRequest {
		t.Errorf("wide nonce: status = %d", rec.Code)
	}

	if rec := do(t, h, "POST", "/api/v1/orders/hash", `{"bogus": 1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d", rec.Code)
	}

	rec := do(t, h, "POST", "/api/v1/signatures/verify", VerifyRequest{StarkKey: "0x1", OrderHash: "0x1", L2Signature: "0x00"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed verify: status = %d", rec.Code)
	}
}

type brokenNonces struct{}

func (brokenNonces) Next(uint64) (uint64, error) { return 0, errors.New("pebble: closed") }

func TestBuildNonceStoreFailureIsServerError(t *testing.T) {
	signer, err := crypto.NewStarkSigner(testKey)
	if err != nil {
		t.Fatalf("NewStarkSigner: %v", err)
	}
	builder := order.NewBuilder(signer, brokenNonces{}, 542)
	srv := NewServer(signer, builder, 542, nil, nil)

	body := `{
		"contractId": 1,
		"syntheticAssetId": "0x1",
		"syntheticResolution": 1,
		"collateralAssetId": "0x2",
		"collateralResolution": 1,
		"feeRate": "0",
		"side": "sell",
		"price": "10",
		"size": "1"
	}`
	rec := do(t, srv.Handler(), "POST", "/api/v1/orders/build", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "nonce allocation failed" {
		t.Errorf("error = %q", resp.Error)
	}
}
