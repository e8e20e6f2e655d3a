package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.PaystackConfig{
		SecretKey:      "sk_test_unit",
		BaseURL:        server.URL,
		Env:            "test",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestInitializeSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody initializePayload
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "bm-1",
			},
		})
	}))

	result, err := client.Initialize(context.Background(), InitializeRequest{
		Email:         "buyer@example.com",
		AmountPesewas: 4550,
		Reference:     "bm-1",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc123" {
		t.Fatalf("unexpected authorization url %q", result.AuthorizationURL)
	}
	if gotAuth != "Bearer sk_test_unit" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotBody.Amount != 4550 || gotBody.Currency != "GHS" {
		t.Fatalf("unexpected payload %+v", gotBody)
	}
}

func TestInitializeGatewayRejection(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Invalid amount",
		})
	}))

	_, err := client.Initialize(context.Background(), InitializeRequest{
		Email:         "buyer@example.com",
		AmountPesewas: 100,
		Reference:     "bm-2",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestInitializeRetriesServerErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/retry",
				"access_code":       "retry",
				"reference":         "bm-3",
			},
		})
	}))

	result, err := client.Initialize(context.Background(), InitializeRequest{
		Email:         "buyer@example.com",
		AmountPesewas: 100,
		Reference:     "bm-3",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if result.AccessCode != "retry" {
		t.Fatalf("unexpected access code %q", result.AccessCode)
	}
}

func TestVerifyReportsDeclineWithoutError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/bm-4" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status":    "failed",
				"reference": "bm-4",
				"amount":    4550,
				"currency":  "GHS",
				"customer":  map[string]any{"email": "buyer@example.com"},
			},
		})
	}))

	result, err := client.Verify(context.Background(), "bm-4")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("declined transaction must not report success")
	}
	if result.AmountPesewas != 4550 {
		t.Fatalf("unexpected amount %d", result.AmountPesewas)
	}
}

func TestVerifyTransportFailure(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.Verify(context.Background(), "bm-5")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientValidatesKeyEnvPairing(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), config.PaystackConfig{
		SecretKey: "sk_live_abc",
		Env:       "test",
	}, nil)
	if err == nil {
		t.Fatal("expected live key in test env to be rejected")
	}

	_, err = NewClient(context.Background(), config.PaystackConfig{Env: "test"}, nil)
	if err == nil {
		t.Fatal("expected missing secret key to be rejected")
	}
}
