package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	currencyGHS = "GHS"

	initializePath = "/transaction/initialize"
	verifyPath     = "/transaction/verify/"
)

var (
	errSecretKeyRequired  = errors.New("paystack secret key is required")
	errInvalidPaystackEnv = fmt.Errorf("paystack environment must be %q or %q", testEnv, liveEnv)
)

// Client talks to the Paystack REST API. Transport failures and 5xx responses
// surface as CodeDependency errors so callers can distinguish "gateway down"
// from a real decline.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	secretKey   string
	environment string
	maxRetries  uint64
	logg        *logger.Logger
}

// NewClient validates the configured secrets and environment once at boot.
func NewClient(ctx context.Context, cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}
	if err := validateSecretKey(env, secretKey); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paystack client initialized (%s)", env))
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		secretKey:   secretKey,
		environment: env,
		maxRetries:  uint64(maxRetries),
		logg:        logg,
	}, nil
}

// Environment reports the normalized Paystack environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Initialize starts a transaction and returns the redirect handle.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if req.AmountPesewas <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if req.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	payload := initializePayload{
		Email:       req.Email,
		Amount:      req.AmountPesewas,
		Currency:    currencyGHS,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding initialize payload")
	}

	var envelope apiEnvelope[initializeData]
	if err := c.do(ctx, http.MethodPost, initializePath, body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, gatewayMessage("initialize rejected", envelope.Message))
	}
	if envelope.Data.AuthorizationURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "initialize response missing authorization url")
	}

	return &InitializeResult{
		AuthorizationURL: envelope.Data.AuthorizationURL,
		AccessCode:       envelope.Data.AccessCode,
		Reference:        envelope.Data.Reference,
	}, nil
}

// Verify fetches the authoritative transaction state for a reference. A
// declined or abandoned transaction is a successful verify call; only
// transport and protocol failures return an error.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	var envelope apiEnvelope[verifyData]
	if err := c.do(ctx, http.MethodGet, verifyPath+url.PathEscape(reference), nil, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, gatewayMessage("verify rejected", envelope.Message))
	}

	return &VerifyResult{
		Status:          envelope.Data.Status,
		Reference:       envelope.Data.Reference,
		AmountPesewas:   envelope.Data.Amount,
		Currency:        envelope.Data.Currency,
		Channel:         envelope.Data.Channel,
		PaidAt:          envelope.Data.PaidAt,
		CustomerEmail:   envelope.Data.Customer.Email,
		GatewayResponse: envelope.Data.GatewayResponse,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(250*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable"))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response"))
		}

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			c.logAttempt(ctx, method, path, resp.StatusCode)
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("payment gateway returned %d", resp.StatusCode)))
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected credentials")
		case resp.StatusCode >= http.StatusBadRequest:
			return pkgerrors.New(pkgerrors.CodeDependency, gatewayMessage(
				fmt.Sprintf("payment gateway returned %d", resp.StatusCode), extractMessage(raw)))
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
		}
		return nil
	})
}

func (c *Client) logAttempt(ctx context.Context, method, path string, status int) {
	if c.logg == nil {
		return
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"method": method,
		"path":   path,
		"status": status,
	})
	c.logg.Warn(logCtx, "paystack request failed, retrying")
}

func extractMessage(raw []byte) string {
	var partial struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		return ""
	}
	return partial.Message
}

func gatewayMessage(prefix, detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidPaystackEnv
	}
}

func validateSecretKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test_") {
			return nil
		}
		return fmt.Errorf("paystack environment %q requires a test secret key (sk_test_)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live_") {
			return nil
		}
		return fmt.Errorf("paystack environment %q requires a live secret key (sk_live_)", liveEnv)
	default:
		return errInvalidPaystackEnv
	}
}
