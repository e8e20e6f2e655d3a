package paystack

import "time"

// InitializeRequest carries what the gateway needs to start a transaction.
// Amounts are integer pesewas, matching Paystack's minor-unit convention.
type InitializeRequest struct {
	Email         string
	AmountPesewas int
	Reference     string
	CallbackURL   string
	Metadata      map[string]any
}

// InitializeResult is the redirect handle returned by a successful initialize.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the settled view of a transaction as reported by the gateway.
type VerifyResult struct {
	Status          string
	Reference       string
	AmountPesewas   int
	Currency        string
	Channel         string
	PaidAt          *time.Time
	CustomerEmail   string
	GatewayResponse string
}

// Succeeded reports whether the gateway settled the transaction.
func (v VerifyResult) Succeeded() bool {
	return v.Status == "success"
}

type initializePayload struct {
	Email       string         `json:"email"`
	Amount      int            `json:"amount"`
	Currency    string         `json:"currency"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type apiEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string     `json:"status"`
	Reference string     `json:"reference"`
	Amount    int        `json:"amount"`
	Currency  string     `json:"currency"`
	Channel   string     `json:"channel"`
	PaidAt    *time.Time `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
	GatewayResponse string `json:"gateway_response"`
}
