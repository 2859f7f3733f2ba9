package provider

import (
	"context"
	"encoding/json"
	"time"
)

const (
	CodeStripe      = "stripe"
	CodePayPal      = "paypal"
	CodeMercadoPago = "mercadopago"
	CodePagarme     = "pagarme"
	CodeCielo       = "cielo"
)

const (
	MethodPix        = "pix"
	MethodCreditCard = "credit_card"
	MethodDebitCard  = "debit_card"
	MethodBoleto     = "boleto"
	MethodCard       = "card"
)

// Next step the caller has to take after Initiate.
const (
	KindRedirect    = "redirect"
	KindInteractive = "interactive"
	KindImmediate   = "immediate"
)

const (
	StatusApproved   = "approved"
	StatusPending    = "pending"
	StatusDenied     = "denied"
	StatusProcessing = "processing"
)

type Customer struct {
	Name     string
	Email    string
	Phone    string
	Document string
}

type CardInput struct {
	Number       string
	Holder       string
	Expiry       string
	CVV          string
	Installments int
}

type CheckoutInput struct {
	// Reference is our donation id, echoed to the provider as its external
	// reference.
	Reference   string
	AmountCents int64
	Currency    string
	Method      string
	Description string
	Customer    Customer
	Card        *CardInput

	SuccessURL string
	CancelURL  string
}

type PixPayload struct {
	QRCode    string
	QRCodeURL string
	ExpiresAt *time.Time
}

type CardPayload struct {
	AuthorizationCode string
	ReturnCode        string
	ReturnMessage     string
	AuthenticationURL string
	Installments      int
	Brand             string
}

type BoletoPayload struct {
	URL       string
	Barcode   string
	ExpiresAt *time.Time
}

// Result is the normalized provider answer. Exactly one of Pix, Card or
// Boleto is set for interactive and immediate results.
type Result struct {
	Provider      string
	Kind          string
	Status        string
	Success       bool
	TransactionID string
	RedirectURL   string
	Pix           *PixPayload
	Card          *CardPayload
	Boleto        *BoletoPayload
	Extra         map[string]string
}

type Provider interface {
	Code() string
	Supports(method string) bool
	Initiate(ctx context.Context, input *CheckoutInput) (*Result, error)
}

type SessionStatus struct {
	ID            string
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
}

// SessionVerifier is implemented by providers that can report the state of a
// hosted checkout session.
type SessionVerifier interface {
	VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error)
}

type Capture struct {
	OrderID       string
	CaptureID     string
	Status        string
	Payer         json.RawMessage
	PurchaseUnits json.RawMessage
}

// OrderCapturer is implemented by providers that need an explicit capture
// after the donor approves the order.
type OrderCapturer interface {
	CaptureOrder(ctx context.Context, orderID string) (*Capture, error)
}

func validateAmount(input *CheckoutInput) error {
	if input == nil || input.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func newResult(provider, kind, status, transactionID string) *Result {
	return &Result{
		Provider:      provider,
		Kind:          kind,
		Status:        status,
		Success:       status != StatusDenied,
		TransactionID: transactionID,
		Extra:         map[string]string{},
	}
}
