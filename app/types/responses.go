package types

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Donation struct {
	ID            string    `json:"id"`
	DonorName     string    `json:"donor_name"`
	DonorEmail    string    `json:"donor_email"`
	DonorPhone    string    `json:"donor_phone,omitempty"`
	Amount        string    `json:"amount"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type DonationEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Actor     string          `json:"actor"`
	OldStatus string          `json:"old_status,omitempty"`
	NewStatus string          `json:"new_status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type PixPayment struct {
	QRCode    string     `json:"qr_code"`
	QRCodeURL string     `json:"qr_code_url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CardPayment struct {
	AuthorizationCode string `json:"authorization_code,omitempty"`
	ReturnCode        string `json:"return_code,omitempty"`
	ReturnMessage     string `json:"return_message,omitempty"`
	AuthenticationURL string `json:"authentication_url,omitempty"`
	Installments      int    `json:"installments,omitempty"`
	Brand             string `json:"brand,omitempty"`
}

type BoletoPayment struct {
	URL       string     `json:"url"`
	Barcode   string     `json:"barcode,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Payment struct {
	Provider      string            `json:"provider"`
	Kind          string            `json:"kind"`
	Status        string            `json:"status"`
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id,omitempty"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
	Pix           *PixPayment       `json:"pix,omitempty"`
	Card          *CardPayment      `json:"card,omitempty"`
	Boleto        *BoletoPayment    `json:"boleto,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type CheckoutResponse struct {
	Kind     string    `json:"kind"`
	Donation *Donation `json:"donation"`
	Payment  *Payment  `json:"payment"`
}

type DonationEnvelopeResponse struct {
	Donation *Donation `json:"donation"`
}

type DonationDetailResponse struct {
	Donation *Donation        `json:"donation"`
	Events   []*DonationEvent `json:"events"`
}

type ListDonationsResponse struct {
	Donations []*Donation `json:"donations"`
}

type StripeCheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type StripeSessionResponse struct {
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	AmountTotal   int64     `json:"amount_total"`
	Currency      string    `json:"currency,omitempty"`
	CustomerEmail string    `json:"customer_email"`
	Donation      *Donation `json:"donation,omitempty"`
}

type PayPalOrderResponse struct {
	OrderID     string `json:"orderId"`
	ApprovalURL string `json:"approvalUrl"`
	Status      string `json:"status"`
}

type PayPalCaptureResponse struct {
	OrderID       string          `json:"orderId"`
	CaptureID     string          `json:"captureId,omitempty"`
	Status        string          `json:"status"`
	Payer         json.RawMessage `json:"payer,omitempty"`
	PurchaseUnits json.RawMessage `json:"purchase_units,omitempty"`
	Donation      *Donation       `json:"donation,omitempty"`
}

type MercadoPagoCheckoutResponse struct {
	PreferenceID string `json:"preferenceId"`
	CheckoutURL  string `json:"checkoutUrl"`
}

type PagarmeEncryptionKeyResponse struct {
	EncryptionKey string `json:"encryptionKey"`
}

type PagarmeCheckoutData struct {
	EncryptionKey   string   `json:"encryptionKey"`
	Amount          int64    `json:"amount"`
	PaymentMethods  []string `json:"paymentMethods"`
	MaxInstallments int      `json:"maxInstallments"`
	PostbackURL     string   `json:"postbackUrl,omitempty"`
	CustomerData    bool     `json:"customerData"`
}

type PagarmeCheckoutDataResponse struct {
	CheckoutData *PagarmeCheckoutData `json:"checkoutData"`
}

type PagarmePaymentResponse struct {
	TransactionID     string `json:"transactionId"`
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorizationCode,omitempty"`
	Installments      int    `json:"installments,omitempty"`
	CardBrand         string `json:"cardBrand,omitempty"`
	PixQRCode         string `json:"pixQrCode,omitempty"`
	PixQRCodeURL      string `json:"pixQrCodeUrl,omitempty"`
	BoletoURL         string `json:"boletoUrl,omitempty"`
	BoletoBarcode     string `json:"boletoBarcode,omitempty"`
}

type CieloPaymentResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	TransactionID     string `json:"transactionId"`
	ReturnCode        string `json:"returnCode,omitempty"`
	ReturnMessage     string `json:"returnMessage,omitempty"`
	PixQRCode         string `json:"pixQrCode,omitempty"`
	PixQRCodeURL      string `json:"pixQrCodeUrl,omitempty"`
	AuthenticationURL string `json:"authenticationUrl,omitempty"`
}

type StaleProviderSummary struct {
	Provider    string `json:"provider"`
	Count       int    `json:"count"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

type StaleReportResponse struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Cutoff      time.Time              `json:"cutoff"`
	Donations   []*Donation            `json:"donations"`
	ByProvider  []StaleProviderSummary `json:"by_provider"`
}
