package types

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// Requests for the per-provider endpoints. They mirror what the donation
// page posts when it talks to one provider directly.

type StripeCheckoutRequest struct {
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency" validate:"omitempty,len=3"`
	DonorName  string      `json:"donor_name" validate:"max=200"`
	DonorEmail string      `json:"donor_email" validate:"required,email"`
	DonorCPF   string      `json:"donor_cpf" validate:"required,cpf"`
	SuccessURL string      `json:"success_url" validate:"omitempty,url"`
	CancelURL  string      `json:"cancel_url" validate:"omitempty,url"`

	amountCents int64
}

func NewStripeCheckoutRequestFromContext(ctx echo.Context) (*StripeCheckoutRequest, error) {
	var body StripeCheckoutRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.DonorName = strings.TrimSpace(body.DonorName)
	body.DonorEmail = strings.ToLower(strings.TrimSpace(body.DonorEmail))
	body.DonorCPF = strings.TrimSpace(body.DonorCPF)
	body.SuccessURL = strings.TrimSpace(body.SuccessURL)
	body.CancelURL = strings.TrimSpace(body.CancelURL)
	return &body, nil
}

func (r *StripeCheckoutRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	return validateStruct(r)
}

func (r *StripeCheckoutRequest) GetAmountCents() int64 {
	return r.amountCents
}

type PayPalOrderRequest struct {
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency" validate:"omitempty,len=3"`
	DonorName  string      `json:"donor_name" validate:"max=200"`
	DonorEmail string      `json:"donor_email" validate:"required,email"`

	amountCents int64
}

func NewPayPalOrderRequestFromContext(ctx echo.Context) (*PayPalOrderRequest, error) {
	var body PayPalOrderRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.DonorName = strings.TrimSpace(body.DonorName)
	body.DonorEmail = strings.ToLower(strings.TrimSpace(body.DonorEmail))
	return &body, nil
}

func (r *PayPalOrderRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	return validateStruct(r)
}

func (r *PayPalOrderRequest) GetAmountCents() int64 {
	return r.amountCents
}

type PayPalCaptureRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

func NewPayPalCaptureRequestFromContext(ctx echo.Context) (*PayPalCaptureRequest, error) {
	var body PayPalCaptureRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.OrderID = strings.TrimSpace(body.OrderID)
	return &body, nil
}

func (r *PayPalCaptureRequest) Validate() error {
	return validateStruct(r)
}

type MercadoPagoCheckoutRequest struct {
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency" validate:"omitempty,len=3"`
	DonorName     string      `json:"donor_name" validate:"max=200"`
	DonorEmail    string      `json:"donor_email" validate:"required,email"`
	DonorPhone    string      `json:"donor_phone" validate:"max=30"`
	DonorCPF      string      `json:"donor_cpf" validate:"required,cpf"`
	PaymentMethod string      `json:"payment_method" validate:"omitempty,oneof=pix credit_card debit_card boleto card"`

	amountCents int64
}

func NewMercadoPagoCheckoutRequestFromContext(ctx echo.Context) (*MercadoPagoCheckoutRequest, error) {
	var body MercadoPagoCheckoutRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.DonorName = strings.TrimSpace(body.DonorName)
	body.DonorEmail = strings.ToLower(strings.TrimSpace(body.DonorEmail))
	body.DonorPhone = strings.TrimSpace(body.DonorPhone)
	body.DonorCPF = strings.TrimSpace(body.DonorCPF)
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	return &body, nil
}

func (r *MercadoPagoCheckoutRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	return validateStruct(r)
}

func (r *MercadoPagoCheckoutRequest) GetAmountCents() int64 {
	return r.amountCents
}

type PagarmeCheckoutRequest struct {
	Amount        json.Number `json:"amount"`
	PaymentMethod string      `json:"payment_method" validate:"omitempty,oneof=pix credit_card boleto card"`

	amountCents int64
}

// NewPagarmeCheckoutRequestFromContext reads the amount and method from the
// body, falling back to the query string for GET requests.
func NewPagarmeCheckoutRequestFromContext(ctx echo.Context) (*PagarmeCheckoutRequest, error) {
	var body PagarmeCheckoutRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if body.Amount == "" {
		body.Amount = json.Number(strings.TrimSpace(ctx.QueryParam("amount")))
	}
	if strings.TrimSpace(body.PaymentMethod) == "" {
		body.PaymentMethod = ctx.QueryParam("payment_method")
	}
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	return &body, nil
}

func (r *PagarmeCheckoutRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	return validateStruct(r)
}

func (r *PagarmeCheckoutRequest) GetAmountCents() int64 {
	return r.amountCents
}

type PagarmePaymentRequest struct {
	Amount        json.Number  `json:"amount"`
	DonorName     string       `json:"donor_name" validate:"max=200"`
	DonorEmail    string       `json:"donor_email" validate:"required,email"`
	DonorPhone    string       `json:"donor_phone" validate:"max=30"`
	DonorCPF      string       `json:"donor_cpf" validate:"required,cpf"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=pix credit_card boleto card"`
	Card          *CardRequest `json:"card"`

	amountCents int64
}

func NewPagarmePaymentRequestFromContext(ctx echo.Context) (*PagarmePaymentRequest, error) {
	var body PagarmePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.DonorName = strings.TrimSpace(body.DonorName)
	body.DonorEmail = strings.ToLower(strings.TrimSpace(body.DonorEmail))
	body.DonorPhone = strings.TrimSpace(body.DonorPhone)
	body.DonorCPF = strings.TrimSpace(body.DonorCPF)
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	body.Card.normalize()
	return &body, nil
}

func (r *PagarmePaymentRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	if err := validateStruct(r); err != nil {
		return err
	}
	if (r.PaymentMethod == "credit_card" || r.PaymentMethod == "card") && r.Card == nil {
		return errors.New("card is required for card payments")
	}
	return nil
}

func (r *PagarmePaymentRequest) GetAmountCents() int64 {
	return r.amountCents
}

type CieloPaymentRequest struct {
	Amount        json.Number  `json:"amount"`
	DonorName     string       `json:"donor_name" validate:"max=200"`
	DonorEmail    string       `json:"donor_email" validate:"required,email"`
	DonorCPF      string       `json:"donor_cpf" validate:"required,cpf"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=pix credit_card debit_card"`
	Card          *CardRequest `json:"card"`
	ReturnURL     string       `json:"return_url" validate:"omitempty,url"`

	amountCents int64
}

func NewCieloPaymentRequestFromContext(ctx echo.Context) (*CieloPaymentRequest, error) {
	var body CieloPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.DonorName = strings.TrimSpace(body.DonorName)
	body.DonorEmail = strings.ToLower(strings.TrimSpace(body.DonorEmail))
	body.DonorCPF = strings.TrimSpace(body.DonorCPF)
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	body.ReturnURL = strings.TrimSpace(body.ReturnURL)
	body.Card.normalize()
	return &body, nil
}

func (r *CieloPaymentRequest) Validate() error {
	cents, err := positiveCents(r.Amount)
	if err != nil {
		return err
	}
	r.amountCents = cents
	if err := validateStruct(r); err != nil {
		return err
	}
	if needsCard(r.PaymentMethod) && r.Card == nil {
		return errors.New("card is required for card payments")
	}
	return nil
}

func (r *CieloPaymentRequest) GetAmountCents() int64 {
	return r.amountCents
}

func positiveCents(amount json.Number) (int64, error) {
	cents, err := ParseAmountToCents(amount)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
