package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newJSONContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestNewCreateDonationRequestFromContextNormalizes(t *testing.T) {
	ctx := newJSONContext("POST", "/donations", `{"amount":"50.50","currency":"brl","donor_name":" Maria ","donor_email":" Maria@Example.COM ","donor_cpf":"123.456.789-09","provider":"Pagarme","payment_method":"PIX"}`)

	req, err := NewCreateDonationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.GetAmountCents() != 5050 {
		t.Fatalf("expected 5050 cents, got %d", req.GetAmountCents())
	}
	if req.Currency != "BRL" || req.DonorEmail != "maria@example.com" || req.Provider != "pagarme" || req.PaymentMethod != "pix" {
		t.Fatalf("unexpected normalization: %+v", req)
	}
}

func TestCreateDonationValidateAmountFirst(t *testing.T) {
	for _, amount := range []string{"0", "-5", ""} {
		req := &CreateDonationRequest{Amount: json.Number(amount)}
		if err := req.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %q, got %v", amount, err)
		}
	}
}

func TestCreateDonationValidateFields(t *testing.T) {
	base := func() *CreateDonationRequest {
		return &CreateDonationRequest{
			Amount:     "25",
			DonorEmail: "maria@example.com",
			DonorCPF:   "12345678909",
			Provider:   "cielo",
		}
	}

	req := base()
	req.DonorEmail = ""
	if err := req.Validate(); err == nil || err.Error() != "donor_email is required" {
		t.Fatalf("expected donor_email error, got %v", err)
	}

	req = base()
	req.DonorEmail = "not-an-email"
	if err := req.Validate(); err == nil || !strings.Contains(err.Error(), "donor_email") {
		t.Fatalf("expected donor_email format error, got %v", err)
	}

	req = base()
	req.Provider = "boletofacil"
	if err := req.Validate(); err == nil || !strings.HasPrefix(err.Error(), "provider must be one of") {
		t.Fatalf("expected provider error, got %v", err)
	}

	req = base()
	req.DonorCPF = "123"
	if err := req.Validate(); err == nil || err.Error() != "donor_cpf must have 11 digits" {
		t.Fatalf("expected cpf error, got %v", err)
	}

	req = base()
	req.PaymentMethod = "credit_card"
	if err := req.Validate(); err == nil || !strings.Contains(err.Error(), "card is required") {
		t.Fatalf("expected card required error, got %v", err)
	}

	req.Card = &CardRequest{Number: "4111111111111111", Holder: "MARIA", Expiry: "12/30", CVV: "123", Installments: 13}
	if err := req.Validate(); err == nil || err.Error() != "card.installments must be at most 12" {
		t.Fatalf("expected installments error, got %v", err)
	}

	req.Card.Installments = 3
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid card request, got %v", err)
	}
}

func TestNewReturnDonationRequestFromContextUsesQuery(t *testing.T) {
	e := echo.New()
	httpReq := httptest.NewRequest("POST", "/donations/d-1/return?status=Success", nil)
	ctx := e.NewContext(httpReq, httptest.NewRecorder())
	ctx.SetParamNames("id")
	ctx.SetParamValues("d-1")

	req, err := NewReturnDonationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.ID != "d-1" || req.Status != "success" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	if err := (&ReturnDonationRequest{ID: "d-1"}).Validate(); err == nil {
		t.Fatal("expected status required error")
	}
}

func TestNewListDonationsRequestFromContextAndValidate(t *testing.T) {
	e := echo.New()
	httpReq := httptest.NewRequest("GET", "/admin/donations?status=Pending&provider=cielo&limit=20&offset=40", nil)
	ctx := e.NewContext(httpReq, httptest.NewRecorder())

	req, err := NewListDonationsRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.Status != "pending" || req.Provider != "cielo" || req.Limit != 20 || req.Offset != 40 {
		t.Fatalf("unexpected request: %+v", req)
	}

	if err := (&ListDonationsRequest{Limit: 501}).Validate(); err == nil {
		t.Fatal("expected limit error")
	}
	if err := (&ListDonationsRequest{Status: "refunded"}).Validate(); err == nil {
		t.Fatal("expected status error")
	}

	bad := httptest.NewRequest("GET", "/admin/donations?limit=abc", nil)
	if _, err := NewListDonationsRequestFromContext(e.NewContext(bad, httptest.NewRecorder())); err == nil {
		t.Fatal("expected limit parse error")
	}
}

func TestAdminDecisionRequestAllowsEmptyBody(t *testing.T) {
	ctx := newJSONContext("POST", "/admin/donations/d-1/approve", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("d-1")

	req, err := NewAdminDecisionRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.Note = strings.Repeat("x", 501)
	if err := req.Validate(); err == nil {
		t.Fatal("expected note length error")
	}
}

func TestProviderRequestsValidate(t *testing.T) {
	cielo := &CieloPaymentRequest{Amount: "10", DonorEmail: "maria@example.com", PaymentMethod: "pix"}
	if err := cielo.Validate(); err == nil || err.Error() != "donor_cpf is required" {
		t.Fatalf("expected donor_cpf required, got %v", err)
	}
	cielo.DonorCPF = "123.456.789-09"
	if err := cielo.Validate(); err != nil || cielo.GetAmountCents() != 1000 {
		t.Fatalf("expected valid cielo request, got %v", err)
	}

	pagarme := &PagarmePaymentRequest{Amount: "10", DonorEmail: "maria@example.com", DonorCPF: "12345678909", PaymentMethod: "credit_card"}
	if err := pagarme.Validate(); err == nil || !strings.Contains(err.Error(), "card is required") {
		t.Fatalf("expected card required, got %v", err)
	}

	capture := &PayPalCaptureRequest{}
	if err := capture.Validate(); err == nil || err.Error() != "orderId is required" {
		t.Fatalf("expected orderId required, got %v", err)
	}

	stripe := &StripeCheckoutRequest{Amount: "0"}
	if err := stripe.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestNewPagarmeCheckoutRequestFromQuery(t *testing.T) {
	e := echo.New()
	httpReq := httptest.NewRequest("GET", "/create-pagarme-checkout?amount=30.00&payment_method=PIX", nil)
	req, err := NewPagarmeCheckoutRequestFromContext(e.NewContext(httpReq, httptest.NewRecorder()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.GetAmountCents() != 3000 || req.PaymentMethod != "pix" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestProviderRequestsRequireDonorIdentity(t *testing.T) {
	tests := []struct {
		name string
		req  interface{ Validate() error }
		want string
	}{
		{name: "stripe email", req: &StripeCheckoutRequest{Amount: "50", DonorCPF: "12345678909"}, want: "donor_email is required"},
		{name: "stripe cpf", req: &StripeCheckoutRequest{Amount: "50", DonorEmail: "maria@example.com"}, want: "donor_cpf is required"},
		{name: "paypal email", req: &PayPalOrderRequest{Amount: "50"}, want: "donor_email is required"},
		{name: "mercadopago email", req: &MercadoPagoCheckoutRequest{Amount: "50", DonorCPF: "12345678909"}, want: "donor_email is required"},
		{name: "mercadopago cpf", req: &MercadoPagoCheckoutRequest{Amount: "50", DonorEmail: "maria@example.com"}, want: "donor_cpf is required"},
		{name: "pagarme cpf", req: &PagarmePaymentRequest{Amount: "50", DonorEmail: "maria@example.com", PaymentMethod: "pix"}, want: "donor_cpf is required"},
		{name: "cielo email", req: &CieloPaymentRequest{Amount: "50", DonorCPF: "12345678909", PaymentMethod: "pix"}, want: "donor_email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}

	paypal := &PayPalOrderRequest{Amount: "50", DonorEmail: "maria@example.com"}
	if err := paypal.Validate(); err != nil {
		t.Fatalf("expected paypal without cpf to validate, got %v", err)
	}
}
