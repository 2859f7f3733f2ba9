package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v82"
)

type fakeStripeSessions struct {
	createCalls int
	lastCreate  *stripe.CheckoutSessionCreateParams
	sessions    map[string]*stripe.CheckoutSession
	createErr   error
}

func (f *fakeStripeSessions) Create(_ context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	f.createCalls++
	f.lastCreate = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	session := &stripe.CheckoutSession{
		ID:            "cs_test_123",
		URL:           "https://checkout.stripe.com/c/pay/cs_test_123",
		Status:        stripe.CheckoutSessionStatusOpen,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		AmountTotal:   *params.LineItems[0].PriceData.UnitAmount,
		Currency:      stripe.Currency(*params.LineItems[0].PriceData.Currency),
	}
	if params.CustomerEmail != nil {
		session.CustomerEmail = *params.CustomerEmail
	}
	if f.sessions == nil {
		f.sessions = map[string]*stripe.CheckoutSession{}
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStripeSessions) Retrieve(_ context.Context, id string, _ *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such checkout.session: " + id}
	}
	return session, nil
}

func TestStripeInitiateCreatesRedirectSession(t *testing.T) {
	sessions := &fakeStripeSessions{}
	p := &StripeProvider{cfg: StripeConfig{SecretKey: "sk_test", ProductName: "Doação"}, sessions: sessions}

	result, err := p.Initiate(context.Background(), &CheckoutInput{
		Reference:   "don-1",
		AmountCents: 10000,
		Currency:    "USD",
		Method:      MethodCard,
		Customer:    Customer{Email: "donor@example.com"},
		SuccessURL:  "https://ong.example.org/doacao/sucesso",
		CancelURL:   "https://ong.example.org/doacao",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Kind != KindRedirect || result.Status != StatusPending || !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.TransactionID == "" || !strings.HasPrefix(result.RedirectURL, "https://") {
		t.Fatalf("expected session id and redirect url, got %+v", result)
	}

	item := sessions.lastCreate.LineItems[0]
	if *item.PriceData.Currency != "usd" {
		t.Fatalf("expected lowercase currency, got %s", *item.PriceData.Currency)
	}
	if *item.PriceData.UnitAmount != 10000 || *item.Quantity != 1 {
		t.Fatalf("unexpected line item: amount=%d qty=%d", *item.PriceData.UnitAmount, *item.Quantity)
	}
	if *item.PriceData.ProductData.Name != "Doação" {
		t.Fatalf("unexpected product name: %s", *item.PriceData.ProductData.Name)
	}
	if *sessions.lastCreate.SuccessURL != "https://ong.example.org/doacao/sucesso?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url: %s", *sessions.lastCreate.SuccessURL)
	}
	if *sessions.lastCreate.ClientReferenceID != "don-1" {
		t.Fatalf("unexpected client reference: %s", *sessions.lastCreate.ClientReferenceID)
	}

	status, err := p.VerifySession(context.Background(), result.TransactionID)
	if err != nil {
		t.Fatalf("expected verify to succeed, got %v", err)
	}
	if status.PaymentStatus != "unpaid" || status.AmountTotal != 10000 || status.CustomerEmail != "donor@example.com" {
		t.Fatalf("unexpected session status: %+v", status)
	}
	if StripePaymentStatus(status.PaymentStatus) != StatusPending {
		t.Fatalf("unexpected normalized status: %s", StripePaymentStatus(status.PaymentStatus))
	}
}

func TestStripeFailureBecomesProviderError(t *testing.T) {
	sessions := &fakeStripeSessions{createErr: &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid currency: xyz"}}
	p := &StripeProvider{cfg: StripeConfig{SecretKey: "sk_test"}, sessions: sessions}

	_, err := p.Initiate(context.Background(), &CheckoutInput{
		AmountCents: 500,
		Currency:    "xyz",
		SuccessURL:  "https://ong.example.org/ok",
		CancelURL:   "https://ong.example.org/cancel",
	})

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if perr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", perr.StatusCode)
	}
	if perr.Message != "failed to create checkout session: Invalid currency: xyz" {
		t.Fatalf("unexpected message: %s", perr.Message)
	}
}

func TestStripeVerifyUnknownSession(t *testing.T) {
	p := &StripeProvider{cfg: StripeConfig{SecretKey: "sk_test"}, sessions: &fakeStripeSessions{}}

	_, err := p.VerifySession(context.Background(), "cs_missing")
	var perr *Error
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 provider error, got %v", err)
	}

	if _, err := p.VerifySession(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStripePaymentStatus(t *testing.T) {
	cases := map[string]string{
		"paid":                StatusApproved,
		"no_payment_required": StatusApproved,
		"unpaid":              StatusPending,
		"":                    StatusProcessing,
	}
	for in, want := range cases {
		if got := StripePaymentStatus(in); got != want {
			t.Fatalf("StripePaymentStatus(%q) = %s, want %s", in, got, want)
		}
	}
}
