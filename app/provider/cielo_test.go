package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestCielo(baseURL string) *CieloProvider {
	p := NewCieloProvider(CieloConfig{MerchantID: "merchant-id", MerchantKey: "merchant-key", SoftDescriptor: "DOACAO", BaseURL: baseURL})
	p.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

func cieloCardInput(method, number string) *CheckoutInput {
	return &CheckoutInput{
		Reference:   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		AmountCents: 10000,
		Currency:    "BRL",
		Method:      method,
		Customer:    Customer{Name: "Ana", Email: "ana@example.com", Document: "12345678909"},
		Card:        &CardInput{Number: number, Holder: "ANA SOUZA", Expiry: "08/2031", CVV: "321", Installments: 2},
		SuccessURL:  "https://ong.example.org/doacao/sucesso",
	}
}

func TestCieloStatus(t *testing.T) {
	cases := map[int]string{
		1:  StatusApproved,
		2:  StatusApproved,
		3:  StatusDenied,
		13: StatusDenied,
		12: StatusPending,
		0:  StatusProcessing,
		10: StatusProcessing,
		20: StatusProcessing,
	}
	for code, want := range cases {
		if got := CieloStatus(code); got != want {
			t.Fatalf("CieloStatus(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestCieloRejectsLuhnFailureBeforeSubmission(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{}`)
	})
	p := newTestCielo(srv.URL)

	_, err := p.Initiate(context.Background(), cieloCardInput(MethodCreditCard, "4111111111111112"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Fatalf("expected no provider calls, got %d", srv.hits.Load())
	}
}

func TestCieloForwardsValidCreditCard(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"MerchantOrderId":"x","Payment":{"PaymentId":"24bc8366-fc31-4d6c-8555-17049a836a07","Status":2,"ReturnCode":"6","ReturnMessage":"Operation Successful","AuthorizationCode":"123456","Tid":"0310120000001","Installments":2}}`)
	})
	p := newTestCielo(srv.URL)

	result, err := p.Initiate(context.Background(), cieloCardInput(MethodCreditCard, "5555 5555 5555 4444"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Kind != KindImmediate || result.Status != StatusApproved || !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.TransactionID != "24bc8366-fc31-4d6c-8555-17049a836a07" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
	if result.Card.Brand != "Master" || result.Card.ReturnCode != "6" || result.Extra["tid"] != "0310120000001" {
		t.Fatalf("unexpected card payload: %+v", result.Card)
	}

	req := srv.requests[0]
	if req.Path != "/1/sales/" || req.Header.Get("MerchantId") != "merchant-id" || req.Header.Get("MerchantKey") != "merchant-key" {
		t.Fatalf("unexpected request: %s %v", req.Path, req.Header)
	}
	if req.Header.Get("RequestId") == "" {
		t.Fatal("expected RequestId header")
	}

	var sale struct {
		MerchantOrderID string `json:"MerchantOrderId"`
		Payment         struct {
			Type         string
			Amount       int64
			Installments int
			CreditCard   struct {
				CardNumber     string
				ExpirationDate string
				Brand          string
			}
		}
	}
	if err := json.Unmarshal(req.Body, &sale); err != nil {
		t.Fatalf("invalid sale body: %v", err)
	}
	if sale.MerchantOrderID != "7c9e6679742540de944be07fc1f90ae7" {
		t.Fatalf("unexpected merchant order id: %s", sale.MerchantOrderID)
	}
	if sale.Payment.Type != "CreditCard" || sale.Payment.Amount != 10000 || sale.Payment.Installments != 2 {
		t.Fatalf("unexpected payment: %+v", sale.Payment)
	}
	if sale.Payment.CreditCard.CardNumber != "5555555555554444" || sale.Payment.CreditCard.ExpirationDate != "08/2031" || sale.Payment.CreditCard.Brand != "Master" {
		t.Fatalf("unexpected card: %+v", sale.Payment.CreditCard)
	}
}

func TestCieloDeniedCard(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"Payment":{"PaymentId":"p-1","Status":3,"ReturnCode":"05","ReturnMessage":"Not Authorized"}}`)
	})
	p := newTestCielo(srv.URL)

	result, err := p.Initiate(context.Background(), cieloCardInput(MethodCreditCard, "4111111111111111"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != StatusDenied || result.Success {
		t.Fatalf("expected denied result, got %+v", result)
	}
}

func TestCieloDebitRequiresAuthenticationRedirect(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"Payment":{"PaymentId":"p-2","Status":0,"AuthenticationUrl":"https://qasecommerce.cielo.com.br/web/index.cbmp?id=abc"}}`)
	})
	p := newTestCielo(srv.URL)

	result, err := p.Initiate(context.Background(), cieloCardInput(MethodDebitCard, "4111111111111111"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Kind != KindRedirect || result.RedirectURL == "" || result.Status != StatusProcessing {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(string(srv.requests[0].Body), `"Authenticate":true`) {
		t.Fatalf("expected authenticate flag in body: %s", srv.requests[0].Body)
	}
}

func TestCieloPix(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"Payment":{"PaymentId":"p-3","Status":12,"QrCodeString":"00020101021226900014br.gov.bcb.pix","QrCodeBase64Image":"iVBORw0KGgo="}}`)
	})
	p := newTestCielo(srv.URL)

	input := cieloCardInput(MethodPix, "")
	input.Card = nil
	result, err := p.Initiate(context.Background(), input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Kind != KindInteractive || result.Status != StatusPending {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Pix.QRCode == "" || result.Pix.QRCodeURL != "data:image/png;base64,iVBORw0KGgo=" {
		t.Fatalf("unexpected pix payload: %+v", result.Pix)
	}
}

func TestCieloPixWithoutQRCodeFails(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"Payment":{"PaymentId":"p-4","Status":12}}`)
	})
	p := newTestCielo(srv.URL)

	input := cieloCardInput(MethodPix, "")
	input.Card = nil
	if _, err := p.Initiate(context.Background(), input); err == nil {
		t.Fatal("expected error for pix sale without qr code")
	}
}
