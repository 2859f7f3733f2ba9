package mapper

import (
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
)

func TestDonationToResponse(t *testing.T) {
	phone := "+55 11 99999-0000"
	txID := "tx_123"
	created := time.Date(2026, 3, 5, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	resp := DonationToResponse(&entity.Donation{
		ID:            "d-1",
		DonorName:     "Maria",
		DonorEmail:    "maria@example.com",
		DonorPhone:    &phone,
		AmountCents:   5050,
		Currency:      "BRL",
		PaymentMethod: entity.PaymentMethodPix,
		Provider:      provider.CodePagarme,
		Status:        entity.DonationStatusPending,
		TransactionID: &txID,
		CreatedAt:     created,
		UpdatedAt:     created,
	})

	if resp.Amount != "50.50" || resp.AmountCents != 5050 {
		t.Fatalf("unexpected amount: %s / %d", resp.Amount, resp.AmountCents)
	}
	if resp.DonorPhone != phone || resp.TransactionID != txID || resp.Message != "" {
		t.Fatalf("unexpected optional fields: %+v", resp)
	}
	if resp.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps, got %v", resp.CreatedAt.Location())
	}
	if DonationToResponse(nil) != nil {
		t.Fatal("expected nil for nil donation")
	}
}

func TestEventsToResponseSkipsInvalidPayload(t *testing.T) {
	old := entity.DonationStatusPending
	valid := `{"note":"ok"}`
	broken := `{"note":`
	events := EventsToResponse([]*entity.DonationEvent{
		{ID: "e-1", EventType: "donation_approved", Actor: entity.EventActorAdmin, OldStatus: &old, NewStatus: entity.DonationStatusCompleted, PayloadJSON: &valid},
		nil,
		{ID: "e-2", EventType: "donation_created", Actor: entity.EventActorDonor, NewStatus: entity.DonationStatusPending, PayloadJSON: &broken},
	})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if string(events[0].Payload) != valid || events[0].OldStatus != old {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Payload != nil {
		t.Fatalf("expected invalid payload to be dropped, got %s", events[1].Payload)
	}
}

func TestResultToPaymentCopiesPayloads(t *testing.T) {
	result := &provider.Result{
		Provider:      provider.CodeCielo,
		Kind:          provider.KindImmediate,
		Status:        provider.StatusApproved,
		Success:       true,
		TransactionID: "pay-1",
		Card:          &provider.CardPayload{ReturnCode: "00", ReturnMessage: "Operation Successful"},
		Extra:         map[string]string{"tid": "123"},
	}

	payment := ResultToPayment(result)
	if payment.Card == nil || payment.Card.ReturnCode != "00" || payment.Pix != nil || payment.Boleto != nil {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	result.Extra["tid"] = "changed"
	if payment.Extra["tid"] != "123" {
		t.Fatal("expected extra to be copied")
	}

	cielo := CieloResultToResponse(result)
	if !cielo.Success || cielo.ReturnMessage != "Operation Successful" || cielo.TransactionID != "pay-1" {
		t.Fatalf("unexpected cielo response: %+v", cielo)
	}
}

func TestProviderResultResponses(t *testing.T) {
	mp := MercadoPagoResultToResponse(&provider.Result{TransactionID: "pref-1", RedirectURL: "https://mp.example/checkout", Extra: map[string]string{}})
	if mp.PreferenceID != "pref-1" || mp.CheckoutURL != "https://mp.example/checkout" {
		t.Fatalf("unexpected mercado pago response: %+v", mp)
	}

	pp := PayPalResultToResponse(&provider.Result{TransactionID: "order-1", RedirectURL: "https://paypal.example/approve", Extra: map[string]string{"order_status": "PAYER_ACTION_REQUIRED"}})
	if pp.OrderID != "order-1" || pp.Status != "PAYER_ACTION_REQUIRED" {
		t.Fatalf("unexpected paypal response: %+v", pp)
	}

	pagarme := PagarmeResultToResponse(&provider.Result{
		TransactionID: "tr-1",
		Status:        provider.StatusPending,
		Boleto:        &provider.BoletoPayload{URL: "https://boleto.example/1", Barcode: "2379"},
	})
	if pagarme.BoletoURL != "https://boleto.example/1" || pagarme.BoletoBarcode != "2379" || pagarme.PixQRCode != "" {
		t.Fatalf("unexpected pagarme response: %+v", pagarme)
	}
}

func TestStaleReportToResponse(t *testing.T) {
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	resp := StaleReportToResponse(&service.StaleReport{
		GeneratedAt: now,
		Cutoff:      now.Add(-72 * time.Hour),
		Donations:   []*entity.Donation{{ID: "d-1", AmountCents: 1000}},
		ByProvider:  []service.StaleProviderSummary{{Provider: provider.CodeCielo, Count: 1, AmountCents: 1000}},
	})

	if len(resp.Donations) != 1 || len(resp.ByProvider) != 1 {
		t.Fatalf("unexpected report: %+v", resp)
	}
	if resp.ByProvider[0].Amount != "10.00" {
		t.Fatalf("expected formatted amount, got %s", resp.ByProvider[0].Amount)
	}
}
