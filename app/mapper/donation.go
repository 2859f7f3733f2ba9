package mapper

import (
	"encoding/json"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func DonationToResponse(item *entity.Donation) *types.Donation {
	if item == nil {
		return nil
	}

	return &types.Donation{
		ID:            item.ID,
		DonorName:     item.DonorName,
		DonorEmail:    item.DonorEmail,
		DonorPhone:    derefString(item.DonorPhone),
		Amount:        types.FormatCents(item.AmountCents),
		AmountCents:   item.AmountCents,
		Currency:      item.Currency,
		PaymentMethod: item.PaymentMethod,
		Provider:      item.Provider,
		Status:        item.Status,
		TransactionID: derefString(item.TransactionID),
		Message:       derefString(item.Message),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func DonationsToResponse(items []*entity.Donation) []*types.Donation {
	result := make([]*types.Donation, 0, len(items))
	for _, item := range items {
		result = append(result, DonationToResponse(item))
	}
	return result
}

func EventsToResponse(items []*entity.DonationEvent) []*types.DonationEvent {
	result := make([]*types.DonationEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		event := &types.DonationEvent{
			ID:        item.ID,
			EventType: item.EventType,
			Actor:     item.Actor,
			OldStatus: derefString(item.OldStatus),
			NewStatus: item.NewStatus,
			CreatedAt: item.CreatedAt.UTC(),
		}
		if payload := derefString(item.PayloadJSON); payload != "" && json.Valid([]byte(payload)) {
			event.Payload = json.RawMessage(payload)
		}
		result = append(result, event)
	}
	return result
}

func ResultToPayment(result *provider.Result) *types.Payment {
	if result == nil {
		return nil
	}

	payment := &types.Payment{
		Provider:      result.Provider,
		Kind:          result.Kind,
		Status:        result.Status,
		Success:       result.Success,
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
	}
	if result.Pix != nil {
		payment.Pix = &types.PixPayment{
			QRCode:    result.Pix.QRCode,
			QRCodeURL: result.Pix.QRCodeURL,
			ExpiresAt: result.Pix.ExpiresAt,
		}
	}
	if result.Card != nil {
		payment.Card = &types.CardPayment{
			AuthorizationCode: result.Card.AuthorizationCode,
			ReturnCode:        result.Card.ReturnCode,
			ReturnMessage:     result.Card.ReturnMessage,
			AuthenticationURL: result.Card.AuthenticationURL,
			Installments:      result.Card.Installments,
			Brand:             result.Card.Brand,
		}
	}
	if result.Boleto != nil {
		payment.Boleto = &types.BoletoPayment{
			URL:       result.Boleto.URL,
			Barcode:   result.Boleto.Barcode,
			ExpiresAt: result.Boleto.ExpiresAt,
		}
	}
	if len(result.Extra) > 0 {
		payment.Extra = cloneExtra(result.Extra)
	}
	return payment
}

func CheckoutToResponse(checkout *service.Checkout) *types.CheckoutResponse {
	if checkout == nil {
		return nil
	}
	return &types.CheckoutResponse{
		Kind:     checkout.Kind,
		Donation: DonationToResponse(checkout.Donation),
		Payment:  ResultToPayment(checkout.Result),
	}
}

func CreateDonationRequestToIntent(req *types.CreateDonationRequest) service.DonationIntent {
	return service.DonationIntent{
		AmountCents:   req.GetAmountCents(),
		Currency:      req.Currency,
		DonorName:     req.DonorName,
		DonorEmail:    req.DonorEmail,
		DonorPhone:    req.DonorPhone,
		DonorDocument: req.DonorCPF,
		Message:       req.Message,
		Provider:      req.Provider,
		Method:        req.PaymentMethod,
		Card:          CardRequestToInput(req.Card),
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	}
}

func CardRequestToInput(card *types.CardRequest) *provider.CardInput {
	if card == nil {
		return nil
	}
	return &provider.CardInput{
		Number:       card.Number,
		Holder:       card.Holder,
		Expiry:       card.Expiry,
		CVV:          card.CVV,
		Installments: card.Installments,
	}
}

func ListDonationsRequestToFilter(req *types.ListDonationsRequest) service.ListDonationsFilter {
	return service.ListDonationsFilter{
		Status:     req.Status,
		Provider:   req.Provider,
		DonorEmail: req.DonorEmail,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
}

func StaleReportToResponse(report *service.StaleReport) *types.StaleReportResponse {
	if report == nil {
		return nil
	}

	byProvider := make([]types.StaleProviderSummary, 0, len(report.ByProvider))
	for _, summary := range report.ByProvider {
		byProvider = append(byProvider, types.StaleProviderSummary{
			Provider:    summary.Provider,
			Count:       summary.Count,
			Amount:      types.FormatCents(summary.AmountCents),
			AmountCents: summary.AmountCents,
		})
	}

	return &types.StaleReportResponse{
		GeneratedAt: report.GeneratedAt.UTC(),
		Cutoff:      report.Cutoff.UTC(),
		Donations:   DonationsToResponse(report.Donations),
		ByProvider:  byProvider,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneExtra(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
