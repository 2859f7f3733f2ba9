package mapper

import (
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func StripeRequestToInput(req *types.StripeCheckoutRequest) *provider.CheckoutInput {
	return &provider.CheckoutInput{
		AmountCents: req.GetAmountCents(),
		Currency:    req.Currency,
		Customer:    provider.Customer{Name: req.DonorName, Email: req.DonorEmail, Document: req.DonorCPF},
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	}
}

func PayPalRequestToInput(req *types.PayPalOrderRequest) *provider.CheckoutInput {
	return &provider.CheckoutInput{
		AmountCents: req.GetAmountCents(),
		Currency:    req.Currency,
		Customer:    provider.Customer{Name: req.DonorName, Email: req.DonorEmail},
	}
}

func MercadoPagoRequestToInput(req *types.MercadoPagoCheckoutRequest) *provider.CheckoutInput {
	return &provider.CheckoutInput{
		AmountCents: req.GetAmountCents(),
		Currency:    req.Currency,
		Method:      req.PaymentMethod,
		Customer: provider.Customer{
			Name:     req.DonorName,
			Email:    req.DonorEmail,
			Phone:    req.DonorPhone,
			Document: req.DonorCPF,
		},
	}
}

func PagarmeRequestToInput(req *types.PagarmePaymentRequest) *provider.CheckoutInput {
	return &provider.CheckoutInput{
		AmountCents: req.GetAmountCents(),
		Method:      req.PaymentMethod,
		Customer: provider.Customer{
			Name:     req.DonorName,
			Email:    req.DonorEmail,
			Phone:    req.DonorPhone,
			Document: req.DonorCPF,
		},
		Card: CardRequestToInput(req.Card),
	}
}

func CieloRequestToInput(req *types.CieloPaymentRequest) *provider.CheckoutInput {
	return &provider.CheckoutInput{
		AmountCents: req.GetAmountCents(),
		Method:      req.PaymentMethod,
		Customer: provider.Customer{
			Name:     req.DonorName,
			Email:    req.DonorEmail,
			Document: req.DonorCPF,
		},
		Card:       CardRequestToInput(req.Card),
		SuccessURL: req.ReturnURL,
	}
}

func StripeResultToResponse(result *provider.Result) *types.StripeCheckoutResponse {
	return &types.StripeCheckoutResponse{
		SessionID: result.TransactionID,
		URL:       result.RedirectURL,
	}
}

func StripeVerificationToResponse(v *service.StripeVerification) *types.StripeSessionResponse {
	if v == nil || v.Session == nil {
		return nil
	}
	return &types.StripeSessionResponse{
		Status:        v.Session.Status,
		PaymentStatus: v.Session.PaymentStatus,
		AmountTotal:   v.Session.AmountTotal,
		Currency:      v.Session.Currency,
		CustomerEmail: v.Session.CustomerEmail,
		Donation:      DonationToResponse(v.Donation),
	}
}

func PayPalResultToResponse(result *provider.Result) *types.PayPalOrderResponse {
	status := result.Extra["order_status"]
	if status == "" {
		status = "CREATED"
	}
	return &types.PayPalOrderResponse{
		OrderID:     result.TransactionID,
		ApprovalURL: result.RedirectURL,
		Status:      status,
	}
}

func PayPalCaptureToResponse(c *service.PayPalCapture) *types.PayPalCaptureResponse {
	if c == nil || c.Capture == nil {
		return nil
	}
	return &types.PayPalCaptureResponse{
		OrderID:       c.Capture.OrderID,
		CaptureID:     c.Capture.CaptureID,
		Status:        c.Capture.Status,
		Payer:         c.Capture.Payer,
		PurchaseUnits: c.Capture.PurchaseUnits,
		Donation:      DonationToResponse(c.Donation),
	}
}

func MercadoPagoResultToResponse(result *provider.Result) *types.MercadoPagoCheckoutResponse {
	preferenceID := result.Extra["preference_id"]
	if preferenceID == "" {
		preferenceID = result.TransactionID
	}
	return &types.MercadoPagoCheckoutResponse{
		PreferenceID: preferenceID,
		CheckoutURL:  result.RedirectURL,
	}
}

func PagarmeCheckoutDataToResponse(data *provider.PagarmeCheckoutData) *types.PagarmeCheckoutDataResponse {
	if data == nil {
		return nil
	}
	methods := make([]string, len(data.PaymentMethods))
	copy(methods, data.PaymentMethods)
	return &types.PagarmeCheckoutDataResponse{
		CheckoutData: &types.PagarmeCheckoutData{
			EncryptionKey:   data.EncryptionKey,
			Amount:          data.Amount,
			PaymentMethods:  methods,
			MaxInstallments: data.MaxInstallments,
			PostbackURL:     data.PostbackURL,
			CustomerData:    data.CustomerData,
		},
	}
}

func PagarmeResultToResponse(result *provider.Result) *types.PagarmePaymentResponse {
	resp := &types.PagarmePaymentResponse{
		TransactionID: result.TransactionID,
		Status:        result.Status,
	}
	if result.Card != nil {
		resp.AuthorizationCode = result.Card.AuthorizationCode
		resp.Installments = result.Card.Installments
		resp.CardBrand = result.Card.Brand
	}
	if result.Pix != nil {
		resp.PixQRCode = result.Pix.QRCode
		resp.PixQRCodeURL = result.Pix.QRCodeURL
	}
	if result.Boleto != nil {
		resp.BoletoURL = result.Boleto.URL
		resp.BoletoBarcode = result.Boleto.Barcode
	}
	return resp
}

func CieloResultToResponse(result *provider.Result) *types.CieloPaymentResponse {
	resp := &types.CieloPaymentResponse{
		Success:       result.Success,
		Status:        result.Status,
		TransactionID: result.TransactionID,
	}
	if result.Card != nil {
		resp.ReturnCode = result.Card.ReturnCode
		resp.ReturnMessage = result.Card.ReturnMessage
		resp.AuthenticationURL = result.Card.AuthenticationURL
	}
	if result.Pix != nil {
		resp.PixQRCode = result.Pix.QRCode
		resp.PixQRCodeURL = result.Pix.QRCodeURL
	}
	return resp
}
