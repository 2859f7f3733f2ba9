package provider

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vibast-solutions/ms-go-donations/app/card"
)

const pagarmeURL = "https://api.pagar.me/1"

const (
	pagarmePixTTL          = 24 * time.Hour
	pagarmeBoletoTTL       = 3 * 24 * time.Hour
	pagarmeMaxInstallments = 12
)

type PagarmeConfig struct {
	SecretKey     string
	EncryptionKey string
	PostbackURL   string
	HTTPTimeout   time.Duration
	BaseURL       string
}

type PagarmeProvider struct {
	cfg  PagarmeConfig
	http *jsonClient
	now  func() time.Time
}

// PagarmeCheckoutData feeds the client-side Pagar.me checkout widget.
type PagarmeCheckoutData struct {
	EncryptionKey   string   `json:"encryptionKey"`
	Amount          int64    `json:"amount"`
	PaymentMethods  []string `json:"paymentMethods"`
	MaxInstallments int      `json:"maxInstallments"`
	PostbackURL     string   `json:"postbackUrl,omitempty"`
	CustomerData    bool     `json:"customerData"`
}

func NewPagarmeProvider(cfg PagarmeConfig) *PagarmeProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = pagarmeURL
	}
	return &PagarmeProvider{
		cfg:  cfg,
		http: &jsonClient{provider: CodePagarme, baseURL: baseURL, client: newHTTPClient(cfg.HTTPTimeout)},
		now:  time.Now,
	}
}

func (p *PagarmeProvider) Code() string {
	return CodePagarme
}

func (p *PagarmeProvider) Supports(method string) bool {
	return slices.Contains([]string{MethodCreditCard, MethodCard, MethodPix, MethodBoleto}, method)
}

func (p *PagarmeProvider) EncryptionKey() (string, error) {
	key := strings.TrimSpace(p.cfg.EncryptionKey)
	if key == "" {
		return "", notConfigured("PAGARME_ENCRYPTION_KEY")
	}
	return key, nil
}

func (p *PagarmeProvider) CheckoutData(amountCents int64, method string) (*PagarmeCheckoutData, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	key, err := p.EncryptionKey()
	if err != nil {
		return nil, err
	}

	methods := []string{MethodCreditCard, MethodPix, MethodBoleto}
	if method != "" {
		if !p.Supports(method) {
			return nil, ErrMethodNotSupported
		}
		methods = []string{normalizePagarmeMethod(method)}
	}

	return &PagarmeCheckoutData{
		EncryptionKey:   key,
		Amount:          amountCents,
		PaymentMethods:  methods,
		MaxInstallments: pagarmeMaxInstallments,
		PostbackURL:     p.cfg.PostbackURL,
		CustomerData:    false,
	}, nil
}

func (p *PagarmeProvider) Initiate(ctx context.Context, input *CheckoutInput) (*Result, error) {
	if err := validateAmount(input); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(p.cfg.SecretKey)
	if apiKey == "" {
		return nil, notConfigured("PAGARME_SECRET_KEY")
	}
	if !p.Supports(input.Method) {
		return nil, ErrMethodNotSupported
	}
	method := normalizePagarmeMethod(input.Method)

	transaction := map[string]any{
		"api_key":        apiKey,
		"amount":         input.AmountCents,
		"payment_method": method,
		"async":          false,
		"customer":       pagarmeCustomer(input),
		"metadata":       map[string]string{"donation_id": input.Reference},
	}
	if p.cfg.PostbackURL != "" {
		transaction["postback_url"] = p.cfg.PostbackURL
	}

	now := p.now()
	switch method {
	case MethodCreditCard:
		installments, err := validatePagarmeCard(input.Card, now)
		if err != nil {
			return nil, err
		}
		expiry, _ := card.ParseExpiry(input.Card.Expiry)
		transaction["card_number"] = card.Digits(input.Card.Number)
		transaction["card_holder_name"] = strings.TrimSpace(input.Card.Holder)
		transaction["card_expiration_date"] = expiry.MMYY()
		transaction["card_cvv"] = strings.TrimSpace(input.Card.CVV)
		transaction["installments"] = installments
	case MethodPix:
		transaction["pix_expiration_date"] = now.Add(pagarmePixTTL).UTC().Format(time.RFC3339)
	case MethodBoleto:
		transaction["boleto_expiration_date"] = now.Add(pagarmeBoletoTTL).Format("2006-01-02")
	}

	body, err := p.http.do(ctx, http.MethodPost, "/transactions", nil, transaction)
	if err != nil {
		return nil, err
	}

	transactionID := gjson.GetBytes(body, "id").String()
	if transactionID == "" {
		return nil, &Error{Provider: CodePagarme, Message: "transaction created without an id", Details: rawDetails(body)}
	}
	status := PagarmeStatus(gjson.GetBytes(body, "status").String())

	switch method {
	case MethodPix:
		qr := gjson.GetBytes(body, "pix_qr_code").String()
		if qr == "" {
			return nil, &Error{Provider: CodePagarme, Message: "pix transaction created without pix_qr_code", Details: rawDetails(body)}
		}
		image, err := qrCodeDataURL(qr)
		if err != nil {
			return nil, err
		}
		result := newResult(CodePagarme, KindInteractive, status, transactionID)
		result.Pix = &PixPayload{QRCode: qr, QRCodeURL: image, ExpiresAt: parseTime(gjson.GetBytes(body, "pix_expiration_date").String(), now.Add(pagarmePixTTL))}
		return result, nil
	case MethodBoleto:
		boletoURL := gjson.GetBytes(body, "boleto_url").String()
		if boletoURL == "" {
			return nil, &Error{Provider: CodePagarme, Message: "boleto transaction created without boleto_url", Details: rawDetails(body)}
		}
		result := newResult(CodePagarme, KindInteractive, status, transactionID)
		result.Boleto = &BoletoPayload{
			URL:       boletoURL,
			Barcode:   gjson.GetBytes(body, "boleto_barcode").String(),
			ExpiresAt: parseTime(gjson.GetBytes(body, "boleto_expiration_date").String(), now.Add(pagarmeBoletoTTL)),
		}
		return result, nil
	default:
		result := newResult(CodePagarme, KindImmediate, status, transactionID)
		result.Card = &CardPayload{
			AuthorizationCode: gjson.GetBytes(body, "authorization_code").String(),
			ReturnCode:        gjson.GetBytes(body, "acquirer_response_code").String(),
			ReturnMessage:     gjson.GetBytes(body, "status_reason").String(),
			Installments:      int(gjson.GetBytes(body, "installments").Int()),
			Brand:             gjson.GetBytes(body, "card_brand").String(),
		}
		return result, nil
	}
}

// PagarmeStatus maps a transaction status to the normalized outcome.
func PagarmeStatus(status string) string {
	switch status {
	case "paid", "authorized":
		return StatusApproved
	case "refused":
		return StatusDenied
	case "waiting_payment":
		return StatusPending
	default:
		return StatusProcessing
	}
}

func normalizePagarmeMethod(method string) string {
	if method == MethodCard {
		return MethodCreditCard
	}
	return method
}

func pagarmeCustomer(input *CheckoutInput) map[string]any {
	customer := map[string]any{
		"external_id": input.Customer.Email,
		"name":        input.Customer.Name,
		"email":       input.Customer.Email,
		"type":        "individual",
		"country":     "br",
	}
	if doc := card.Digits(input.Customer.Document); doc != "" {
		customer["documents"] = []map[string]string{{"type": "cpf", "number": doc}}
	}
	if phone := card.Digits(input.Customer.Phone); phone != "" {
		if !strings.HasPrefix(phone, "55") {
			phone = "55" + phone
		}
		customer["phone_numbers"] = []string{"+" + phone}
	}
	return customer
}

// Card fields are checked for presence and format only. No checksum is run
// on this path.
func validatePagarmeCard(in *CardInput, now time.Time) (int, error) {
	if in == nil {
		return 0, invalidInput("card data is required for credit card payments")
	}
	if !card.ValidNumberLength(in.Number) {
		return 0, invalidInput("card number must have between 13 and 19 digits")
	}
	if strings.TrimSpace(in.Holder) == "" {
		return 0, invalidInput("card holder name is required")
	}
	expiry, err := card.ParseExpiry(in.Expiry)
	if err != nil {
		return 0, invalidInput("card expiration date is invalid")
	}
	if expiry.Expired(now) {
		return 0, invalidInput("card is expired")
	}
	if !card.ValidCVV(in.CVV) {
		return 0, invalidInput("card cvv is invalid")
	}

	installments := in.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > pagarmeMaxInstallments {
		return 0, invalidInput("installments must be between 1 and %d", pagarmeMaxInstallments)
	}
	return installments, nil
}

func parseTime(value string, fallback time.Time) *time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return &fallback
}
