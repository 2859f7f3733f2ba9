package provider

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const mercadoPagoURL = "https://api.mercadopago.com"

const mercadoPagoMaxInstallments = 12

type MercadoPagoConfig struct {
	AccessToken         string
	StatementDescriptor string
	HTTPTimeout         time.Duration
	BaseURL             string
}

type MercadoPagoProvider struct {
	cfg  MercadoPagoConfig
	http *jsonClient
}

func NewMercadoPagoProvider(cfg MercadoPagoConfig) *MercadoPagoProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = mercadoPagoURL
	}
	return &MercadoPagoProvider{
		cfg:  cfg,
		http: &jsonClient{provider: CodeMercadoPago, baseURL: baseURL, client: newHTTPClient(cfg.HTTPTimeout)},
	}
}

func (p *MercadoPagoProvider) Code() string {
	return CodeMercadoPago
}

func (p *MercadoPagoProvider) Supports(method string) bool {
	return slices.Contains([]string{MethodCard, MethodCreditCard, MethodDebitCard, MethodPix, MethodBoleto}, method)
}

// Sandbox reports whether the configured token is a test credential.
func (p *MercadoPagoProvider) Sandbox() bool {
	return strings.Contains(p.cfg.AccessToken, "TEST")
}

func (p *MercadoPagoProvider) Initiate(ctx context.Context, input *CheckoutInput) (*Result, error) {
	if err := validateAmount(input); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(p.cfg.AccessToken)
	if token == "" {
		return nil, notConfigured("MERCADOPAGO_ACCESS_TOKEN")
	}

	title := strings.TrimSpace(input.Description)
	if title == "" {
		title = "Donation"
	}

	payer := map[string]any{
		"name":  input.Customer.Name,
		"email": input.Customer.Email,
	}
	if phone := strings.TrimSpace(input.Customer.Phone); phone != "" {
		payer["phone"] = map[string]any{"number": phone}
	}
	if doc := strings.TrimSpace(input.Customer.Document); doc != "" {
		payer["identification"] = map[string]any{"type": "CPF", "number": doc}
	}

	preference := map[string]any{
		"items": []map[string]any{
			{
				"id":          input.Reference,
				"title":       title,
				"quantity":    1,
				"currency_id": strings.ToUpper(input.Currency),
				"unit_price":  float64(input.AmountCents) / 100,
			},
		},
		"payer": payer,
		"back_urls": map[string]string{
			"success": withQuery(input.SuccessURL, "status", "success"),
			"failure": withQuery(input.CancelURL, "status", "failure"),
			"pending": withQuery(input.SuccessURL, "status", "pending"),
		},
		"auto_return":        "approved",
		"external_reference": input.Reference,
		"payment_methods": map[string]any{
			"installments": mercadoPagoMaxInstallments,
		},
	}
	if descriptor := statementDescriptor(p.cfg.StatementDescriptor, mercadoPagoDescriptorMax); descriptor != "" {
		preference["statement_descriptor"] = descriptor
	}

	body, err := p.http.do(ctx, http.MethodPost, "/checkout/preferences", map[string]string{
		"Authorization": "Bearer " + token,
	}, preference)
	if err != nil {
		return nil, err
	}

	preferenceID := gjson.GetBytes(body, "id").String()
	checkoutURL := gjson.GetBytes(body, "init_point").String()
	if p.Sandbox() {
		checkoutURL = gjson.GetBytes(body, "sandbox_init_point").String()
	}
	if preferenceID == "" || checkoutURL == "" {
		return nil, &Error{
			Provider: CodeMercadoPago,
			Message:  "preference created without a checkout url",
			Details:  rawDetails(body),
		}
	}

	result := newResult(CodeMercadoPago, KindRedirect, StatusPending, preferenceID)
	result.RedirectURL = checkoutURL
	result.Extra["preference_id"] = preferenceID
	return result, nil
}

// ParseReturnStatus maps the status query parameter a hosted checkout appends
// when it sends the donor back to the site.
func ParseReturnStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "approved":
		return StatusApproved, nil
	case "failure", "rejected", "cancelled", "canceled":
		return StatusDenied, nil
	case "pending", "in_process":
		return StatusPending, nil
	default:
		return "", invalidInput("unknown return status %q", raw)
	}
}
