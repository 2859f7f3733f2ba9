package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	payPalSandboxURL = "https://api-m.sandbox.paypal.com"
	payPalLiveURL    = "https://api-m.paypal.com"
)

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string
	BrandName    string
	HTTPTimeout  time.Duration
	// BaseURL overrides the API host picked from Mode.
	BaseURL string
}

type PayPalProvider struct {
	cfg  PayPalConfig
	http *jsonClient
}

func NewPayPalProvider(cfg PayPalConfig) *PayPalProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = payPalSandboxURL
		if strings.EqualFold(cfg.Mode, "live") || strings.EqualFold(cfg.Mode, "production") {
			baseURL = payPalLiveURL
		}
	}

	credentials := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	base := newHTTPClient(cfg.HTTPTimeout)
	client := credentials.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
	client.Timeout = base.Timeout

	return &PayPalProvider{
		cfg:  cfg,
		http: &jsonClient{provider: CodePayPal, baseURL: baseURL, client: client},
	}
}

func (p *PayPalProvider) Code() string {
	return CodePayPal
}

func (p *PayPalProvider) Supports(method string) bool {
	return slices.Contains([]string{MethodCard, MethodCreditCard, MethodDebitCard}, method)
}

func (p *PayPalProvider) configured() error {
	if strings.TrimSpace(p.cfg.ClientID) == "" {
		return notConfigured("PAYPAL_CLIENT_ID")
	}
	if strings.TrimSpace(p.cfg.ClientSecret) == "" {
		return notConfigured("PAYPAL_CLIENT_SECRET")
	}
	return nil
}

func (p *PayPalProvider) Initiate(ctx context.Context, input *CheckoutInput) (*Result, error) {
	if err := validateAmount(input); err != nil {
		return nil, err
	}
	if err := p.configured(); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = p.cfg.BrandName
	}

	order := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": input.Reference,
				"custom_id":    input.Reference,
				"description":  description,
				"amount": map[string]any{
					"currency_code": strings.ToUpper(input.Currency),
					"value":         formatDecimal(input.AmountCents),
				},
			},
		},
		"application_context": map[string]any{
			"brand_name":          p.cfg.BrandName,
			"user_action":         "PAY_NOW",
			"shipping_preference": "NO_SHIPPING",
			"return_url":          withQuery(input.SuccessURL, "status", "success"),
			"cancel_url":          withQuery(input.CancelURL, "status", "failure"),
		},
	}
	if email := strings.TrimSpace(input.Customer.Email); email != "" {
		order["payer"] = map[string]any{"email_address": email}
	}

	body, err := p.http.do(ctx, http.MethodPost, "/v2/checkout/orders", nil, order)
	if err != nil {
		return nil, err
	}

	orderID := gjson.GetBytes(body, "id").String()
	approvalURL := gjson.GetBytes(body, `links.#(rel=="approve").href`).String()
	if orderID == "" || approvalURL == "" {
		return nil, &Error{
			Provider: CodePayPal,
			Message:  "order created without an approve link",
			Details:  rawDetails(body),
		}
	}

	result := newResult(CodePayPal, KindRedirect, StatusPending, orderID)
	result.RedirectURL = approvalURL
	result.Extra["order_status"] = gjson.GetBytes(body, "status").String()
	return result, nil
}

func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, invalidInput("order id is required")
	}

	body, err := p.http.do(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", nil, struct{}{})
	if err != nil {
		return nil, err
	}

	capture := &Capture{
		OrderID:   gjson.GetBytes(body, "id").String(),
		CaptureID: gjson.GetBytes(body, "purchase_units.0.payments.captures.0.id").String(),
		Status:    gjson.GetBytes(body, "status").String(),
	}
	if capture.OrderID == "" {
		capture.OrderID = orderID
	}
	if payer := gjson.GetBytes(body, "payer"); payer.Exists() {
		capture.Payer = json.RawMessage(payer.Raw)
	}
	if units := gjson.GetBytes(body, "purchase_units"); units.Exists() {
		capture.PurchaseUnits = json.RawMessage(units.Raw)
	}
	return capture, nil
}

// PayPalCaptureStatus maps an order/capture status to the normalized outcome.
func PayPalCaptureStatus(status string) string {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return StatusApproved
	case "DECLINED", "VOIDED", "FAILED":
		return StatusDenied
	case "PENDING", "APPROVED", "CREATED", "SAVED", "PAYER_ACTION_REQUIRED":
		return StatusPending
	default:
		return StatusProcessing
	}
}
