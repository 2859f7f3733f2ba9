package provider

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/vibast-solutions/ms-go-donations/app/card"
)

const (
	cieloSandboxURL = "https://apisandbox.cieloecommerce.cielo.com.br"
	cieloLiveURL    = "https://api.cieloecommerce.cielo.com.br"
)

type CieloConfig struct {
	MerchantID     string
	MerchantKey    string
	Sandbox        bool
	SoftDescriptor string
	HTTPTimeout    time.Duration
	BaseURL        string
}

type CieloProvider struct {
	cfg  CieloConfig
	http *jsonClient
	now  func() time.Time
}

func NewCieloProvider(cfg CieloConfig) *CieloProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = cieloLiveURL
		if cfg.Sandbox {
			baseURL = cieloSandboxURL
		}
	}
	return &CieloProvider{
		cfg:  cfg,
		http: &jsonClient{provider: CodeCielo, baseURL: baseURL, client: newHTTPClient(cfg.HTTPTimeout)},
		now:  time.Now,
	}
}

func (p *CieloProvider) Code() string {
	return CodeCielo
}

func (p *CieloProvider) Supports(method string) bool {
	return slices.Contains([]string{MethodPix, MethodCreditCard, MethodDebitCard, MethodCard}, method)
}

func (p *CieloProvider) Initiate(ctx context.Context, input *CheckoutInput) (*Result, error) {
	if err := validateAmount(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.cfg.MerchantID) == "" {
		return nil, notConfigured("CIELO_MERCHANT_ID")
	}
	if strings.TrimSpace(p.cfg.MerchantKey) == "" {
		return nil, notConfigured("CIELO_MERCHANT_KEY")
	}
	if !p.Supports(input.Method) {
		return nil, ErrMethodNotSupported
	}
	method := input.Method
	if method == MethodCard {
		method = MethodCreditCard
	}

	payment := map[string]any{
		"Amount": input.AmountCents,
	}
	if descriptor := statementDescriptor(p.cfg.SoftDescriptor, cieloSoftDescriptorMax); descriptor != "" && method != MethodPix {
		payment["SoftDescriptor"] = descriptor
	}

	switch method {
	case MethodPix:
		payment["Type"] = "Pix"
	case MethodCreditCard, MethodDebitCard:
		cardData, installments, err := p.cardPayload(input.Card)
		if err != nil {
			return nil, err
		}
		payment["Capture"] = true
		if method == MethodCreditCard {
			payment["Type"] = "CreditCard"
			payment["Installments"] = installments
			payment["CreditCard"] = cardData
		} else {
			payment["Type"] = "DebitCard"
			payment["Installments"] = 1
			payment["Authenticate"] = true
			payment["ReturnUrl"] = input.SuccessURL
			payment["DebitCard"] = cardData
		}
	}

	sale := map[string]any{
		"MerchantOrderId": merchantOrderID(input.Reference),
		"Customer": map[string]any{
			"Name":         input.Customer.Name,
			"Email":        input.Customer.Email,
			"Identity":     card.Digits(input.Customer.Document),
			"IdentityType": "CPF",
		},
		"Payment": payment,
	}

	body, err := p.http.do(ctx, http.MethodPost, "/1/sales/", map[string]string{
		"MerchantId":  p.cfg.MerchantID,
		"MerchantKey": p.cfg.MerchantKey,
		"RequestId":   uuid.NewString(),
	}, sale)
	if err != nil {
		return nil, err
	}

	paymentID := gjson.GetBytes(body, "Payment.PaymentId").String()
	if paymentID == "" {
		return nil, &Error{Provider: CodeCielo, Message: "sale created without a payment id", Details: rawDetails(body)}
	}
	status := CieloStatus(int(gjson.GetBytes(body, "Payment.Status").Int()))

	if method == MethodPix {
		qr := gjson.GetBytes(body, "Payment.QrCodeString").String()
		if qr == "" {
			return nil, &Error{Provider: CodeCielo, Message: "pix sale created without QrCodeString", Details: rawDetails(body)}
		}
		image := base64ImageDataURL(gjson.GetBytes(body, "Payment.QrCodeBase64Image").String())
		if image == "" {
			if image, err = qrCodeDataURL(qr); err != nil {
				return nil, err
			}
		}
		result := newResult(CodeCielo, KindInteractive, status, paymentID)
		result.Pix = &PixPayload{QRCode: qr, QRCodeURL: image}
		return result, nil
	}

	payload := &CardPayload{
		AuthorizationCode: gjson.GetBytes(body, "Payment.AuthorizationCode").String(),
		ReturnCode:        gjson.GetBytes(body, "Payment.ReturnCode").String(),
		ReturnMessage:     gjson.GetBytes(body, "Payment.ReturnMessage").String(),
		AuthenticationURL: gjson.GetBytes(body, "Payment.AuthenticationUrl").String(),
		Installments:      int(gjson.GetBytes(body, "Payment.Installments").Int()),
		Brand:             card.DetectBrand(input.Card.Number),
	}

	kind := KindImmediate
	if payload.AuthenticationURL != "" {
		kind = KindRedirect
	}
	result := newResult(CodeCielo, kind, status, paymentID)
	result.Card = payload
	result.RedirectURL = payload.AuthenticationURL
	if tid := gjson.GetBytes(body, "Payment.Tid").String(); tid != "" {
		result.Extra["tid"] = tid
	}
	return result, nil
}

func (p *CieloProvider) cardPayload(in *CardInput) (map[string]any, int, error) {
	if in == nil {
		return nil, 0, invalidInput("card data is required for card payments")
	}
	number := card.Digits(in.Number)
	if !card.ValidNumberLength(number) || !card.Luhn(number) {
		return nil, 0, invalidInput("%s", card.ErrInvalidNumber.Error())
	}
	if strings.TrimSpace(in.Holder) == "" {
		return nil, 0, invalidInput("card holder name is required")
	}
	expiry, err := card.ParseExpiry(in.Expiry)
	if err != nil || expiry.Expired(p.now()) {
		return nil, 0, invalidInput("%s", card.ErrInvalidExpiry.Error())
	}
	if !card.ValidCVV(in.CVV) {
		return nil, 0, invalidInput("card cvv is invalid")
	}

	installments := in.Installments
	if installments <= 0 {
		installments = 1
	}

	return map[string]any{
		"CardNumber":     number,
		"Holder":         strings.TrimSpace(in.Holder),
		"ExpirationDate": expiry.MMYYYY(),
		"SecurityCode":   strings.TrimSpace(in.CVV),
		"Brand":          card.DetectBrand(number),
	}, installments, nil
}

// CieloStatus maps the numeric sale status to the normalized outcome.
func CieloStatus(code int) string {
	switch code {
	case 1, 2:
		return StatusApproved
	case 3, 13:
		return StatusDenied
	case 12:
		return StatusPending
	default:
		return StatusProcessing
	}
}

// Cielo limits MerchantOrderId to 50 alphanumeric characters.
func merchantOrderID(reference string) string {
	id := strings.ReplaceAll(reference, "-", "")
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if len(id) > 50 {
		id = id[:50]
	}
	return id
}
