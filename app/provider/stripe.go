package provider

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
)

type StripeConfig struct {
	SecretKey   string
	ProductName string
	HTTPTimeout time.Duration
}

type stripeCheckoutSessions interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	Retrieve(ctx context.Context, id string, params *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error)
}

type StripeProvider struct {
	cfg      StripeConfig
	sessions stripeCheckoutSessions
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	p := &StripeProvider{cfg: cfg}
	if key := strings.TrimSpace(cfg.SecretKey); key != "" {
		backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
			HTTPClient: newHTTPClient(cfg.HTTPTimeout),
		})
		p.sessions = stripe.NewClient(key, stripe.WithBackends(backends)).V1CheckoutSessions
	}
	return p
}

func (p *StripeProvider) Code() string {
	return CodeStripe
}

func (p *StripeProvider) Supports(method string) bool {
	return slices.Contains([]string{MethodCard, MethodCreditCard}, method)
}

func (p *StripeProvider) Initiate(ctx context.Context, input *CheckoutInput) (*Result, error) {
	if err := validateAmount(input); err != nil {
		return nil, err
	}
	if p.sessions == nil {
		return nil, notConfigured("STRIPE_SECRET_KEY")
	}
	if strings.TrimSpace(input.SuccessURL) == "" || strings.TrimSpace(input.CancelURL) == "" {
		return nil, invalidInput("success and cancel urls are required")
	}

	productName := strings.TrimSpace(input.Description)
	if productName == "" {
		productName = p.cfg.ProductName
	}
	if productName == "" {
		productName = "Donation"
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(input.Currency)),
					UnitAmount: stripe.Int64(input.AmountCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(withSessionPlaceholder(input.SuccessURL)),
		CancelURL:  stripe.String(input.CancelURL),
	}
	if email := strings.TrimSpace(input.Customer.Email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if input.Reference != "" {
		params.ClientReferenceID = stripe.String(input.Reference)
		params.AddMetadata("donation_id", input.Reference)
	}
	if input.Customer.Name != "" {
		params.AddMetadata("donor_name", input.Customer.Name)
	}

	session, err := p.sessions.Create(ctx, params)
	if err != nil {
		return nil, stripeError("failed to create checkout session", err)
	}
	if session == nil || session.ID == "" || session.URL == "" {
		return nil, &Error{Provider: CodeStripe, Message: "failed to create checkout session: response without session url"}
	}

	result := newResult(CodeStripe, KindRedirect, StatusPending, session.ID)
	result.RedirectURL = session.URL
	result.Extra["session_id"] = session.ID
	return result, nil
}

func (p *StripeProvider) VerifySession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if p.sessions == nil {
		return nil, notConfigured("STRIPE_SECRET_KEY")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, invalidInput("session id is required")
	}

	session, err := p.sessions.Retrieve(ctx, sessionID, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return nil, stripeError("failed to retrieve checkout session", err)
	}

	status := &SessionStatus{
		ID:            session.ID,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		CustomerEmail: session.CustomerEmail,
	}
	if status.CustomerEmail == "" && session.CustomerDetails != nil {
		status.CustomerEmail = session.CustomerDetails.Email
	}
	return status, nil
}

// StripePaymentStatus maps a checkout session payment_status to the
// normalized outcome.
func StripePaymentStatus(paymentStatus string) string {
	switch paymentStatus {
	case "paid", "no_payment_required":
		return StatusApproved
	case "unpaid":
		return StatusPending
	default:
		return StatusProcessing
	}
}

func stripeError(message string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		details, _ := json.Marshal(se)
		return &Error{
			Provider:   CodeStripe,
			StatusCode: se.HTTPStatusCode,
			Message:    message + ": " + se.Msg,
			Details:    details,
		}
	}
	return &Error{Provider: CodeStripe, Message: message + ": " + err.Error()}
}

// Stripe substitutes the literal placeholder, so it must not be URL encoded.
func withSessionPlaceholder(successURL string) string {
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}
