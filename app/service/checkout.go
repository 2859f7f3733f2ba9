package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/card"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

const cpfLength = 11

// DonationIntent is what the donor submitted on the donation form. It only
// becomes a ledger row once the provider has accepted it. DonorDocument is the
// CPF, required for every provider except PayPal, Stripe included.
type DonationIntent struct {
	AmountCents int64
	Currency    string

	DonorName     string
	DonorEmail    string
	DonorPhone    string
	DonorDocument string
	Message       string

	Provider string
	Method   string
	Card     *provider.CardInput

	SuccessURL string
	CancelURL  string
}

type Checkout struct {
	Kind     string
	Donation *entity.Donation
	Result   *provider.Result
}

// Initiate validates the intent, dispatches it to the selected provider and
// records the donation. Nothing is written when the provider call fails.
func (s *DonationService) Initiate(ctx context.Context, intent DonationIntent) (*Checkout, error) {
	if intent.AmountCents <= 0 {
		return nil, provider.ErrInvalidAmount
	}

	providerCode := strings.ToLower(strings.TrimSpace(intent.Provider))
	email, document, err := validateCustomer(providerCode, intent.DonorEmail, intent.DonorDocument)
	if err != nil {
		return nil, err
	}

	providerClient, err := s.lookupProvider(providerCode)
	if err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(intent.Method))
	if method == "" {
		method = defaultMethod(providerCode)
	}
	if !providerClient.Supports(method) {
		return nil, fmt.Errorf("%w: %s does not accept %s", provider.ErrMethodNotSupported, providerCode, method)
	}

	donationID := uuid.NewString()
	currency := strings.ToUpper(strings.TrimSpace(intent.Currency))
	if currency == "" {
		currency = s.donationsCfg.DefaultCurrency
	}
	donorName := strings.TrimSpace(intent.DonorName)

	result, err := providerClient.Initiate(ctx, &provider.CheckoutInput{
		Reference:   donationID,
		AmountCents: intent.AmountCents,
		Currency:    currency,
		Method:      method,
		Customer: provider.Customer{
			Name:     donorName,
			Email:    email,
			Phone:    strings.TrimSpace(intent.DonorPhone),
			Document: document,
		},
		Card:       intent.Card,
		SuccessURL: s.returnURL(intent.SuccessURL, s.siteCfg.SuccessURL, donationID),
		CancelURL:  s.returnURL(intent.CancelURL, s.siteCfg.CancelURL, donationID),
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	donation := &entity.Donation{
		ID:            donationID,
		DonorName:     donorName,
		DonorEmail:    email,
		DonorPhone:    normalizeOptionalString(intent.DonorPhone),
		AmountCents:   intent.AmountCents,
		Currency:      currency,
		PaymentMethod: ledgerMethod(providerCode, method),
		Provider:      providerCode,
		Status:        entity.DonationStatusPending,
		TransactionID: normalizeOptionalString(result.TransactionID),
		Message:       normalizeOptionalString(intent.Message),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		if errors.Is(err, repository.ErrDonationAlreadyExists) {
			return nil, fmt.Errorf("%w: donation %s already recorded", ErrInvalidStatus, donationID)
		}
		return nil, err
	}

	s.recordEvent(ctx, donation, eventDonationCreated, entity.EventActorDonor, nil, map[string]any{
		"kind":   result.Kind,
		"method": method,
	}, now)

	if result.Kind == provider.KindImmediate {
		if target := ledgerStatus(result.Status); target != entity.DonationStatusPending {
			updated, err := s.transition(ctx, donation, transition{
				status:    target,
				eventType: eventProviderOutcome,
				actor:     entity.EventActorProvider,
				payload:   map[string]any{"provider_status": result.Status},
			})
			if err != nil {
				return nil, err
			}
			donation = updated
		}
	}

	return &Checkout{Kind: result.Kind, Donation: donation, Result: result}, nil
}

func (s *DonationService) returnURL(requested, fallback, donationID string) string {
	target := strings.TrimSpace(requested)
	if target == "" {
		target = fallback
	}
	if target == "" {
		return ""
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("donation_id", donationID)
	u.RawQuery = q.Encode()
	return u.String()
}

func defaultMethod(providerCode string) string {
	switch providerCode {
	case provider.CodePagarme, provider.CodeCielo:
		return provider.MethodPix
	default:
		return provider.MethodCard
	}
}

// ledgerMethod collapses provider-specific methods into the four the ledger
// stores.
func ledgerMethod(providerCode, method string) string {
	switch {
	case method == provider.MethodPix:
		return entity.PaymentMethodPix
	case method == provider.MethodBoleto:
		return entity.PaymentMethodBoleto
	case providerCode == provider.CodePayPal:
		return entity.PaymentMethodPayPal
	default:
		return entity.PaymentMethodCard
	}
}

// validateCustomer holds the donor checks shared by every checkout path: an
// email is always required and every provider except PayPal needs an
// 11-digit CPF. It returns the normalized email and the CPF digits.
func validateCustomer(providerCode, email, document string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", "", fmt.Errorf("%w: donor email is required", ErrInvalidRequest)
	}
	document = card.Digits(document)
	if providerCode != provider.CodePayPal && len(document) != cpfLength {
		return "", "", fmt.Errorf("%w: donor cpf must have %d digits", ErrInvalidRequest, cpfLength)
	}
	return email, document, nil
}
