package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
)

type pagarmeCheckoutConfigurer interface {
	EncryptionKey() (string, error)
	CheckoutData(amountCents int64, method string) (*provider.PagarmeCheckoutData, error)
}

type StripeVerification struct {
	Session  *provider.SessionStatus
	Donation *entity.Donation
}

type PayPalCapture struct {
	Capture  *provider.Capture
	Donation *entity.Donation
}

// InitiateWithProvider calls a single adapter directly without touching the
// ledger. It backs the per-provider endpoints a client can use to drive the
// checkout and record the donation on its own.
func (s *DonationService) InitiateWithProvider(ctx context.Context, providerCode string, input *provider.CheckoutInput) (*provider.Result, error) {
	if input == nil {
		return nil, ErrInvalidRequest
	}
	if input.AmountCents <= 0 {
		return nil, provider.ErrInvalidAmount
	}

	providerClient, err := s.lookupProvider(providerCode)
	if err != nil {
		return nil, err
	}

	in := *input
	in.Customer.Email, in.Customer.Document, err = validateCustomer(providerClient.Code(), in.Customer.Email, in.Customer.Document)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Reference) == "" {
		in.Reference = uuid.NewString()
	}
	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = s.donationsCfg.DefaultCurrency
	}
	if strings.TrimSpace(in.SuccessURL) == "" {
		in.SuccessURL = s.siteCfg.SuccessURL
	}
	if strings.TrimSpace(in.CancelURL) == "" {
		in.CancelURL = s.siteCfg.CancelURL
	}
	if strings.TrimSpace(in.Method) == "" {
		in.Method = defaultMethod(providerClient.Code())
	}

	return providerClient.Initiate(ctx, &in)
}

// VerifyStripeSession reports the state of a Checkout Session. When the
// session belongs to a pending donation and Stripe reports it paid, the
// donation is completed.
func (s *DonationService) VerifyStripeSession(ctx context.Context, sessionID string) (*StripeVerification, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidRequest)
	}

	providerClient, err := s.lookupProvider(provider.CodeStripe)
	if err != nil {
		return nil, err
	}
	verifier, ok := providerClient.(provider.SessionVerifier)
	if !ok {
		return nil, ErrCapabilityMissing
	}

	session, err := verifier.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	donation, err := s.donationRepo.FindByTransactionID(ctx, provider.CodeStripe, sessionID)
	if err != nil {
		return nil, err
	}
	if donation != nil && provider.StripePaymentStatus(session.PaymentStatus) == provider.StatusApproved {
		updated, err := s.transition(ctx, donation, transition{
			status:    entity.DonationStatusCompleted,
			eventType: eventProviderOutcome,
			actor:     entity.EventActorProvider,
			payload:   map[string]any{"payment_status": session.PaymentStatus},
		})
		switch {
		case err == nil:
			donation = updated
		case !errors.Is(err, ErrInvalidStatus):
			return nil, err
		}
	}

	return &StripeVerification{Session: session, Donation: donation}, nil
}

// CapturePayPalOrder captures an approved order and settles the donation
// recorded for it, if any.
func (s *DonationService) CapturePayPalOrder(ctx context.Context, orderID string) (*PayPalCapture, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidRequest)
	}

	providerClient, err := s.lookupProvider(provider.CodePayPal)
	if err != nil {
		return nil, err
	}
	capturer, ok := providerClient.(provider.OrderCapturer)
	if !ok {
		return nil, ErrCapabilityMissing
	}

	capture, err := capturer.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	donation, err := s.donationRepo.FindByTransactionID(ctx, provider.CodePayPal, orderID)
	if err != nil {
		return nil, err
	}
	if donation != nil {
		if target := ledgerStatus(provider.PayPalCaptureStatus(capture.Status)); target != entity.DonationStatusPending {
			updated, err := s.transition(ctx, donation, transition{
				status:    target,
				eventType: eventDonationCaptured,
				actor:     entity.EventActorProvider,
				payload: map[string]any{
					"capture_id":     capture.CaptureID,
					"capture_status": capture.Status,
				},
			})
			switch {
			case err == nil:
				donation = updated
			case !errors.Is(err, ErrInvalidStatus):
				return nil, err
			}
		}
	}

	return &PayPalCapture{Capture: capture, Donation: donation}, nil
}

func (s *DonationService) PagarmeEncryptionKey() (string, error) {
	configurer, err := s.pagarmeConfigurer()
	if err != nil {
		return "", err
	}
	return configurer.EncryptionKey()
}

func (s *DonationService) PagarmeCheckoutData(amountCents int64, method string) (*provider.PagarmeCheckoutData, error) {
	configurer, err := s.pagarmeConfigurer()
	if err != nil {
		return nil, err
	}
	return configurer.CheckoutData(amountCents, strings.ToLower(strings.TrimSpace(method)))
}

func (s *DonationService) ProviderCodes() []string {
	return s.providerReg.Codes()
}

func (s *DonationService) pagarmeConfigurer() (pagarmeCheckoutConfigurer, error) {
	providerClient, err := s.lookupProvider(provider.CodePagarme)
	if err != nil {
		return nil, err
	}
	configurer, ok := providerClient.(pagarmeCheckoutConfigurer)
	if !ok {
		return nil, ErrCapabilityMissing
	}
	return configurer, nil
}

func (s *DonationService) lookupProvider(code string) (provider.Provider, error) {
	providerClient, err := s.providerReg.Get(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}
	return providerClient, nil
}
