package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/config"
)

const (
	defaultListLimit      = int32(100)
	defaultBatchSize      = int32(100)
	defaultReceiptTimeout = 5 * time.Second
)

const (
	eventDonationCreated   = "donation_created"
	eventDonationConfirmed = "donation_confirmed"
	eventDonationApproved  = "donation_approved"
	eventDonationRejected  = "donation_rejected"
	eventDonationReturned  = "donation_returned"
	eventDonationCaptured  = "donation_captured"
	eventProviderOutcome   = "provider_outcome"
)

type donationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	UpdateStatus(ctx context.Context, donation *entity.Donation, fromStatus string) error
	FindByID(ctx context.Context, id string) (*entity.Donation, error)
	FindByTransactionID(ctx context.Context, provider, transactionID string) (*entity.Donation, error)
	List(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error)
}

type donationEventRepository interface {
	Create(ctx context.Context, event *entity.DonationEvent) error
	ListByDonation(ctx context.Context, donationID string) ([]*entity.DonationEvent, error)
}

type receiptSender interface {
	SendReceipt(ctx context.Context, donation *entity.Donation) error
}

type DonationService struct {
	donationRepo donationRepository
	eventRepo    donationEventRepository
	providerReg  *provider.Registry
	receipts     receiptSender
	siteCfg      config.SiteConfig
	donationsCfg config.DonationsConfig
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewDonationService(
	donationRepo donationRepository,
	eventRepo donationEventRepository,
	providerReg *provider.Registry,
	receipts receiptSender,
	siteCfg config.SiteConfig,
	donationsCfg config.DonationsConfig,
) *DonationService {
	if strings.TrimSpace(donationsCfg.DefaultCurrency) == "" {
		donationsCfg.DefaultCurrency = "BRL"
	}

	return &DonationService{
		donationRepo: donationRepo,
		eventRepo:    eventRepo,
		providerReg:  providerReg,
		receipts:     receipts,
		siteCfg:      siteCfg,
		donationsCfg: donationsCfg,
		logger:       factory.NewModuleLogger("donations-service"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type ListDonationsFilter struct {
	Status     string
	Provider   string
	DonorEmail string
	Limit      int32
	Offset     int32
}

func (s *DonationService) GetDonation(ctx context.Context, id string) (*entity.Donation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidRequest
	}

	donation, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

func (s *DonationService) GetDonationEvents(ctx context.Context, id string) ([]*entity.DonationEvent, error) {
	if _, err := s.GetDonation(ctx, id); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByDonation(ctx, strings.TrimSpace(id))
}

func (s *DonationService) ListDonations(ctx context.Context, filter ListDonationsFilter) ([]*entity.Donation, error) {
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	switch status {
	case "", entity.DonationStatusPending, entity.DonationStatusCompleted, entity.DonationStatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = s.donationsCfg.ListLimit
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	return s.donationRepo.List(ctx, repository.DonationFilter{
		Status:     status,
		Provider:   strings.ToLower(strings.TrimSpace(filter.Provider)),
		DonorEmail: strings.ToLower(strings.TrimSpace(filter.DonorEmail)),
		Limit:      limit,
		Offset:     offset,
	})
}

// ConfirmDonation records the donor's own "I already paid" statement. It is
// not verified against the provider.
func (s *DonationService) ConfirmDonation(ctx context.Context, id string) (*entity.Donation, error) {
	donation, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, donation, transition{
		status:    entity.DonationStatusCompleted,
		eventType: eventDonationConfirmed,
		actor:     entity.EventActorDonor,
	})
}

// ApplyReturnStatus handles the status query parameter a hosted checkout
// appends when it sends the donor back to the site.
func (s *DonationService) ApplyReturnStatus(ctx context.Context, id, rawStatus string) (*entity.Donation, error) {
	status, err := provider.ParseReturnStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown return status %q", ErrInvalidRequest, rawStatus)
	}

	donation, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}

	target := ledgerStatus(status)
	if target == entity.DonationStatusPending {
		return donation, nil
	}

	return s.transition(ctx, donation, transition{
		status:    target,
		eventType: eventDonationReturned,
		actor:     entity.EventActorDonor,
		payload:   map[string]any{"return_status": strings.ToLower(strings.TrimSpace(rawStatus))},
	})
}

func (s *DonationService) ApproveDonation(ctx context.Context, id, note string) (*entity.Donation, error) {
	donation, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, donation, transition{
		status:    entity.DonationStatusCompleted,
		eventType: eventDonationApproved,
		actor:     entity.EventActorAdmin,
		payload:   notePayload(note),
	})
}

func (s *DonationService) RejectDonation(ctx context.Context, id, reason string) (*entity.Donation, error) {
	donation, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, donation, transition{
		status:    entity.DonationStatusFailed,
		eventType: eventDonationRejected,
		actor:     entity.EventActorAdmin,
		payload:   notePayload(reason),
	})
}

type transition struct {
	status        string
	transactionID string
	eventType     string
	actor         string
	payload       map[string]any
}

// transition moves a pending donation to a terminal status. Repeating the
// transition a donation already went through is a no-op; any other change
// to a terminal donation is rejected.
func (s *DonationService) transition(ctx context.Context, donation *entity.Donation, t transition) (*entity.Donation, error) {
	if donation.Status == t.status {
		return donation, nil
	}
	if donation.Status != entity.DonationStatusPending {
		return nil, fmt.Errorf("%w: donation is already %s", ErrInvalidStatus, donation.Status)
	}

	now := s.now()
	oldStatus := donation.Status
	updated := *donation
	updated.Status = t.status
	if txID := strings.TrimSpace(t.transactionID); txID != "" {
		updated.TransactionID = &txID
	}
	updated.UpdatedAt = now

	if err := s.donationRepo.UpdateStatus(ctx, &updated, oldStatus); err != nil {
		switch {
		case errors.Is(err, repository.ErrDonationNotFound):
			return nil, ErrDonationNotFound
		case errors.Is(err, repository.ErrDonationStatusChanged):
			return nil, fmt.Errorf("%w: donation changed concurrently", ErrInvalidStatus)
		default:
			return nil, err
		}
	}

	s.recordEvent(ctx, &updated, t.eventType, t.actor, &oldStatus, t.payload, now)

	if updated.Status == entity.DonationStatusCompleted {
		s.sendReceipt(ctx, &updated)
	}

	return &updated, nil
}

func (s *DonationService) recordEvent(ctx context.Context, donation *entity.Donation, eventType, actor string, oldStatus *string, payload map[string]any, now time.Time) {
	var payloadJSON *string
	if len(payload) > 0 {
		if raw, err := json.Marshal(payload); err == nil {
			encoded := string(raw)
			payloadJSON = &encoded
		}
	}

	_ = s.eventRepo.Create(ctx, &entity.DonationEvent{
		ID:          uuid.NewString(),
		DonationID:  donation.ID,
		EventType:   eventType,
		Actor:       actor,
		OldStatus:   oldStatus,
		NewStatus:   donation.Status,
		PayloadJSON: payloadJSON,
		CreatedAt:   now,
	})
}

func (s *DonationService) sendReceipt(ctx context.Context, donation *entity.Donation) {
	if s.receipts == nil {
		return
	}

	timeout := s.donationsCfg.ReceiptTimeout
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.receipts.SendReceipt(ctx, donation); err != nil {
		s.logger.WithError(err).WithField("donation_id", donation.ID).Warn("Failed to send donation receipt")
	}
}

// ledgerStatus maps a normalized provider status onto the ledger's three
// states. Processing is treated as still pending.
func ledgerStatus(providerStatus string) string {
	switch providerStatus {
	case provider.StatusApproved:
		return entity.DonationStatusCompleted
	case provider.StatusDenied:
		return entity.DonationStatusFailed
	default:
		return entity.DonationStatusPending
	}
}

func notePayload(note string) map[string]any {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return map[string]any{"note": note}
}

func normalizeOptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
