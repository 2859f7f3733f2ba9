package service

import (
	"context"
	"sort"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

type StaleProviderSummary struct {
	Provider    string
	Count       int
	AmountCents int64
}

// StaleReport lists donations that have been pending longer than the
// configured threshold. Producing it never changes a donation's status.
type StaleReport struct {
	GeneratedAt time.Time
	Cutoff      time.Time
	Donations   []*entity.Donation
	ByProvider  []StaleProviderSummary
}

func (s *DonationService) StalePendingReport(ctx context.Context) (*StaleReport, error) {
	now := s.now()
	staleAfter := s.donationsCfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 72 * time.Hour
	}
	cutoff := now.Add(-staleAfter)

	items, err := s.donationRepo.ListStalePending(ctx, cutoff, s.batchSize())
	if err != nil {
		return nil, err
	}

	totals := map[string]*StaleProviderSummary{}
	for _, donation := range items {
		if donation == nil {
			continue
		}
		summary, ok := totals[donation.Provider]
		if !ok {
			summary = &StaleProviderSummary{Provider: donation.Provider}
			totals[donation.Provider] = summary
		}
		summary.Count++
		summary.AmountCents += donation.AmountCents
	}

	byProvider := make([]StaleProviderSummary, 0, len(totals))
	for _, summary := range totals {
		byProvider = append(byProvider, *summary)
	}
	sort.Slice(byProvider, func(i, j int) bool {
		return byProvider[i].Provider < byProvider[j].Provider
	})

	return &StaleReport{
		GeneratedAt: now,
		Cutoff:      cutoff,
		Donations:   items,
		ByProvider:  byProvider,
	}, nil
}

func (s *DonationService) batchSize() int32 {
	if s.donationsCfg.ListLimit > 0 {
		return s.donationsCfg.ListLimit
	}
	return defaultBatchSize
}
