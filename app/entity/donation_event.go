package entity

import "time"

const (
	EventActorDonor    = "donor"
	EventActorAdmin    = "admin"
	EventActorProvider = "provider"
)

type DonationEvent struct {
	ID string

	DonationID string

	EventType string
	Actor     string

	OldStatus *string
	NewStatus string

	PayloadJSON *string

	CreatedAt time.Time
}
