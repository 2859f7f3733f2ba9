package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

type DonationEventRepository struct {
	db      DBTX
	dialect Dialect
}

func NewDonationEventRepository(db DBTX, dialect Dialect) *DonationEventRepository {
	return &DonationEventRepository{db: db, dialect: dialect}
}

func (r *DonationEventRepository) Create(ctx context.Context, event *entity.DonationEvent) error {
	query := `
		INSERT INTO donation_events (
			id, donation_id, event_type, actor, old_status, new_status, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		event.ID,
		event.DonationID,
		event.EventType,
		event.Actor,
		nullableStringValue(event.OldStatus),
		event.NewStatus,
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt,
	)
	return err
}

func (r *DonationEventRepository) ListByDonation(ctx context.Context, donationID string) ([]*entity.DonationEvent, error) {
	query := `
		SELECT id, donation_id, event_type, actor, old_status, new_status, payload_json, created_at
		FROM donation_events
		WHERE donation_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*entity.DonationEvent, 0)
	for rows.Next() {
		var (
			event     entity.DonationEvent
			oldStatus sql.NullString
			payload   sql.NullString
		)
		if err := rows.Scan(
			&event.ID,
			&event.DonationID,
			&event.EventType,
			&event.Actor,
			&oldStatus,
			&event.NewStatus,
			&payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.OldStatus = stringPtrFromNull(oldStatus)
		event.PayloadJSON = stringPtrFromNull(payload)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
