package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationAlreadyExists = errors.New("donation already exists")
	ErrDonationStatusChanged = errors.New("donation status changed concurrently")
)

type DonationFilter struct {
	Status     string
	Provider   string
	DonorEmail string
	Limit      int32
	Offset     int32
}

const donationColumns = `id, donor_name, donor_email, donor_phone, amount_cents, currency,
			payment_method, provider, status, transaction_id, message, created_at, updated_at`

type DonationRepository struct {
	db      DBTX
	dialect Dialect
}

func NewDonationRepository(db DBTX, dialect Dialect) *DonationRepository {
	return &DonationRepository{db: db, dialect: dialect}
}

func (r *DonationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		donation.ID,
		donation.DonorName,
		donation.DonorEmail,
		nullableStringValue(donation.DonorPhone),
		donation.AmountCents,
		donation.Currency,
		donation.PaymentMethod,
		donation.Provider,
		donation.Status,
		nullableStringValue(donation.TransactionID),
		nullableStringValue(donation.Message),
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDonationAlreadyExists
		}
		return err
	}

	return nil
}

// UpdateStatus writes the donation's status and transaction id, but only if
// the stored row still has fromStatus.
func (r *DonationRepository) UpdateStatus(ctx context.Context, donation *entity.Donation, fromStatus string) error {
	query := `
		UPDATE donations SET
			status = ?,
			transaction_id = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		donation.Status,
		nullableStringValue(donation.TransactionID),
		donation.UpdatedAt,
		donation.ID,
		fromStatus,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDonationStatusChanged
	}

	return nil
}

func (r *DonationRepository) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE id = ?
	`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id), donation); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return donation, nil
}

func (r *DonationRepository) FindByTransactionID(ctx context.Context, provider, transactionID string) (*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE provider = ? AND transaction_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), provider, transactionID), donation); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return donation, nil
}

func (r *DonationRepository) List(ctx context.Context, filter DonationFilter) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
	`

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if strings.TrimSpace(filter.Provider) != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, filter.Provider)
	}
	if strings.TrimSpace(filter.DonorEmail) != "" {
		conditions = append(conditions, "donor_email = ?")
		args = append(args, filter.DonorEmail)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := normalizeLimit(filter.Limit, filter.Offset)
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	return r.query(ctx, query, args...)
}

// ListStalePending returns pending donations created at or before cutoff,
// oldest first.
func (r *DonationRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE status = ?
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	limit, _ = normalizeLimit(limit, 0)
	return r.query(ctx, query, entity.DonationStatusPending, cutoff, limit)
}

func (r *DonationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Donation, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]*entity.Donation, 0)
	for rows.Next() {
		item := &entity.Donation{}
		if err := scanDonation(rows, item); err != nil {
			return nil, err
		}
		donations = append(donations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return donations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonation(row rowScanner, donation *entity.Donation) error {
	var (
		donorPhone    sql.NullString
		transactionID sql.NullString
		message       sql.NullString
	)

	if err := row.Scan(
		&donation.ID,
		&donation.DonorName,
		&donation.DonorEmail,
		&donorPhone,
		&donation.AmountCents,
		&donation.Currency,
		&donation.PaymentMethod,
		&donation.Provider,
		&donation.Status,
		&transactionID,
		&message,
		&donation.CreatedAt,
		&donation.UpdatedAt,
	); err != nil {
		return err
	}

	donation.DonorPhone = stringPtrFromNull(donorPhone)
	donation.TransactionID = stringPtrFromNull(transactionID)
	donation.Message = stringPtrFromNull(message)
	return nil
}
