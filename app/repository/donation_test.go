package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var donationColumnNames = []string{
	"id", "donor_name", "donor_email", "donor_phone", "amount_cents", "currency",
	"payment_method", "provider", "status", "transaction_id", "message", "created_at", "updated_at",
}

func newMock(t *testing.T) (sqlmock.Sqlmock, *DonationRepository, *DonationRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return mock, NewDonationRepository(db, DialectMySQL), NewDonationRepository(db, DialectPostgres)
}

func sampleDonation() *entity.Donation {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	tx := "987654"
	return &entity.Donation{
		ID:            "0b7e4f7c-3a1d-4a3e-9c61-5d1f0f6b2a10",
		DonorName:     "Maria",
		DonorEmail:    "maria@example.com",
		AmountCents:   5000,
		Currency:      "BRL",
		PaymentMethod: entity.PaymentMethodPix,
		Provider:      "pagarme",
		Status:        entity.DonationStatusPending,
		TransactionID: &tx,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestDialectRebind(t *testing.T) {
	query := "SELECT * FROM donations WHERE status = ? AND provider = ? LIMIT ?"
	if got := DialectMySQL.Rebind(query); got != query {
		t.Fatalf("mysql query should be unchanged, got %s", got)
	}
	want := "SELECT * FROM donations WHERE status = $1 AND provider = $2 LIMIT $3"
	if got := DialectPostgres.Rebind(query); got != want {
		t.Fatalf("unexpected postgres query: %s", got)
	}
}

func TestDonationRepositoryCreate(t *testing.T) {
	mock, _, pg := newMock(t)
	d := sampleDonation()

	mock.ExpectExec(`INSERT INTO donations .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12, \$13\)`).
		WithArgs(d.ID, "Maria", "maria@example.com", nil, int64(5000), "BRL", "pix", "pagarme", "pending", "987654", nil, d.CreatedAt, d.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pg.Create(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDonationRepositoryCreateDuplicate(t *testing.T) {
	mock, my, pg := newMock(t)

	mock.ExpectExec(`INSERT INTO donations`).WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})
	if err := my.Create(context.Background(), sampleDonation()); !errors.Is(err, ErrDonationAlreadyExists) {
		t.Fatalf("expected ErrDonationAlreadyExists, got %v", err)
	}

	mock.ExpectExec(`INSERT INTO donations`).WillReturnError(&pq.Error{Code: "23505"})
	if err := pg.Create(context.Background(), sampleDonation()); !errors.Is(err, ErrDonationAlreadyExists) {
		t.Fatalf("expected ErrDonationAlreadyExists, got %v", err)
	}
}

func TestDonationRepositoryUpdateStatus(t *testing.T) {
	mock, my, _ := newMock(t)
	d := sampleDonation()
	d.Status = entity.DonationStatusCompleted

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND status = ?")).
		WithArgs("completed", "987654", d.UpdatedAt, d.ID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := my.UpdateStatus(context.Background(), d, entity.DonationStatusPending); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND status = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := my.UpdateStatus(context.Background(), d, entity.DonationStatusPending); !errors.Is(err, ErrDonationStatusChanged) {
		t.Fatalf("expected ErrDonationStatusChanged, got %v", err)
	}
}

func TestDonationRepositoryFindByID(t *testing.T) {
	mock, my, _ := newMock(t)
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(donationColumnNames))
	d, err := my.FindByID(context.Background(), "missing")
	if err != nil || d != nil {
		t.Fatalf("expected nil donation and no error, got %+v %v", d, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
		WithArgs("don-1").
		WillReturnRows(sqlmock.NewRows(donationColumnNames).
			AddRow("don-1", "Maria", "maria@example.com", nil, int64(5000), "BRL", "pix", "pagarme", "pending", "987654", "Força!", created, created))
	d, err = my.FindByID(context.Background(), "don-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.DonorPhone != nil || d.TransactionID == nil || *d.TransactionID != "987654" || d.Message == nil || *d.Message != "Força!" {
		t.Fatalf("unexpected donation: %+v", d)
	}
	if !d.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at: %v", d.CreatedAt)
	}
}

func TestDonationRepositoryFindByTransactionID(t *testing.T) {
	mock, _, pg := newMock(t)
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider = $1 AND transaction_id = $2")).
		WithArgs("paypal", "ORDER-1").
		WillReturnRows(sqlmock.NewRows(donationColumnNames).
			AddRow("don-2", "Ana", "ana@example.com", "11999990000", int64(1000), "BRL", "paypal", "paypal", "pending", "ORDER-1", nil, created, created))

	d, err := pg.FindByTransactionID(context.Background(), "paypal", "ORDER-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.ID != "don-2" || d.DonorPhone == nil || *d.DonorPhone != "11999990000" {
		t.Fatalf("unexpected donation: %+v", d)
	}
}

func TestDonationRepositoryList(t *testing.T) {
	mock, my, _ := newMock(t)
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = ? AND provider = ? ORDER BY created_at DESC LIMIT ? OFFSET ?")).
		WithArgs("pending", "cielo", int32(100), int32(0)).
		WillReturnRows(sqlmock.NewRows(donationColumnNames).
			AddRow("a", "A", "a@example.com", nil, int64(100), "BRL", "card", "cielo", "pending", nil, nil, created, created).
			AddRow("b", "B", "b@example.com", nil, int64(200), "BRL", "pix", "cielo", "pending", "tx", nil, created, created))

	items, err := my.List(context.Background(), DonationFilter{Status: "pending", Provider: "cielo"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].TransactionID == nil {
		t.Fatalf("unexpected items: %+v", items)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM donations\n\t ORDER BY created_at DESC LIMIT ? OFFSET ?")).
		WithArgs(int32(10), int32(20)).
		WillReturnRows(sqlmock.NewRows(donationColumnNames))
	if _, err := my.List(context.Background(), DonationFilter{Limit: 10, Offset: 20}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDonationRepositoryListStalePending(t *testing.T) {
	mock, _, pg := newMock(t)
	cutoff := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1\n\t\t  AND created_at <= $2")).
		WithArgs("pending", cutoff, int32(50)).
		WillReturnRows(sqlmock.NewRows(donationColumnNames))

	items, err := pg.ListStalePending(context.Background(), cutoff, 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	for _, stmt := range postgresSchema {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := Migrate(context.Background(), db, DialectPostgres); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}

	if err := Migrate(context.Background(), db, Dialect("sqlite")); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestDonationEventRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewDonationEventRepository(db, DialectMySQL)

	created := time.Now()
	old := "pending"
	event := &entity.DonationEvent{
		ID:         "evt-1",
		DonationID: "don-1",
		EventType:  "donation_confirmed",
		Actor:      entity.EventActorDonor,
		OldStatus:  &old,
		NewStatus:  "completed",
		CreatedAt:  created,
	}

	mock.ExpectExec(`INSERT INTO donation_events`).
		WithArgs("evt-1", "don-1", "donation_confirmed", "donor", "pending", "completed", nil, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM donation_events")).
		WithArgs("don-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "donation_id", "event_type", "actor", "old_status", "new_status", "payload_json", "created_at"}).
			AddRow("evt-0", "don-1", "donation_created", "donor", nil, "pending", `{"provider":"pagarme"}`, created).
			AddRow("evt-1", "don-1", "donation_confirmed", "donor", "pending", "completed", nil, created))

	events, err := repo.ListByDonation(context.Background(), "don-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 2 || events[0].OldStatus != nil || events[0].PayloadJSON == nil || *events[1].OldStatus != "pending" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
