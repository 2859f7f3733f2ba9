package entity

import "time"

const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
)

const (
	PaymentMethodPix    = "pix"
	PaymentMethodCard   = "card"
	PaymentMethodBoleto = "boleto"
	PaymentMethodPayPal = "paypal"
)

type Donation struct {
	ID string

	DonorName  string
	DonorEmail string
	DonorPhone *string

	AmountCents int64
	Currency    string

	PaymentMethod string
	Provider      string
	Status        string

	TransactionID *string
	Message       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Donation) IsTerminal() bool {
	return d.Status == DonationStatusCompleted || d.Status == DonationStatusFailed
}
