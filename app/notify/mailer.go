// Package notify sends donor-facing emails.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/config"
	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends the donation receipt once a donation is completed. Without
// SMTP settings it is a no-op.
type Mailer struct {
	cfg    config.MailConfig
	client mailSender
	logger logrus.FieldLogger
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	m := &Mailer{
		cfg:    cfg,
		logger: factory.NewModuleLogger("donations-mailer"),
	}
	if !m.Enabled() {
		return m, nil
	}

	port := cfg.SMTPPort
	if port <= 0 {
		port = 587
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	m.client = client
	return m, nil
}

func (m *Mailer) Enabled() bool {
	return strings.TrimSpace(m.cfg.SMTPHost) != "" && strings.TrimSpace(m.cfg.From) != ""
}

func (m *Mailer) SendReceipt(ctx context.Context, donation *entity.Donation) error {
	if m == nil || m.client == nil || donation == nil {
		return nil
	}
	if strings.TrimSpace(donation.DonorEmail) == "" {
		return nil
	}

	msg, err := m.receiptMessage(donation)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}

	m.logger.WithField("donation_id", donation.ID).Info("Donation receipt sent")
	return nil
}

func (m *Mailer) receiptMessage(donation *entity.Donation) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(donation.DonorName, donation.DonorEmail); err != nil {
		return nil, fmt.Errorf("invalid donor email: %w", err)
	}

	amount := FormatAmount(donation.AmountCents, donation.Currency)
	msg.Subject("Recibo da sua doação de " + amount)

	data := receiptData{
		Name:          firstName(donation.DonorName),
		Amount:        amount,
		PaymentMethod: paymentMethodLabel(donation.PaymentMethod),
		Date:          donation.UpdatedAt.Format("02/01/2006"),
		DonationID:    donation.ID,
	}
	if donation.TransactionID != nil {
		data.TransactionID = *donation.TransactionID
	}

	if err := msg.SetBodyTextTemplate(receiptText, data); err != nil {
		return nil, fmt.Errorf("render receipt text: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(receiptHTML, data); err != nil {
		return nil, fmt.Errorf("render receipt html: %w", err)
	}

	return msg, nil
}

var brazilianPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatAmount renders cents the way donors read them on the site, for
// example "R$ 1.234,50".
func FormatAmount(cents int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	value := brazilianPrinter.Sprintf("%.2f", float64(cents)/100)
	switch currency {
	case "", "BRL":
		return "R$ " + value
	case "USD":
		return "US$ " + value
	case "EUR":
		return "€ " + value
	default:
		return currency + " " + value
	}
}

func paymentMethodLabel(method string) string {
	switch method {
	case entity.PaymentMethodPix:
		return "PIX"
	case entity.PaymentMethodBoleto:
		return "Boleto"
	case entity.PaymentMethodPayPal:
		return "PayPal"
	default:
		return "Cartão"
	}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "doador(a)"
	}
	return fields[0]
}

type receiptData struct {
	Name          string
	Amount        string
	PaymentMethod string
	Date          string
	DonationID    string
	TransactionID string
}
