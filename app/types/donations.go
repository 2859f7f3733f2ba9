package types

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	defaultListLimit = int32(100)
	maxListLimit     = int32(500)
)

type CardRequest struct {
	Number       string `json:"number" validate:"required"`
	Holder       string `json:"holder" validate:"required,max=100"`
	Expiry       string `json:"expiry" validate:"required"`
	CVV          string `json:"cvv" validate:"required"`
	Installments int    `json:"installments" validate:"min=0,max=12"`
}

func (c *CardRequest) normalize() {
	if c == nil {
		return
	}
	c.Number = strings.TrimSpace(c.Number)
	c.Holder = strings.TrimSpace(c.Holder)
	c.Expiry = strings.TrimSpace(c.Expiry)
	c.CVV = strings.TrimSpace(c.CVV)
}

type CreateDonationRequest struct {
	Amount        json.Number  `json:"amount"`
	Currency      string       `json:"currency" validate:"omitempty,len=3"`
	DonorName     string       `json:"donor_name" validate:"max=200"`
	DonorEmail    string       `json:"donor_email" validate:"required,email"`
	DonorPhone    string       `json:"donor_phone" validate:"max=30"`
	DonorCPF      string       `json:"donor_cpf" validate:"omitempty,cpf"`
	Message       string       `json:"message" validate:"max=1000"`
	Provider      string       `json:"provider" validate:"required,oneof=stripe paypal mercadopago pagarme cielo"`
	PaymentMethod string       `json:"payment_method" validate:"omitempty,oneof=pix credit_card debit_card boleto card"`
	Card          *CardRequest `json:"card"`
	SuccessURL    string       `json:"success_url" validate:"omitempty,url"`
	CancelURL     string       `json:"cancel_url" validate:"omitempty,url"`

	amountCents int64
}

func NewCreateDonationRequestFromContext(ctx echo.Context) (*CreateDonationRequest, error) {
	var body CreateDonationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.normalize()
	return &body, nil
}

func (r *CreateDonationRequest) normalize() {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.DonorName = strings.TrimSpace(r.DonorName)
	r.DonorEmail = strings.ToLower(strings.TrimSpace(r.DonorEmail))
	r.DonorPhone = strings.TrimSpace(r.DonorPhone)
	r.DonorCPF = strings.TrimSpace(r.DonorCPF)
	r.Message = strings.TrimSpace(r.Message)
	r.Provider = strings.ToLower(strings.TrimSpace(r.Provider))
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	r.SuccessURL = strings.TrimSpace(r.SuccessURL)
	r.CancelURL = strings.TrimSpace(r.CancelURL)
	r.Card.normalize()
}

// Validate checks the amount first so a zero or negative donation is always
// reported as an invalid amount, whatever else is wrong with the request.
func (r *CreateDonationRequest) Validate() error {
	r.normalize()
	cents, err := ParseAmountToCents(r.Amount)
	if err != nil {
		return err
	}
	if cents <= 0 {
		return ErrInvalidAmount
	}
	r.amountCents = cents

	if err := validateStruct(r); err != nil {
		return err
	}
	if needsCard(r.PaymentMethod) && r.Card == nil {
		return errors.New("card is required for card payments")
	}
	return nil
}

func (r *CreateDonationRequest) GetAmountCents() int64 {
	return r.amountCents
}

func needsCard(method string) bool {
	return method == "credit_card" || method == "debit_card"
}

type DonationIDRequest struct {
	ID string
}

func NewDonationIDRequestFromContext(ctx echo.Context) (*DonationIDRequest, error) {
	return &DonationIDRequest{ID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *DonationIDRequest) Validate() error {
	if r.ID == "" {
		return errors.New("invalid donation id")
	}
	return nil
}

type ReturnDonationRequest struct {
	ID     string `json:"-"`
	Status string `json:"status" validate:"required"`
}

// NewReturnDonationRequestFromContext accepts the status either in the body
// or as the query parameter the provider appended to the return URL.
func NewReturnDonationRequestFromContext(ctx echo.Context) (*ReturnDonationRequest, error) {
	var body ReturnDonationRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = strings.TrimSpace(ctx.Param("id"))
	body.Status = strings.ToLower(strings.TrimSpace(body.Status))
	if body.Status == "" {
		body.Status = strings.ToLower(strings.TrimSpace(ctx.QueryParam("status")))
	}
	return &body, nil
}

func (r *ReturnDonationRequest) Validate() error {
	if r.ID == "" {
		return errors.New("invalid donation id")
	}
	return validateStruct(r)
}

type AdminDecisionRequest struct {
	ID   string `json:"-"`
	Note string `json:"note" validate:"max=500"`
}

func NewAdminDecisionRequestFromContext(ctx echo.Context) (*AdminDecisionRequest, error) {
	var body AdminDecisionRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = strings.TrimSpace(ctx.Param("id"))
	body.Note = strings.TrimSpace(body.Note)
	return &body, nil
}

func (r *AdminDecisionRequest) Validate() error {
	if r.ID == "" {
		return errors.New("invalid donation id")
	}
	return validateStruct(r)
}

type ListDonationsRequest struct {
	Status     string `json:"status" validate:"omitempty,oneof=pending completed failed"`
	Provider   string `json:"provider" validate:"omitempty,oneof=stripe paypal mercadopago pagarme cielo"`
	DonorEmail string `json:"donor_email" validate:"omitempty,email"`
	Limit      int32  `json:"limit"`
	Offset     int32  `json:"offset"`
}

func NewListDonationsRequestFromContext(ctx echo.Context) (*ListDonationsRequest, error) {
	req := &ListDonationsRequest{
		Status:     strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		Provider:   strings.ToLower(strings.TrimSpace(ctx.QueryParam("provider"))),
		DonorEmail: strings.ToLower(strings.TrimSpace(ctx.QueryParam("donor_email"))),
		Limit:      defaultListLimit,
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListDonationsRequest) Validate() error {
	if r.Limit == 0 {
		r.Limit = defaultListLimit
	}
	if r.Limit < 0 || r.Limit > maxListLimit {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	return validateStruct(r)
}
