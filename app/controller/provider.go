package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

// ProviderController serves the single-provider endpoints the donation page
// calls directly. Only the Stripe verification and the PayPal capture touch
// the ledger.
type ProviderController struct {
	donationService *service.DonationService
	logger          logrus.FieldLogger
}

func NewProviderController(donationService *service.DonationService) *ProviderController {
	return &ProviderController{
		donationService: donationService,
		logger:          factory.NewModuleLogger("providers-controller"),
	}
}

func (c *ProviderController) CreateStripeCheckout(ctx echo.Context) error {
	req, err := types.NewStripeCheckoutRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.InitiateWithProvider(ctx.Request().Context(), provider.CodeStripe, mapper.StripeRequestToInput(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Create Stripe checkout", err)
	}

	return ctx.JSON(http.StatusOK, mapper.StripeResultToResponse(result))
}

func (c *ProviderController) VerifyStripeSession(ctx echo.Context) error {
	sessionID := strings.TrimSpace(ctx.Param("id"))
	if sessionID == "" {
		return writeError(ctx, http.StatusBadRequest, "session id is required")
	}

	verification, err := c.donationService.VerifyStripeSession(ctx.Request().Context(), sessionID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Verify Stripe session", err)
	}

	return ctx.JSON(http.StatusOK, mapper.StripeVerificationToResponse(verification))
}

func (c *ProviderController) CreatePayPalOrder(ctx echo.Context) error {
	req, err := types.NewPayPalOrderRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.InitiateWithProvider(ctx.Request().Context(), provider.CodePayPal, mapper.PayPalRequestToInput(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Create PayPal order", err)
	}

	return ctx.JSON(http.StatusOK, mapper.PayPalResultToResponse(result))
}

func (c *ProviderController) CapturePayPalOrder(ctx echo.Context) error {
	req, err := types.NewPayPalCaptureRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	capture, err := c.donationService.CapturePayPalOrder(ctx.Request().Context(), req.OrderID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Capture PayPal order", err)
	}

	return ctx.JSON(http.StatusOK, mapper.PayPalCaptureToResponse(capture))
}

func (c *ProviderController) CreateMercadoPagoCheckout(ctx echo.Context) error {
	req, err := types.NewMercadoPagoCheckoutRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.InitiateWithProvider(ctx.Request().Context(), provider.CodeMercadoPago, mapper.MercadoPagoRequestToInput(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Create Mercado Pago checkout", err)
	}

	return ctx.JSON(http.StatusOK, mapper.MercadoPagoResultToResponse(result))
}

// CreatePagarmeCheckout returns only the public encryption key for a GET
// without an amount, and the full widget configuration otherwise.
func (c *ProviderController) CreatePagarmeCheckout(ctx echo.Context) error {
	req, err := types.NewPagarmeCheckoutRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if ctx.Request().Method == http.MethodGet && req.Amount == "" {
		key, err := c.donationService.PagarmeEncryptionKey()
		if err != nil {
			return writeServiceError(ctx, c.logger, "Pagar.me encryption key", err)
		}
		return ctx.JSON(http.StatusOK, &types.PagarmeEncryptionKeyResponse{EncryptionKey: key})
	}

	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	data, err := c.donationService.PagarmeCheckoutData(req.GetAmountCents(), req.PaymentMethod)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Pagar.me checkout data", err)
	}

	return ctx.JSON(http.StatusOK, mapper.PagarmeCheckoutDataToResponse(data))
}

func (c *ProviderController) ProcessPagarmePayment(ctx echo.Context) error {
	req, err := types.NewPagarmePaymentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.InitiateWithProvider(ctx.Request().Context(), provider.CodePagarme, mapper.PagarmeRequestToInput(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Process Pagar.me payment", err)
	}

	return ctx.JSON(http.StatusOK, mapper.PagarmeResultToResponse(result))
}

func (c *ProviderController) ProcessCieloPayment(ctx echo.Context) error {
	req, err := types.NewCieloPaymentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.InitiateWithProvider(ctx.Request().Context(), provider.CodeCielo, mapper.CieloRequestToInput(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Process Cielo payment", err)
	}

	return ctx.JSON(http.StatusOK, mapper.CieloResultToResponse(result))
}
