package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type DonationController struct {
	donationService *service.DonationService
	logger          logrus.FieldLogger
}

func NewDonationController(donationService *service.DonationService) *DonationController {
	return &DonationController{
		donationService: donationService,
		logger:          factory.NewModuleLogger("donations-controller"),
	}
}

func (c *DonationController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok", Providers: c.donationService.ProviderCodes()})
}

func (c *DonationController) CreateDonation(ctx echo.Context) error {
	req, err := types.NewCreateDonationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	checkout, err := c.donationService.Initiate(ctx.Request().Context(), mapper.CreateDonationRequestToIntent(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "Create donation", err)
	}

	factory.LoggerWithContext(c.logger, ctx).
		WithField("donation_id", checkout.Donation.ID).
		WithField("provider", checkout.Donation.Provider).
		WithField("kind", checkout.Kind).
		Info("Donation initiated")

	return ctx.JSON(http.StatusCreated, mapper.CheckoutToResponse(checkout))
}

func (c *DonationController) GetDonation(ctx echo.Context) error {
	req, err := types.NewDonationIDRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.GetDonation(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Get donation", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) ConfirmDonation(ctx echo.Context) error {
	req, err := types.NewDonationIDRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.ConfirmDonation(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Confirm donation", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) ReturnDonation(ctx echo.Context) error {
	req, err := types.NewReturnDonationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.ApplyReturnStatus(ctx.Request().Context(), req.ID, req.Status)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Apply return status", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) ListDonations(ctx echo.Context) error {
	req, err := types.NewListDonationsRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	items, err := c.donationService.ListDonations(ctx.Request().Context(), mapper.ListDonationsRequestToFilter(req))
	if err != nil {
		return writeServiceError(ctx, c.logger, "List donations", err)
	}

	return ctx.JSON(http.StatusOK, &types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)})
}

func (c *DonationController) GetDonationDetail(ctx echo.Context) error {
	req, err := types.NewDonationIDRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.GetDonation(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Get donation detail", err)
	}
	events, err := c.donationService.GetDonationEvents(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, "List donation events", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationDetailResponse{
		Donation: mapper.DonationToResponse(item),
		Events:   mapper.EventsToResponse(events),
	})
}

func (c *DonationController) ApproveDonation(ctx echo.Context) error {
	req, err := types.NewAdminDecisionRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.ApproveDonation(ctx.Request().Context(), req.ID, req.Note)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Approve donation", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) RejectDonation(ctx echo.Context) error {
	req, err := types.NewAdminDecisionRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	item, err := c.donationService.RejectDonation(ctx.Request().Context(), req.ID, req.Note)
	if err != nil {
		return writeServiceError(ctx, c.logger, "Reject donation", err)
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) StaleReport(ctx echo.Context) error {
	report, err := c.donationService.StalePendingReport(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, "Stale pending report", err)
	}

	return ctx.JSON(http.StatusOK, mapper.StaleReportToResponse(report))
}
