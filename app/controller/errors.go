package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

// writeServiceError turns a service or provider error into the HTTP answer.
// Configuration problems and unexpected failures are logged, validation
// errors are not.
func writeServiceError(ctx echo.Context, logger logrus.FieldLogger, action string, err error) error {
	var providerErr *provider.Error

	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		factory.LoggerWithContext(logger, ctx).WithError(err).Error(action + " failed: provider not configured")
		return writeError(ctx, http.StatusInternalServerError, err.Error())
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrProviderUnsupported),
		errors.Is(err, provider.ErrInvalidAmount),
		errors.Is(err, provider.ErrInvalidInput),
		errors.Is(err, provider.ErrMethodNotSupported),
		errors.Is(err, types.ErrInvalidAmount):
		return writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDonationNotFound):
		return writeError(ctx, http.StatusNotFound, "donation not found")
	case errors.Is(err, service.ErrInvalidStatus):
		return writeError(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &providerErr):
		statusCode := providerErr.StatusCode
		if statusCode < http.StatusBadRequest {
			statusCode = http.StatusInternalServerError
		}
		factory.LoggerWithContext(logger, ctx).
			WithError(err).
			WithField("provider", providerErr.Provider).
			WithField("provider_status", providerErr.StatusCode).
			Warn(action + " failed: provider error")
		resp := &types.ErrorResponse{Error: providerErr.Message}
		if len(providerErr.Details) > 0 {
			resp.Details = providerErr.Details
		}
		return ctx.JSON(statusCode, resp)
	default:
		factory.LoggerWithContext(logger, ctx).WithError(err).Error(action + " failed")
		return ctx.JSON(http.StatusInternalServerError, &types.ErrorResponse{
			Error:   "internal server error",
			Details: err.Error(),
		})
	}
}

// writeValidationError answers 400 for a request that failed Validate.
func writeValidationError(ctx echo.Context, err error) error {
	return writeError(ctx, http.StatusBadRequest, err.Error())
}
