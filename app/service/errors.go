package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDonationNotFound    = errors.New("donation not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrProviderUnsupported = errors.New("provider is not supported")
	ErrCapabilityMissing   = errors.New("operation not supported by provider")
)
