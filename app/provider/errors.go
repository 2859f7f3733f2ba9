package provider

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidInput         = errors.New("invalid checkout input")
	ErrNotConfigured        = errors.New("not configured")
	ErrMethodNotSupported   = errors.New("payment method is not supported by provider")
	ErrProviderNotSupported = errors.New("provider is not supported")
)

// Error is a non-2xx answer from a payment provider. Details carries the raw
// provider payload so callers can surface it for diagnosis.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func notConfigured(setting string) error {
	return fmt.Errorf("%s %w", setting, ErrNotConfigured)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func rawDetails(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return encoded
}
