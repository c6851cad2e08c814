package wallet

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrNotConnected           = errors.New("wallet not connected")
	ErrProviderUnavailable    = errors.New("wallet provider unavailable")
	ErrProviderRejected       = errors.New("wallet provider request rejected")
	ErrProviderRequestPending = errors.New("wallet provider request already pending")
)
