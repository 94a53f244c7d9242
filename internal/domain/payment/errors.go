package payment

import "errors"

var (
	ErrNotAuthenticated    = errors.New("session required")
	ErrPaymentsDisabled    = errors.New("payments are not configured")
	ErrNotPayable          = errors.New("only pending reservations can be paid")
	ErrNothingToPay        = errors.New("reservation total is zero")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrIntentMismatch      = errors.New("payment intent belongs to another reservation")
	ErrPaymentNotCompleted = errors.New("payment was not completed")
	ErrAmountMismatch      = errors.New("paid amount does not match the reservation total")
	ErrProvider            = errors.New("payment provider request failed")
	ErrConfirmFailed       = errors.New("payment captured but reservation could not be confirmed")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrInvalidPayload      = errors.New("invalid webhook payload")
)
