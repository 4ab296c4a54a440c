package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Checkout Business Logic (CHK) ----

func ErrNotFound(entity string) *AppError {
	return New("CHK_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmptyCart() *AppError {
	return New("CHK_002", "Cart is empty", http.StatusBadRequest)
}

// Validation returns a CHK_003-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("CHK_003", message, http.StatusBadRequest)
}

func ErrOrderNotPaid() *AppError {
	return New("CHK_004", "Order is not paid", http.StatusConflict)
}

// ---- External Partner (EXT) ----

// ErrPartnerFailure wraps a failed Mural API call. The operation is aborted
// with no partial commit.
func ErrPartnerFailure(err error) *AppError {
	return Wrap("EXT_001", "Payment partner request failed", http.StatusBadGateway, err)
}

// ---- Webhook Security (SEC) ----

func ErrInvalidWebhookSignature() *AppError {
	return New("SEC_001", "Invalid webhook signature", http.StatusUnauthorized)
}

// ---- Payout (PAY) ----

func ErrUnknownPayoutStatus(raw string) *AppError {
	return New("PAY_001", fmt.Sprintf("Unknown payout status %q", raw), http.StatusUnprocessableEntity)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
