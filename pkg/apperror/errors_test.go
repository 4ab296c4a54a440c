package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("CHK_002", "Cart is empty", http.StatusBadRequest),
			expected: "[CHK_002] Cart is empty",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("EXT_001", "Partner down", http.StatusBadGateway, fmt.Errorf("connection refused")),
			expected: "[EXT_001] Partner down: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("CHK_001", "test", http.StatusNotFound)
	assert.Nil(t, appErr.Unwrap())
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"NotFound", ErrNotFound("order"), "CHK_001", 404},
		{"EmptyCart", ErrEmptyCart(), "CHK_002", 400},
		{"Validation", Validation("quantity must be positive"), "CHK_003", 400},
		{"OrderNotPaid", ErrOrderNotPaid(), "CHK_004", 409},
		{"PartnerFailure", ErrPartnerFailure(errors.New("503")), "EXT_001", 502},
		{"InvalidWebhookSignature", ErrInvalidWebhookSignature(), "SEC_001", 401},
		{"UnknownPayoutStatus", ErrUnknownPayoutStatus("weird"), "PAY_001", 422},
		{"Internal", InternalError(errors.New("boom")), "SYS_001", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestErrNotFound_Message(t *testing.T) {
	assert.Equal(t, "[CHK_001] payout not found", ErrNotFound("payout").Error())
}
