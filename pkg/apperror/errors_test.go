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
			appErr:   New("PAY_001", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[PAY_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
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
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("barcode is required"), "VAL_001", 400},
		{"MerchantNotFound", ErrMerchantNotFound(), "VAL_002", 404},
		{"BranchNotFound", ErrBranchNotFound(), "VAL_003", 404},
		{"CredentialsMissing", ErrCredentialsMissing(), "VAL_004", 403},
		{"TransactionNotFound", ErrTransactionNotFound(), "VAL_005", 404},
		{"WalletNotFound", ErrWalletNotFound(), "VAL_006", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestPaymentErrors(t *testing.T) {
	assert.Equal(t, "PAY_001", ErrInsufficientFunds().Code)
	assert.Equal(t, 402, ErrInsufficientFunds().HTTPStatus)

	stateErr := ErrInvalidStateTransition("CAPTURED", "RELEASED")
	assert.Equal(t, "PAY_002", stateErr.Code)
	assert.Equal(t, 409, stateErr.HTTPStatus)
	assert.Contains(t, stateErr.Message, "CAPTURED")
	assert.Contains(t, stateErr.Message, "RELEASED")

	assert.Equal(t, "PAY_003", ErrDuplicateTransaction().Code)
}

func TestGatewayErrors(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")

	transportErr := ErrTransport(inner)
	assert.Equal(t, "GW_001", transportErr.Code)
	assert.Equal(t, 502, transportErr.HTTPStatus)
	assert.True(t, errors.Is(transportErr, inner))

	gwErr := ErrGateway(422)
	assert.Equal(t, "GW_002", gwErr.Code)
	assert.Contains(t, gwErr.Message, "422")

	malformed := ErrMalformedResponse(fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "GW_003", malformed.Code)
}

func TestAuthAndSystemErrors(t *testing.T) {
	assert.Equal(t, "AUTH_001", ErrInvalidToken().Code)
	assert.Equal(t, 401, ErrInvalidToken().HTTPStatus)
	assert.Equal(t, "AUTH_002", ErrUserNotVerified().Code)

	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))

	encErr := ErrEncryptionFailure(inner)
	assert.Equal(t, "SYS_002", encErr.Code)
}

func TestIsInsufficientFunds(t *testing.T) {
	assert.True(t, IsInsufficientFunds(ErrInsufficientFunds()))
	assert.True(t, IsInsufficientFunds(fmt.Errorf("renewing: %w", ErrInsufficientFunds())))

	assert.False(t, IsInsufficientFunds(nil))
	assert.False(t, IsInsufficientFunds(errors.New("plain")))
	assert.False(t, IsInsufficientFunds(ErrDuplicateTransaction()))
}
