package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the error_code field of the response envelope.
const (
	CodeValidation          = "VAL_001"
	CodeMerchantNotFound    = "VAL_002"
	CodeBranchNotFound      = "VAL_003"
	CodeCredentialsMissing  = "VAL_004"
	CodeTransactionNotFound = "VAL_005"
	CodeWalletNotFound      = "VAL_006"

	CodeInsufficientFunds      = "PAY_001"
	CodeInvalidStateTransition = "PAY_002"
	CodeDuplicateTransaction   = "PAY_003"

	CodeTransport         = "GW_001"
	CodeGateway           = "GW_002"
	CodeMalformedResponse = "GW_003"

	CodeInvalidToken    = "AUTH_001"
	CodeUserNotVerified = "AUTH_002"

	CodeInternal          = "SYS_001"
	CodeEncryptionFailure = "SYS_002"
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

// ---- Validation & Lookup (VAL) ----

// Validation returns a typed validation error. Nothing was sent to the
// acquirer and no record was created.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrMerchantNotFound() *AppError {
	return New(CodeMerchantNotFound, "Merchant not found", http.StatusNotFound)
}

func ErrBranchNotFound() *AppError {
	return New(CodeBranchNotFound, "Branch not found for this merchant", http.StatusNotFound)
}

func ErrCredentialsMissing() *AppError {
	return New(CodeCredentialsMissing, "Acquirer credentials missing for this merchant", http.StatusForbidden)
}

func ErrTransactionNotFound() *AppError {
	return New(CodeTransactionNotFound, "Transaction not found", http.StatusNotFound)
}

func ErrWalletNotFound() *AppError {
	return New(CodeWalletNotFound, "Wallet not found", http.StatusNotFound)
}

// ---- Payment Lifecycle (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidStateTransition(from, to string) *AppError {
	return New(CodeInvalidStateTransition, fmt.Sprintf("Operation not legal in status %s (target %s)", from, to), http.StatusConflict)
}

func ErrDuplicateTransaction() *AppError {
	return New(CodeDuplicateTransaction, "Duplicate transaction", http.StatusConflict)
}

// ---- Acquirer Gateway (GW) ----

// ErrTransport means the acquirer call failed at the network level; the
// outcome is unknown and the caller must query status before retrying.
func ErrTransport(err error) *AppError {
	return Wrap(CodeTransport, "Acquirer unreachable, outcome unknown", http.StatusBadGateway, err)
}

// ErrGateway means the acquirer answered non-2xx with a body. Not retried
// automatically; the raw details are persisted on the record.
func ErrGateway(httpStatus int) *AppError {
	return New(CodeGateway, fmt.Sprintf("Acquirer rejected the request (HTTP %d)", httpStatus), http.StatusBadGateway)
}

// ErrMalformedResponse means the acquirer returned 2xx with an undecodable
// body. Treated as transient.
func ErrMalformedResponse(err error) *AppError {
	return Wrap(CodeMalformedResponse, "Acquirer returned an unparseable response", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUserNotVerified() *AppError {
	return New(CodeUserNotVerified, "User not verified", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap(CodeEncryptionFailure, "Encryption service failure", http.StatusInternalServerError, err)
}

// IsInsufficientFunds reports whether err carries the insufficient
// balance code, however deeply wrapped.
func IsInsufficientFunds(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeInsufficientFunds
}
