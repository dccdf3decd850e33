package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRentalNotFound       = errors.New("rental not found")
	ErrBikeNotFound         = errors.New("bike not found")
	ErrBikeUnavailable      = errors.New("bike is not available")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidState         = errors.New("invalid rental state")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrAlreadyPaid          = errors.New("rental already has a completed payment")
	ErrAmountMismatch       = errors.New("payment amount does not match expected amount")
	ErrPaymentInProgress    = errors.New("payment already in progress")
)

// Kind groups error codes into the categories callers react to.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindInvalidState Kind = "invalid_state"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindStorage      Kind = "storage"
	KindUnavailable  Kind = "unavailable"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeRentalNotFound       = "RENTAL_NOT_FOUND"
	ErrCodeBikeNotFound         = "BIKE_NOT_FOUND"
	ErrCodeBikeUnavailable      = "BIKE_UNAVAILABLE"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	ErrCodeAlreadyPaid          = "ALREADY_PAID"
	ErrCodeAmountMismatch       = "AMOUNT_MISMATCH"
	ErrCodePaymentInProgress    = "PAYMENT_IN_PROGRESS"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// KindOf returns the kind of a business error, or KindStorage for anything
// that is not one.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindStorage
}

// CodeOf returns the code of a business error, or DATABASE_ERROR.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeDatabaseError
}

// PublicMessage returns the message safe to show to API callers. Storage and
// cache failures never expose the underlying error text.
func PublicMessage(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return "database operation failed"
}

func WrapRentalNotFound(rentalID int64) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeRentalNotFound,
		fmt.Sprintf("Rental with ID %d not found", rentalID),
		ErrRentalNotFound,
	)
}

func WrapBikeNotFound(bikeID int64) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeBikeNotFound,
		fmt.Sprintf("Bike with ID %d not found", bikeID),
		ErrBikeNotFound,
	)
}

func WrapBikeUnavailable(bikeID int64) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeBikeUnavailable,
		fmt.Sprintf("Bike with ID %d is not available for rent", bikeID),
		ErrBikeUnavailable,
	)
}

func WrapPaymentNotFound(paymentID int64) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %d not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapForbidden(message string) *BusinessError {
	return NewBusinessError(KindForbidden, ErrCodeForbidden, message, ErrForbidden)
}

func WrapInvalidState(message string) *BusinessError {
	return NewBusinessError(KindInvalidState, ErrCodeInvalidState, message, ErrInvalidState)
}

func WrapInvalidInput(message string) *BusinessError {
	return NewBusinessError(KindInvalidInput, ErrCodeInvalidInput, message, ErrInvalidInput)
}

func WrapDuplicateTransaction(transactionID string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeDuplicateTransaction,
		fmt.Sprintf("Transaction %s has already been recorded", transactionID),
		ErrDuplicateTransaction,
	)
}

func WrapAlreadyPaid(rentalID int64) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Rental with ID %d already has a completed payment", rentalID),
		ErrAlreadyPaid,
	)
}

func WrapAmountMismatch(expected, actual string) *BusinessError {
	return NewBusinessError(
		KindInvalidInput,
		ErrCodeAmountMismatch,
		fmt.Sprintf("Payment amount %s does not match expected amount %s", actual, expected),
		ErrAmountMismatch,
	)
}

func WrapPaymentInProgress(rentalID int64) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodePaymentInProgress,
		fmt.Sprintf("A payment for rental %d is already being processed", rentalID),
		ErrPaymentInProgress,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindStorage,
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		KindUnavailable,
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
