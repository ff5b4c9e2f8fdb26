package game

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// Validation
	CodeInvalidValue       Code = "INVALID_VALUE"
	CodeInvalidPercentages Code = "INVALID_PERCENTAGES"
	CodeMathOverflow       Code = "MATH_OVERFLOW"

	// Authorization
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeWrongFeeAccount Code = "WRONG_FEE_ACCOUNT"
	CodeWrongWinner     Code = "WRONG_WINNER"

	// Temporal
	CodeBidIsOver      Code = "BID_IS_OVER"
	CodeGameInProgress Code = "GAME_IN_PROGRESS"

	// Lifecycle
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"

	// Substrate
	CodeNotInitialized    Code = "NOT_INITIALIZED"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeAccountMismatch   Code = "ACCOUNT_MISMATCH"
)

// HTTPStatus maps a code to the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidValue, CodeInvalidPercentages, CodeMathOverflow, CodeAccountMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeWrongFeeAccount, CodeWrongWinner:
		return http.StatusForbidden
	case CodeBidIsOver, CodeGameInProgress, CodeNotInitialized:
		return http.StatusConflict
	case CodeAlreadyInitialized:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type. Two errors match under errors.Is when their
// codes are equal, so callers compare against the Err* values below.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string { return e.Message }

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns a copy of base carrying extra context.
func WithMetadata(base *Error, metadata map[string]string) *Error {
	return &Error{Code: base.Code, Message: base.Message, Metadata: metadata}
}

var (
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrInvalidValue       = New(CodeInvalidValue, "invalid value")
	ErrInvalidPercentages = New(CodeInvalidPercentages, "invalid percentages, must sum to 10000 bps")
	ErrMathOverflow       = New(CodeMathOverflow, "math overflow")
	ErrBidIsOver          = New(CodeBidIsOver, "bid is over, call endgame to start the next pot")
	ErrGameInProgress     = New(CodeGameInProgress, "game still in progress")
	ErrWrongWinner        = New(CodeWrongWinner, "winner account mismatch")
	ErrWrongFeeAccount    = New(CodeWrongFeeAccount, "fee account mismatch")
	ErrAlreadyInitialized = New(CodeAlreadyInitialized, "game already initialized")
	ErrNotInitialized     = New(CodeNotInitialized, "game not initialized")
	ErrInsufficientFunds  = New(CodeInsufficientFunds, "insufficient funds")
	ErrAccountMismatch    = New(CodeAccountMismatch, "account mismatch")
)
