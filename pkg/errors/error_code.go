package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeEmptySeries  ErrorCode = 201

	// Strategy errors (400-499)
	ErrCodeUnknownStrategy    ErrorCode = 400
	ErrCodeDuplicateStrategy  ErrorCode = 401
	ErrCodeStrategyEvaluation ErrorCode = 402
	ErrCodeStrategyNotLoaded  ErrorCode = 403
	ErrCodeStrategyInitFailed ErrorCode = 404

	// Kernel errors (500-599)
	ErrCodeKernelFailure  ErrorCode = 500
	ErrCodeMalformedOrder ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 600
	ErrCodeBacktestNotReady    ErrorCode = 601
	ErrCodeInsolvency          ErrorCode = 602
	ErrCodeResultWriteFailed   ErrorCode = 603
)
