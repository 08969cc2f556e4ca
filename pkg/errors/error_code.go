package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidClockTime     ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInsufficientWarmup   ErrorCode = 106
	ErrCodeInvalidVariant       ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeBarOutOfOrder         ErrorCode = 203
	ErrCodeWriteFailed           ErrorCode = 204

	// Option resolution errors (300-399)
	ErrCodeNoValidExpiry    ErrorCode = 300
	ErrCodePriceUnavailable ErrorCode = 301
	ErrCodeInvalidStrike    ErrorCode = 302

	// Position management errors (500-599)
	ErrCodeInvalidTransition ErrorCode = 500
	ErrCodePositionNotFound  ErrorCode = 501
	ErrCodeEquityOutOfOrder  ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoDatasource ErrorCode = 608
	ErrCodeBacktestNoData       ErrorCode = 609
)
