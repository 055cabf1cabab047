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
	ErrCodeOrderSizeExceeded    ErrorCode = 103
	ErrCodeUnsupportedMarket    ErrorCode = 104
	ErrCodeInvalidRiskLimits    ErrorCode = 105
	ErrCodeInvalidQuantity      ErrorCode = 106

	// Market data errors (200-299)
	ErrCodeQuoteUnavailable ErrorCode = 200
	ErrCodeTelemetryFailed  ErrorCode = 201

	// Trading errors (300-399)
	ErrCodeOrderNotFound        ErrorCode = 300
	ErrCodeAssetNotConfigured   ErrorCode = 301
	ErrCodeNoOpportunity        ErrorCode = 302
	ErrCodeSessionAlreadyActive ErrorCode = 303
	ErrCodeSessionNotFound      ErrorCode = 304

	// Risk errors (400-499)
	ErrCodeLimitsNotConfigured ErrorCode = 400
	ErrCodeAlertNotFound       ErrorCode = 401

	// Journal errors (500-599)
	ErrCodeJournalUnavailable ErrorCode = 500
	ErrCodeJournalWriteFailed ErrorCode = 501
	ErrCodeJournalQueryFailed ErrorCode = 502

	// Venue errors (600-699)
	ErrCodeVenueRejected  ErrorCode = 600
	ErrCodeVenueTimeout   ErrorCode = 601
	ErrCodeVenueCancelled ErrorCode = 602
)
