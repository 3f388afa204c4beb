package apperrors

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeQuotaExceeded   Code = "QUOTA_EXCEEDED"
	CodeTooLarge        Code = "TOO_LARGE"
	CodeIOFailure       Code = "IO_FAILURE"
	CodeInternal        Code = "INTERNAL"
)
