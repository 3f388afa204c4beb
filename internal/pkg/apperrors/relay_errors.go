package apperrors

var (
	// Domain errors — used in service/repository
	ErrMessageNotFound = NotFound("message not found")
	ErrFileNotFound    = NotFound("file not found or access denied")
	ErrQuotaExceeded   = QuotaExceeded("daily access code creation limit reached")
	ErrFileTooLarge    = TooLarge("file exceeds the maximum allowed size")
	ErrEmptyAccessCode = InvalidArg("access_code is required")
	ErrEmptyContent    = InvalidArg("content is required")
)

func ErrUploadFailed(cause error) error {
	return Wrap(CodeIOFailure, "file upload failed", cause)
}

func ErrStorageFailed(cause error) error {
	return Wrap(CodeInternal, "storage operation failed", cause)
}
