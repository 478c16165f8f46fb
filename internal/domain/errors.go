package domain

import "errors"

var (
	ErrNotFound              = errors.New("resource not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrUnknownProvider       = errors.New("unknown provider id")
	ErrNoProvidersSelected   = errors.New("at least one provider must be selected")
	ErrDuplicateProvider     = errors.New("provider selected more than once")
	ErrInvalidTimeout        = errors.New("provider timeout must be greater than zero")
	ErrInvalidPageScope      = errors.New("page number is out of range for this document")
	ErrPoolTooSmall          = errors.New("battle pool must contain at least two providers")
	ErrFixedPairInvalid      = errors.New("fixed pair must name two distinct providers from the pool")
	ErrBattleNotFound        = errors.New("battle run not found")
	ErrFeedbackAlreadyExists = errors.New("feedback already submitted for this battle")
	ErrInvalidPreference     = errors.New("preferred labels must be drawn from A, B, tie, none")
	ErrPricingUnavailable    = errors.New("pricing unavailable for this provider and selection")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrFileTooLarge          = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed          = errors.New("file upload to storage failed")
)
