package catalog

import "errors"

var (
	ErrInvalidUploadSource = errors.New("invalid upload source")
	ErrCreateUploadJob     = errors.New("failed to create upload job")
	ErrJobNotFound         = errors.New("upload job not found")
	ErrUploadStatus        = errors.New("failed to query upload status")
	ErrCancelUpload        = errors.New("failed to cancel upload")
)
