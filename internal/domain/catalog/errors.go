package catalog

import "errors"

var (
	ErrSourceUnavailable    = errors.New("source file unavailable")
	ErrEmptyInput           = errors.New("file is empty or has no valid data rows")
	ErrConstraintViolation  = errors.New("catalog constraint violation")
	ErrDuplicateSKU         = errors.New("product with this sku already exists")
	ErrProductNotFound      = errors.New("product not found")
	ErrJobNotFound          = errors.New("upload job not found")
	ErrSubscriptionNotFound = errors.New("webhook subscription not found")
)
