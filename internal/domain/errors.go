package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUploadFailed         = errors.New("upload failed")
	ErrInferenceUnavailable = errors.New("inference unavailable")
	ErrMalformedOutput      = errors.New("malformed inference output")
	ErrPricingDomain        = errors.New("pricing domain violation")
)
