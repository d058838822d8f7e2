package catalog

import "errors"

var (
	ErrVideoNotFound  = errors.New("video not found")
	ErrMissingVideoID = errors.New("video id is required")
	ErrPresignFailed  = errors.New("failed to presign playback url")
	ErrInvalidConfig  = errors.New("invalid storage configuration")
)
