package media

import "errors"

var (
	// ErrProberUnavailable indicates no duration prober is configured.
	ErrProberUnavailable = errors.New("media duration prober unavailable")
	// ErrUploadFailed indicates the media host rejected or failed an upload.
	ErrUploadFailed = errors.New("media upload failed")
	// ErrTooLarge indicates the upload exceeded the configured size limit.
	ErrTooLarge = errors.New("media file too large")
)
