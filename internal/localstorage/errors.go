package localstorage

import "errors"

var (
	// ErrQuotaExceeded mirrors the browser's QuotaExceededError.
	ErrQuotaExceeded = errors.New("localstorage: quota exceeded")
	// ErrKeyRequired rejects empty keys.
	ErrKeyRequired = errors.New("localstorage: key is required")
	// ErrClosed is returned by areas used after Close.
	ErrClosed = errors.New("localstorage: area closed")
)
