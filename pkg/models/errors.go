package models

import "errors"

// Error kinds surfaced by the query interface. Callers match them with errors.Is;
// the wrapping error carries the path or id involved.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrIO           = errors.New("io error")
	ErrDecode       = errors.New("decode error")
)
