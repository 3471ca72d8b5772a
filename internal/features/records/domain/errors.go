package domain

import "errors"

// ErrSourceUnavailable is returned when a records list cannot be read (network failure,
// non-2xx status, timeout or an undecodable body).
var ErrSourceUnavailable = errors.New("records source unavailable")
