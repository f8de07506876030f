package health

import "errors"

// ErrCheckFailed is returned by [Run] when a required check fails.
var ErrCheckFailed = errors.New("health: check failed")
