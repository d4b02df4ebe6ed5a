package upstream

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout     = errors.New("upstream_timeout")
	ErrUnavailable = errors.New("upstream_unavailable")
)

type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider %s: unexpected status %d", e.Provider, e.StatusCode)
}
