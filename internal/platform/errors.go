package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRemoteFetch is matched by every RemoteFetchError
var ErrRemoteFetch = errors.New("remote fetch failed")

// RemoteFetchError is a transport failure (Status 0) or a non-2xx response
type RemoteFetchError struct {
	Resource string
	Status   int
	Err      error
}

func (e *RemoteFetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d: %v", e.Resource, e.Status, e.Err)
}

func (e *RemoteFetchError) Unwrap() []error {
	return []error{ErrRemoteFetch, e.Err}
}

// Retryable reports whether another attempt may succeed
func (e *RemoteFetchError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}
