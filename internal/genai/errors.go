package genai

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the backend returned a success status but
// the body did not contain the expected field.
var ErrMalformedResponse = errors.New("malformed model response")

// RemoteError is returned when a model backend answers with a non-success
// HTTP status. Status and Body are preserved for diagnostics and are
// surfaced to API callers.
type RemoteError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// AsRemoteError unwraps err into a *RemoteError if one is in the chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
