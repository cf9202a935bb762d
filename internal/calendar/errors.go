package calendar

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// GatewayError wraps a failed Calendar API call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return "calendar " + e.Op + " failed: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries a 404 or 410 from the API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
}
