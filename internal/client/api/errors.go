package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/passvault/internal/common"
)

var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx answer from the server. It matches the common sentinel
// for its status via errors.Is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == common.ErrorValidation
	case http.StatusUnauthorized:
		return target == common.ErrorUnauthorized
	case http.StatusNotFound:
		return target == common.ErrorNotFound
	case http.StatusConflict:
		return target == common.ErrorAlreadyExists
	case http.StatusServiceUnavailable:
		return target == common.ErrorUnavailable
	default:
		return target == common.ErrorInternal
	}
}
