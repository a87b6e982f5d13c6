package browse

import "errors"

var (
	// ErrNotFound covers missing paths and every sandbox rejection alike.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned for admitted paths that break a content
	// policy, such as the size ceiling.
	ErrForbidden = errors.New("forbidden")
	// ErrUnprocessable is returned when a binary file is requested for
	// text viewing.
	ErrUnprocessable = errors.New("unprocessable content")
)
