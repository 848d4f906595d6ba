package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrMalformedInput indicates an order export row that cannot be
	// parsed. It aborts the whole run: a bad order reference usually
	// means the export itself is corrupted.
	ErrMalformedInput = errors.New("malformed input")
)
