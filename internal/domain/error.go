package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Action preconditions
	ErrAPIKeyMissing = errors.New("api key is not set")
	ErrNoDocument    = errors.New("no document uploaded")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrBusy          = errors.New("another request is in progress")

	// Backend exchange
	ErrRequestFailed   = errors.New("request failed")
	ErrInvalidResponse = errors.New("invalid response from api")
)
