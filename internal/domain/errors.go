package domain

import "errors"

var (
	// ErrNotAdmin is returned when a non-privileged caller invokes an admin operation.
	ErrNotAdmin = errors.New("admin privileges required")
	// ErrEmptyMessage indicates a broadcast or ask without text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotRegistered is returned when a user must /register first.
	ErrNotRegistered = errors.New("user not registered")
	// ErrNoQuestions indicates the question store is empty.
	ErrNoQuestions = errors.New("no quiz questions available")
	// ErrQuizInProgress is returned when starting a quiz while one is active.
	ErrQuizInProgress = errors.New("quiz already in progress")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrOptionOutOfRange indicates a submitted option index is invalid.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrMaterialNotFound indicates the requested file is missing or unsafe.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrRecipientUnavailable is returned by transports that cannot reach a recipient.
	ErrRecipientUnavailable = errors.New("recipient unavailable")
)
