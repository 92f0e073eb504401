package model

import "errors"

var (
	ErrNotFound     = errors.New("job not found")
	ErrForbidden    = errors.New("job belongs to another user")
	ErrJobTerminal  = errors.New("job is already in a terminal state")
	ErrUnknownKind  = errors.New("unknown job kind")
	ErrInvalidInput = errors.New("invalid job input")
)
