package model

import "errors"

var (
	ErrEmptyTitle     = errors.New("event title is empty")
	ErrEmptyUtterance = errors.New("utterance is empty")
	ErrNotFound       = errors.New("not found")
	ErrListCompleted  = errors.New("shopping list is already completed")
	ErrUnknownItem    = errors.New("item is not on the shopping list")
	ErrUnparseable    = errors.New("utterance could not be parsed into an event")
	ErrInvalidStatus  = errors.New("invalid shopping list status")
)
