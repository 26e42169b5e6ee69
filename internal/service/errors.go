package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks user-input problems that the bot reports synchronously
// without touching storage.
var ErrValidation = errors.New("validation")

var (
	ErrEmptyTitle       = fmt.Errorf("%w: task title must not be empty", ErrValidation)
	ErrWeekdaysRequired = fmt.Errorf("%w: weekly task needs at least one weekday", ErrValidation)
)
