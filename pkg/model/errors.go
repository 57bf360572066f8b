package model

import "errors"

// ErrEmptyTitle is returned when a todo would be stored without a title.
var ErrEmptyTitle = errors.New("title cannot be empty")
