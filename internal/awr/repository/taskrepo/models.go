package taskrepo

import "errors"

var (
	ErrNotFound        = errors.New("task not found")
	ErrBrigadeNotFound = errors.New("brigade not found")
)
