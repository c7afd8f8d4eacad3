package userrepo

import "errors"

var (
	ErrNotFound        = errors.New("user not found")
	ErrAlreadyExists   = errors.New("user already exists")
	ErrBrigadeNotFound = errors.New("brigade not found")
)
