package core

import "errors"

var (
	ErrBadToken     = errors.New("invalid anti-forgery token")
	ErrDuplicate    = errors.New("already exists")
	ErrInUse        = errors.New("still in use")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)
