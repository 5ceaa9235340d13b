package services

import "errors"

var (
	ErrDuplicateIdentity = errors.New("username or email already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid password")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrBadRequest        = errors.New("bad request")
	ErrUpstreamFailure   = errors.New("upstream provider failure")
	ErrUnavailable       = errors.New("service not configured")
)
