package common

import "errors"

var (

	// repository specific errors
	ErrNotFound = errors.New("not found")

	// service specific errors
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// auth-specific errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrLoginAlreadyExists     = errors.New("login already exists")
	ErrInvalidLoginOrPassword = errors.New("invalid login/password")

	// proposal-specific errors
	ErrValidation       = errors.New("validation error")
	ErrProposalFull     = errors.New("proposal is full")
	ErrProposalNotOwned = errors.New("proposal belongs to another user")
)
