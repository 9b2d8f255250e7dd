// Package apperr holds the sentinel errors shared across procforge packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation marks a request rejected before any state was touched.
	ErrValidation       = errors.New("validation failed")
	ErrApproverRequired = errors.New("approver name is required before export")

	ErrInvalidImport    = errors.New("invalid procedure file")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")

	// ErrLastRow is returned when removing the only remaining row of a list.
	ErrLastRow      = errors.New("cannot remove the last row")
	ErrUnknownField = errors.New("unknown field")
)
