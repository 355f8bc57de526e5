package services

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

var (
	ErrToolNotFound     = fmt.Errorf("tool %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrRatingNotFound   = fmt.Errorf("rating %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)
	ErrParentNotFound   = fmt.Errorf("parent comment %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrDuplicateRating = fmt.Errorf("%w: you already rated this tool, update your rating instead", ErrConflict)
	ErrCategoryExists  = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrCategoryInUse   = fmt.Errorf("%w: category is still used by tools", ErrConflict)

	ErrNotOwner  = fmt.Errorf("%w: only the owner or an admin may change this", ErrForbidden)
	ErrAdminOnly = fmt.Errorf("%w: admin session required", ErrForbidden)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid admin credentials", ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("%w: admin session expired", ErrUnauthorized)
	ErrInvalidSession     = fmt.Errorf("%w: invalid admin session", ErrUnauthorized)

	ErrAdminDisabled = fmt.Errorf("admin login %w", ErrUnavailable)
)
