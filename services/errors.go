package services

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ServiceError is a business failure that maps onto an HTTP status.
type ServiceError struct {
	Type       string
	Message    string
	StatusCode int
}

func (e *ServiceError) Error() string {
	return e.Message
}

var (
	ErrNotFound          = &ServiceError{Type: "NOT_FOUND", Message: "record not found", StatusCode: http.StatusNotFound}
	ErrInvalidAmount     = &ServiceError{Type: "VALIDATION_ERROR", Message: "points amount must be positive", StatusCode: http.StatusBadRequest}
	ErrInvalidRating     = &ServiceError{Type: "VALIDATION_ERROR", Message: "rating must be between 0 and 5", StatusCode: http.StatusBadRequest}
	ErrInvalidStatus     = &ServiceError{Type: "VALIDATION_ERROR", Message: "status must be approved or rejected", StatusCode: http.StatusBadRequest}
	ErrAlreadyReviewed   = &ServiceError{Type: "CONFLICT", Message: "already reviewed", StatusCode: http.StatusConflict}
	ErrDuplicate         = &ServiceError{Type: "CONFLICT", Message: "an entry is already pending or approved", StatusCode: http.StatusConflict}
	ErrInvalidTransition = &ServiceError{Type: "CONFLICT", Message: "invalid status transition", StatusCode: http.StatusConflict}
	ErrChallengeClosed   = &ServiceError{Type: "BUSINESS_ERROR", Message: "challenge is not accepting entries", StatusCode: http.StatusUnprocessableEntity}
	ErrPackageInactive   = &ServiceError{Type: "BUSINESS_ERROR", Message: "package is not available", StatusCode: http.StatusUnprocessableEntity}
	ErrNoSessionsLeft    = &ServiceError{Type: "BUSINESS_ERROR", Message: "no sessions left", StatusCode: http.StatusUnprocessableEntity}
	ErrNotTeacher        = &ServiceError{Type: "BUSINESS_ERROR", Message: "user is not a teacher", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidSchedule   = &ServiceError{Type: "VALIDATION_ERROR", Message: "session must be scheduled in the future", StatusCode: http.StatusBadRequest}
	ErrForbidden         = &ServiceError{Type: "FORBIDDEN", Message: "not allowed", StatusCode: http.StatusForbidden}
	ErrInvalidToken      = &ServiceError{Type: "UNAUTHORIZED", Message: "invalid verification token", StatusCode: http.StatusUnauthorized}
)

// StatusCode returns the HTTP status for err; unknown errors are 500.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return http.StatusInternalServerError
}

// notFound converts gorm.ErrRecordNotFound into ErrNotFound naming the entity.
func notFound(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return err
}
