package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered to clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUnknownUser        = "UNKNOWN_USER"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeAlreadyAssigned    = "ALREADY_ASSIGNED"
	CodeInvalidAssignee    = "INVALID_ASSIGNEE"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// FieldViolation names one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldValidationError reports every violated field at once.
func NewFieldValidationError(violations []FieldViolation) error {
	return NewValidationError("validation failed", map[string]any{"errors": violations})
}

func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail, "email already exists", http.StatusBadRequest, map[string]any{"email": email})
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid email or password", http.StatusBadRequest, nil)
}

func NewMissingToken() error {
	return NewDomainError(CodeMissingToken, "authorization token missing", http.StatusUnauthorized, nil)
}

func NewInvalidToken(err error) error {
	return &DomainError{
		Code:       CodeInvalidToken,
		Message:    "invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewUnknownUser() error {
	return NewDomainError(CodeUnknownUser, "user doesn't exist", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidState, message, http.StatusBadRequest, details)
}

func NewAlreadyAssigned(details map[string]any) error {
	return NewDomainError(CodeAlreadyAssigned, "issue already assigned", http.StatusBadRequest, details)
}

func NewInvalidAssignee(facultyID string) error {
	return NewDomainError(CodeInvalidAssignee, "assigned faculty not found or invalid", http.StatusBadRequest,
		map[string]any{"assignedFacultyId": facultyID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError is ToDomainError returned as a plain error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
