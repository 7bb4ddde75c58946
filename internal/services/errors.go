package services

import (
	"net/http"
	"strconv"
	"strings"

	"inquirydesk/internal/repository"
	apperrors "inquirydesk/pkg/errors"
)

// Client-facing messages.
const (
	MsgInvalidID          = "Invalid inquiry ID"
	MsgNoInquiries        = "No inquiries found"
	MsgInquiryNotFound    = repository.MsgInquiryNotFound
	MsgPhoneRequired      = "Phone Number is required"
	MsgFullNameRequired   = "Full Name is required"
	MsgBirthDateRequired  = "Date of Birth is required"
	MsgInvalidPhone       = "Invalid Phone Number format"
	MsgInvalidBirthDate   = "Invalid Date of Birth format"
	MsgInvalidBody        = "Invalid request body"
	MsgInternalServer     = "Internal Server Error"
	MsgInquiryAdded       = "Inquiry added successfully"
	MsgInquiryPatched     = "Inquiry patched successfully"
	MsgInquiryDeleted     = "Inquiry deleted successfully"
	MsgDashboardInternal  = "Internal server error"
	MsgUnauthorized       = "Invalid or expired token"
	MsgMissingAuthHeader  = "Authorization header required"
	MsgInvalidAuthHeader  = "Invalid authorization header format"
	MsgInvalidWebhookAuth = "Invalid webhook secret"
	MsgRateLimited        = "Too many requests"
	MsgInvalidCSV         = "Invalid CSV file"
	MsgEmptyCSV           = "CSV file has no rows"
	MsgCSVRequired        = "CSV file is required"
)

// NewValidationError creates a 400 error whose message is shown to the caller
func NewValidationError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeValidation, message)
}

// NewBadRequestError creates a 400 error for a request the server could not
// read at all, as opposed to one that failed field validation.
func NewBadRequestError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeBadRequest, message)
}

// NewRateLimitedError creates a 429 error
func NewRateLimitedError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeRateLimited, message)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeUnauthorized, message)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, message)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodeInternalError, message, err)
}

// StatusCode maps an error onto the HTTP status it is reported with.
func StatusCode(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a caller may see for err. Internal errors
// never leak their cause.
func PublicMessage(err error) string {
	if StatusCode(err) == http.StatusInternalServerError {
		return MsgInternalServer
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return MsgInternalServer
}

// ParseID parses a path id. Anything that is not a positive integer is a
// client error.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, NewValidationError(MsgInvalidID)
	}
	return id, nil
}

// ParsePositiveInt returns the value of a query parameter, or 0 when it is
// missing, non-numeric or not positive.
func ParsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
