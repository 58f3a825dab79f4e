package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	errKVNotConfigured      = domainError(http.StatusInternalServerError, "KV_NOT_CONFIGURED", "KV is not configured (missing env vars)", nil)
	errUnauthorized         = domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	errContactNotConfigured = domainError(http.StatusInternalServerError, "CONTACT_NOT_CONFIGURED", "Contact form is not configured", nil)
	errMessagesUnavailable  = domainError(http.StatusServiceUnavailable, "MESSAGES_UNAVAILABLE", "Message storage is not configured", nil)
	errMediaNotConfigured   = domainError(http.StatusServiceUnavailable, "MEDIA_NOT_CONFIGURED", "Media storage is not configured", nil)
)

func invalidBody(message string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_BODY", message, nil)
}

func validationFailed(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

// storeError reports a backend failure with the underlying cause as detail.
func storeError(message string, cause error) *DomainError {
	detail := "Unknown error"
	if cause != nil {
		detail = cause.Error()
	}
	return domainError(http.StatusInternalServerError, "SERVER_ERROR", message, detail)
}
