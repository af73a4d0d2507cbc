package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// LDAPError provides enhanced error information for LDAP operations.
type LDAPError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided message
	DN        string        // DN involved in the operation (if applicable)
	Cause     error         // Underlying error
}

func (e *LDAPError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *LDAPError) Unwrap() error {
	return e.Cause
}

// NewLDAPError creates a new LDAP error for an operation on dn.
func NewLDAPError(operation, dn string, err error) *LDAPError {
	if err == nil {
		return nil
	}

	ldapErr := &LDAPError{
		Operation: operation,
		DN:        dn,
		Cause:     err,
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		ldapErr.LDAPCode = resultErr.ResultCode
		if resultErr.Err != nil {
			ldapErr.ServerMsg = resultErr.Err.Error()
		}
		ldapErr.Category = categorizeError(resultErr.ResultCode)
		ldapErr.Message = resultCodeMessage(resultErr.ResultCode)
	} else {
		ldapErr.Category = categorizeGenericError(err)
		ldapErr.Message = err.Error()
	}

	return ldapErr
}

// categorizeError categorizes an error based on LDAP result code.
func categorizeError(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute:
		return ErrorCategoryNotFound

	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultNotAllowedOnNonLeaf,
		ldap.LDAPResultAffectsMultipleDSAs:
		return ErrorCategoryConflict

	case ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation,
		ldap.LDAPResultConstraintViolation:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.ErrorNetwork,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGenericError categorizes non-LDAP errors by message.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection"),
		strings.Contains(errStr, "network"),
		strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "broken pipe"):
		return ErrorCategoryConnection
	case strings.Contains(errStr, "authentication"),
		strings.Contains(errStr, "credentials"),
		strings.Contains(errStr, "password"):
		return ErrorCategoryAuthentication
	case strings.Contains(errStr, "permission"),
		strings.Contains(errStr, "access"),
		strings.Contains(errStr, "denied"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}

// resultCodeMessage returns the go-ldap description of a result code.
func resultCodeMessage(code uint16) string {
	if msg, ok := ldap.LDAPResultCodeMap[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown LDAP error (code %d)", code)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		return ldapErr.Category
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		return categorizeError(resultErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// ConnectionError is returned when a connection cannot be opened at a path:
// bad credentials, unreachable service or a nonexistent path.
type ConnectionError struct {
	Path      string
	message   string
	retryable bool
	cause     error
}

func (e *ConnectionError) Error() string {
	msg := e.message
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Path)
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

func (e *ConnectionError) IsRetryable() bool {
	return e.retryable
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(path, message string, retryable bool, cause error) *ConnectionError {
	return &ConnectionError{
		Path:      path,
		message:   message,
		retryable: retryable,
		cause:     cause,
	}
}

// DirectoryReadError wraps a failure while enumerating or reading an
// already opened path.
type DirectoryReadError struct {
	Path  string
	Cause error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("directory read failed at %s: %v", e.Path, e.Cause)
}

func (e *DirectoryReadError) Unwrap() error {
	return e.Cause
}

// NewDirectoryReadError wraps cause unless it already is a DirectoryReadError.
func NewDirectoryReadError(path string, cause error) error {
	var readErr *DirectoryReadError
	if errors.As(cause, &readErr) {
		return cause
	}
	return &DirectoryReadError{Path: path, Cause: cause}
}
