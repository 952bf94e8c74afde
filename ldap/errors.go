package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrResultsExhausted is returned by PagedSearchResults.Next once the result
// sequence has been fully consumed or closed.
var ErrResultsExhausted = errors.New("no more search results")

// ErrorCategory groups directory errors by where in the exchange they arose.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"     // transport-level failure
	ErrorCategoryAuthentication ErrorCategory = "authentication" // bind / credential failure
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server" // protocol-level failure during an operation
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// Error carries structured context for a failed directory operation. The
// top-level open sequence wraps both transport and bind failures into a
// single Error with Op "open"; Category preserves which stage failed so the
// distinction stays available for diagnostics.
type Error struct {
	Op         string        // the operation that failed
	Category   ErrorCategory // where in the exchange it failed
	ResultCode uint16        // LDAP result code, when the server produced one
	DN         string        // DN involved, if applicable
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	var parts []string

	if e.ResultCode > 0 {
		parts = append(parts, fmt.Sprintf("ldap %s failed (code %d)", e.Op, e.ResultCode))
		if msg, ok := ldap.LDAPResultCodeMap[e.ResultCode]; ok {
			parts = append(parts, msg)
		}
	} else {
		parts = append(parts, fmt.Sprintf("ldap %s failed", e.Op))
	}

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	if e.DN != "" {
		parts = append(parts, "DN: "+e.DN)
	}

	return strings.Join(parts, " - ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError wraps err with operation context, extracting the result code and
// category when err is a protocol-level *ldap.Error.
func NewError(op string, err error) *Error {
	if err == nil {
		return nil
	}

	e := &Error{
		Op:    op,
		Cause: err,
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		e.ResultCode = ldapErr.ResultCode
		e.Category = categorizeCode(ldapErr.ResultCode)
		e.Retryable = retryableCode(ldapErr.ResultCode)
	} else {
		e.Category = categorizeGeneric(err)
		e.Retryable = e.Category == ErrorCategoryConnection
	}

	return e
}

// categorizeCode maps an LDAP result code onto an error category.
func categorizeCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultFilterError:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultTimeout,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError,
		ldap.ErrorNetwork:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// retryableCode reports whether an LDAP result code indicates a transient
// condition.
func retryableCode(code uint16) bool {
	switch code {
	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultTimeout,
		ldap.LDAPResultConnectError,
		ldap.ErrorNetwork:
		return true
	default:
		return false
	}
}

// categorizeGeneric classifies non-protocol errors by message.
func categorizeGeneric(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "connection reset"):
		return ErrorCategoryConnection
	case strings.Contains(msg, "credentials"),
		strings.Contains(msg, "authentication"):
		return ErrorCategoryAuthentication
	default:
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return categorizeCode(ldapErr.ResultCode)
	}

	return categorizeGeneric(err)
}

// IsRetryableError checks if an error indicates a transient condition.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return retryableCode(ldapErr.ResultCode)
	}

	return categorizeGeneric(err) == ErrorCategoryConnection
}

// IsNotFoundError checks if an error indicates a "no such entry or attribute"
// condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsAuthenticationError checks if an error indicates a credential problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsConnectionError checks if an error indicates a transport problem.
func IsConnectionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConnection
}
