package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name          string
		op            string
		err           error
		wantNil       bool
		wantCode      uint16
		wantCategory  ErrorCategory
		wantRetryable bool
	}{
		{
			name:    "nil error",
			op:      "search",
			err:     nil,
			wantNil: true,
		},
		{
			name:          "invalid credentials",
			op:            "bind",
			err:           ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")),
			wantCode:      ldap.LDAPResultInvalidCredentials,
			wantCategory:  ErrorCategoryAuthentication,
			wantRetryable: false,
		},
		{
			name:          "server busy",
			op:            "search",
			err:           ldap.NewError(ldap.LDAPResultBusy, errors.New("try later")),
			wantCode:      ldap.LDAPResultBusy,
			wantCategory:  ErrorCategoryServer,
			wantRetryable: true,
		},
		{
			name:          "no such object",
			op:            "compare",
			err:           ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing")),
			wantCode:      ldap.LDAPResultNoSuchObject,
			wantCategory:  ErrorCategoryNotFound,
			wantRetryable: false,
		},
		{
			name:          "network error code",
			op:            "search",
			err:           ldap.NewError(ldap.ErrorNetwork, errors.New("broken pipe")),
			wantCode:      ldap.ErrorNetwork,
			wantCategory:  ErrorCategoryConnection,
			wantRetryable: true,
		},
		{
			name:          "generic connection error",
			op:            "connect",
			err:           errors.New("connection refused"),
			wantCategory:  ErrorCategoryConnection,
			wantRetryable: true,
		},
		{
			name:          "generic unknown error",
			op:            "search",
			err:           errors.New("something odd"),
			wantCategory:  ErrorCategoryUnknown,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewError(tt.op, tt.err)

			if tt.wantNil {
				if result != nil {
					t.Errorf("NewError() = %v, expected nil", result)
				}
				return
			}

			if result == nil {
				t.Fatal("NewError() = nil, expected non-nil")
			}
			if result.Op != tt.op {
				t.Errorf("Op = %s, expected %s", result.Op, tt.op)
			}
			if result.ResultCode != tt.wantCode {
				t.Errorf("ResultCode = %d, expected %d", result.ResultCode, tt.wantCode)
			}
			if result.Category != tt.wantCategory {
				t.Errorf("Category = %s, expected %s", result.Category, tt.wantCategory)
			}
			if result.IsRetryable() != tt.wantRetryable {
				t.Errorf("IsRetryable() = %v, expected %v", result.IsRetryable(), tt.wantRetryable)
			}
			if !errors.Is(result, tt.err) {
				t.Error("wrapped error lost: errors.Is failed")
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "basic",
			err: &Error{
				Op:    "search",
				Cause: errors.New("operation failed"),
			},
			want: "ldap search failed - operation failed",
		},
		{
			name: "with code",
			err: &Error{
				Op:         "bind",
				ResultCode: ldap.LDAPResultInvalidCredentials,
				Cause:      errors.New("authentication failed"),
			},
			want: "ldap bind failed (code 49) - Invalid Credentials - authentication failed",
		},
		{
			name: "with dn",
			err: &Error{
				Op:    "compare",
				DN:    "cn=user,dc=example,dc=com",
				Cause: errors.New("access denied"),
			},
			want: "ldap compare failed - access denied - DN: cn=user,dc=example,dc=com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := fmt.Errorf("context: %w", NewError("search", cause))

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As failed to find *Error")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is failed to reach the cause")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		notFound  bool
		auth      bool
		conn      bool
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "invalid credentials",
			err:  ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")),
			auth: true,
		},
		{
			name:     "no such attribute",
			err:      ldap.NewError(ldap.LDAPResultNoSuchAttribute, errors.New("missing")),
			notFound: true,
		},
		{
			name:      "server down",
			err:       ldap.NewError(ldap.LDAPResultServerDown, errors.New("gone")),
			retryable: true,
		},
		{
			name:      "wrapped connection error",
			err:       NewError("connect", errors.New("network unreachable")),
			retryable: true,
			conn:      true,
		},
		{
			name:      "plain timeout message",
			err:       errors.New("timeout waiting for response"),
			retryable: true,
			conn:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.retryable {
				t.Errorf("IsRetryableError() = %v, expected %v", got, tt.retryable)
			}
			if got := IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError() = %v, expected %v", got, tt.notFound)
			}
			if got := IsAuthenticationError(tt.err); got != tt.auth {
				t.Errorf("IsAuthenticationError() = %v, expected %v", got, tt.auth)
			}
			if got := IsConnectionError(tt.err); got != tt.conn {
				t.Errorf("IsConnectionError() = %v, expected %v", got, tt.conn)
			}
		})
	}
}
