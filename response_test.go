package imap

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		err    *Error
		target error
		want   bool
	}{
		{&Error{Type: StatusResponseTypeNo, Code: ResponseCodeAuthenticationFailed, Text: "bad"}, ErrAuthFailed, true},
		{&Error{Type: StatusResponseTypeNo, Code: ResponseCodeOverQuota, Text: "full"}, ErrOverQuota, true},
		{&Error{Type: StatusResponseTypeNo, Text: "Quota exceeded"}, ErrOverQuota, true},
		{&Error{Type: StatusResponseTypeNo, Code: ResponseCodeTryCreate, Text: "quota"}, ErrOverQuota, false},
		{&Error{Type: StatusResponseTypeNo, Code: ResponseCodeNoPerm, Text: "denied"}, ErrNoPerm, true},
		{&Error{Type: StatusResponseTypeNo, Text: "Permission denied"}, ErrNoPerm, true},
		{&Error{Type: StatusResponseTypeBad, Text: "parse error"}, ErrNoPerm, false},
	}
	for _, tc := range tests {
		wrapped := fmt.Errorf("op: %w", tc.err)
		assert.Equal(t, tc.want, errors.Is(wrapped, tc.target), tc.err.Error())
	}
}

func TestErrorText(t *testing.T) {
	err := &Error{Type: StatusResponseTypeNo, Code: ResponseCodeNoPerm, Text: "Nope, not you"}
	assert.Equal(t, "imap: NO [NOPERM] Nope, not you", err.Error())
}

func TestSeveredError(t *testing.T) {
	err := fmt.Errorf("select: %w", &SeveredError{Err: io.EOF})
	assert.ErrorIs(t, err, ErrSevered)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrBadState)
}

func TestStateError(t *testing.T) {
	err := &StateError{Op: "FETCH", Have: ConnStateAuthenticated, Want: []ConnState{ConnStateSelected}}
	assert.ErrorIs(t, err, ErrBadState)
	assert.Equal(t, "imap: FETCH requires state selected, connection is authenticated", err.Error())
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Mechanism: "PLAIN", Err: &Error{Type: StatusResponseTypeNo, Text: "invalid"}}
	assert.ErrorIs(t, err, ErrAuthFailed)
	var imapErr *Error
	assert.ErrorAs(t, err, &imapErr)
}
