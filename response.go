package imap

import (
	"errors"
	"fmt"
	"strings"
)

// StatusResponseType is a generic status response type.
type StatusResponseType string

const (
	StatusResponseTypeOK      StatusResponseType = "OK"
	StatusResponseTypeNo      StatusResponseType = "NO"
	StatusResponseTypeBad     StatusResponseType = "BAD"
	StatusResponseTypePreAuth StatusResponseType = "PREAUTH"
	StatusResponseTypeBye     StatusResponseType = "BYE"
)

// ResponseCode is a response code.
type ResponseCode string

const (
	ResponseCodeAlert                ResponseCode = "ALERT"
	ResponseCodeAlreadyExists        ResponseCode = "ALREADYEXISTS"
	ResponseCodeAuthenticationFailed ResponseCode = "AUTHENTICATIONFAILED"
	ResponseCodeAuthorizationFailed  ResponseCode = "AUTHORIZATIONFAILED"
	ResponseCodeBadCharset           ResponseCode = "BADCHARSET"
	ResponseCodeCannot               ResponseCode = "CANNOT"
	ResponseCodeCapability           ResponseCode = "CAPABILITY"
	ResponseCodeContactAdmin         ResponseCode = "CONTACTADMIN"
	ResponseCodeExpired              ResponseCode = "EXPIRED"
	ResponseCodeInUse                ResponseCode = "INUSE"
	ResponseCodeLimit                ResponseCode = "LIMIT"
	ResponseCodeNonExistent          ResponseCode = "NONEXISTENT"
	ResponseCodeNoPerm               ResponseCode = "NOPERM"
	ResponseCodeOverQuota            ResponseCode = "OVERQUOTA"
	ResponseCodeParse                ResponseCode = "PARSE"
	ResponseCodePermanentFlags       ResponseCode = "PERMANENTFLAGS"
	ResponseCodePrivacyRequired      ResponseCode = "PRIVACYREQUIRED"
	ResponseCodeReadOnly             ResponseCode = "READ-ONLY"
	ResponseCodeReadWrite            ResponseCode = "READ-WRITE"
	ResponseCodeTryCreate            ResponseCode = "TRYCREATE"
	ResponseCodeUIDNext              ResponseCode = "UIDNEXT"
	ResponseCodeUIDValidity          ResponseCode = "UIDVALIDITY"
	ResponseCodeUnavailable          ResponseCode = "UNAVAILABLE"
	ResponseCodeUnseen               ResponseCode = "UNSEEN"

	// UIDPLUS
	ResponseCodeAppendUID ResponseCode = "APPENDUID"
	ResponseCodeCopyUID   ResponseCode = "COPYUID"

	// APPENDLIMIT
	ResponseCodeTooBig ResponseCode = "TOOBIG"
)

// StatusResponse is a generic status response.
//
// See RFC 3501 section 7.1.
type StatusResponse struct {
	Type StatusResponseType
	Code ResponseCode
	Text string
}

// Error is an IMAP error caused by a NO or BAD status response.
//
// The Text field is the server's message, passed through verbatim.
type Error StatusResponse

var _ error = (*Error)(nil)

// Error implements the error interface.
func (err *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "imap: %v", err.Type)
	if err.Code != "" {
		fmt.Fprintf(&sb, " [%v]", err.Code)
	}
	text := err.Text
	if text == "" {
		text = "<unknown>"
	}
	fmt.Fprintf(&sb, " %v", text)
	return sb.String()
}

// Is maps the response to the most specific sentinel error: ErrAuthFailed,
// ErrOverQuota or ErrNoPerm. The response code is used when present, the
// text otherwise.
func (err *Error) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return err.Code == ResponseCodeAuthenticationFailed ||
			err.Code == ResponseCodeAuthorizationFailed ||
			err.Code == ResponseCodeExpired
	case ErrOverQuota:
		if err.Code == ResponseCodeOverQuota || err.Code == ResponseCodeTooBig {
			return true
		}
		return err.Code == "" && strings.Contains(strings.ToLower(err.Text), "quota")
	case ErrNoPerm:
		if err.Code == ResponseCodeNoPerm {
			return true
		}
		text := strings.ToLower(err.Text)
		return err.Code == "" && (strings.Contains(text, "permission") || strings.Contains(text, "not allowed"))
	}
	return false
}

var (
	// ErrSevered is matched by errors reporting that the connection was
	// lost. The connection is unusable afterwards.
	ErrSevered = errors.New("imap: connection severed")
	// ErrBadState is matched by errors reporting that an operation was
	// attempted in the wrong connection state.
	ErrBadState = errors.New("imap: operation not permitted in this state")
	// ErrEmptyInput is returned when an operation requires a non-empty
	// argument.
	ErrEmptyInput = errors.New("imap: empty input")
	// ErrCancelled is returned when the user cancelled a credentials prompt.
	ErrCancelled = errors.New("imap: cancelled")
	// ErrAuthFailed is matched by errors reporting rejected credentials.
	ErrAuthFailed = errors.New("imap: authentication failed")
	// ErrAuthUnavailable is returned when no configured mechanism can be
	// used with the server.
	ErrAuthUnavailable = errors.New("imap: no usable authentication mechanism")
	// ErrOverQuota is matched by rejections caused by a quota limit.
	ErrOverQuota = errors.New("imap: quota exceeded")
	// ErrNoPerm is matched by rejections caused by missing access rights.
	ErrNoPerm = errors.New("imap: permission denied")
	// ErrSortMismatch is returned when a server SORT result does not cover
	// the requested messages.
	ErrSortMismatch = errors.New("imap: server returned a wrong number of sorted messages")
	// ErrCapability is matched by errors reporting a missing server
	// capability.
	ErrCapability = errors.New("imap: capability not supported by server")
)

// SeveredError reports a fatal loss of the connection.
type SeveredError struct {
	Err error
}

func (err *SeveredError) Error() string {
	return fmt.Sprintf("imap: connection severed: %v", err.Err)
}

func (err *SeveredError) Unwrap() error {
	return err.Err
}

func (err *SeveredError) Is(target error) bool {
	return target == ErrSevered
}

// ProtocolError reports a malformed or unexpected server reply. The
// connection remains usable.
type ProtocolError struct {
	Err error
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("imap: protocol error: %v", err.Err)
}

func (err *ProtocolError) Unwrap() error {
	return err.Err
}

// StateError reports a precondition failure on the connection state.
type StateError struct {
	Op   string
	Have ConnState
	Want []ConnState
}

func (err *StateError) Error() string {
	want := make([]string, len(err.Want))
	for i, state := range err.Want {
		want[i] = state.String()
	}
	return fmt.Sprintf("imap: %v requires state %v, connection is %v", err.Op, strings.Join(want, " or "), err.Have)
}

func (err *StateError) Is(target error) bool {
	return target == ErrBadState
}

// CapabilityError reports a capability the operation needs but the server
// does not advertise.
type CapabilityError struct {
	Op  string
	Cap Cap
}

func (err *CapabilityError) Error() string {
	return fmt.Sprintf("imap: %v requires capability %v", err.Op, err.Cap)
}

func (err *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}

// AuthError reports a rejected authentication attempt.
type AuthError struct {
	Mechanism string
	Err       error
}

func (err *AuthError) Error() string {
	return fmt.Sprintf("imap: %v authentication failed: %v", err.Mechanism, err.Err)
}

func (err *AuthError) Unwrap() error {
	return err.Err
}

func (err *AuthError) Is(target error) bool {
	return target == ErrAuthFailed
}
