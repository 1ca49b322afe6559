package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoAuthenticator = errors.New("no credentials configured")
	ErrUnbound         = errors.New("no client method bound to operation")
)

// TransportError is a non-2xx response or a failed round trip. Status is zero
// when no response was received.
type TransportError struct {
	Status int
	Reason string
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("request failed")
	if e.Status != 0 {
		reason := e.Reason
		if reason == "" {
			reason = http.StatusText(e.Status)
		}
		fmt.Fprintf(&b, ": %d %s", e.Status, reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type AuthenticationError struct {
	Scopes []string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("cannot obtain token for scopes [%s]: %v", strings.Join(e.Scopes, " "), e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// MissingParameterError reports a required path or query parameter without a
// value. Flag names the command-line option that supplies it.
type MissingParameterError struct {
	Operation string
	Flag      string
	Name      string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("operation %s requires a value for %s %s", e.Operation, e.Flag, e.Name)
}

// ArgumentError reports an unusable --url-suffix or --endpoint-args value.
type ArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("malformed argument %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid argument %s=%q: %s", e.Name, e.Value, e.Reason)
}
