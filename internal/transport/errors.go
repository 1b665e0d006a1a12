package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a transport failure
type Kind int

const (
	// ServiceUnavailable: no connection after the full retry budget
	ServiceUnavailable Kind = iota + 1
	// ConnectionLost: connected, but the peer went away mid-exchange
	ConnectionLost
	// ProtocolError: the response did not start with a valid frame header
	ProtocolError
)

// Sentinels for errors.Is; a *Error matches the sentinel of its Kind
var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrConnectionLost     = errors.New("connection lost")
	ErrProtocol           = errors.New("protocol error")
)

func (k Kind) String() string {
	switch k {
	case ServiceUnavailable:
		return "service unavailable"
	case ConnectionLost:
		return "connection lost"
	case ProtocolError:
		return "protocol error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case ServiceUnavailable:
		return ErrServiceUnavailable
	case ConnectionLost:
		return ErrConnectionLost
	case ProtocolError:
		return ErrProtocol
	}
	return nil
}

// Error is returned by Transport.Send for every failure
type Error struct {
	Kind     Kind
	Endpoint string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ServiceUnavailable:
		return fmt.Sprintf("failed to connect to %s after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
	case ConnectionLost:
		return fmt.Sprintf("lost connection to %s: %v", e.Endpoint, e.Err)
	case ProtocolError:
		return fmt.Sprintf("invalid response from %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of a transport error anywhere in err's chain, or 0
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
