package broker

import "fmt"

// Code is one of the four failure categories surfaced to broker callers.
type Code string

const (
	Disconnected  Code = "DISCONNECTED"
	Timeout       Code = "TIMEOUT"
	TransportErr  Code = "TRANSPORT_ERROR"
	ProtocolError Code = "PROTOCOL_ERROR"
)

// Error is the sentinel-wrapped broker failure type; callers use errors.As
// to recover the Code and TraceID.
type Error struct {
	Code    Code
	TraceID string
	Message string
}

func (e *Error) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("%s: %s (trace=%s)", e.Code, e.Message, e.TraceID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is supports errors.Is(err, Disconnected) and friends by treating Code
// values as sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
