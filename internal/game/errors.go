package game

import "fmt"

// ProtocolError is a protocol-integrity fault: a payload that doesn't match its schema.
type ProtocolError struct {
	Topic string
	Msg   string
}

func (e *ProtocolError) Error() string {
	if e.Topic == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Topic, e.Msg)
}

// RejectedError is returned when the server declines a call.
type RejectedError struct {
	Endpoint string
	Reason   string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s rejected", e.Endpoint)
	}
	return fmt.Sprintf("%s rejected: %s", e.Endpoint, e.Reason)
}

// OutOfOrderError describes an event that arrived when it could not be applied.
type OutOfOrderError struct {
	Msg string
}

func (e *OutOfOrderError) Error() string {
	return e.Msg
}
