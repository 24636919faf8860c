package cards

import "fmt"

// MalformedCardError is returned for card strings that don't follow the wire format.
// Callers treat it as a protocol-integrity fault.
type MalformedCardError struct {
	Input  string
	Reason string
}

func (e *MalformedCardError) Error() string {
	return fmt.Sprintf("malformed card '%s': %s", e.Input, e.Reason)
}
