package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the fixed taxonomy for hardware failures.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrNotFound
	ErrBusy
	ErrOverConstrained
	ErrPermissionDenied
	ErrEmptyConstraints
)

// messages maps each kind to the human-readable text surfaced on the bus.
var messages = map[ErrorKind]string{
	ErrUnknown:          "unknown media error",
	ErrNotFound:         "requested device not found",
	ErrBusy:             "device is already in use",
	ErrOverConstrained:  "constraints cannot be satisfied by any device",
	ErrPermissionDenied: "permission to access the device was denied",
	ErrEmptyConstraints: "no audio or video constraints were given",
}

// DeviceError wraps a hardware failure with its classified kind.
type DeviceError struct {
	Kind ErrorKind
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return messages[e.Kind]
	}
	return fmt.Sprintf("%s: %v", messages[e.Kind], e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Message returns the classified human-readable description.
func (e *DeviceError) Message() string { return messages[e.Kind] }

// classify maps an underlying capture failure onto the error taxonomy.
// pion/mediadevices reports failures as strings, so matching is textual.
func classify(err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	msg := strings.ToLower(err.Error())
	kind := ErrUnknown
	switch {
	case strings.Contains(msg, "permission"):
		kind = ErrPermissionDenied
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		kind = ErrBusy
	case strings.Contains(msg, "failed to find the best driver"),
		strings.Contains(msg, "not found"):
		kind = ErrNotFound
	case strings.Contains(msg, "failed to find the best constraint"),
		strings.Contains(msg, "overconstrained"):
		kind = ErrOverConstrained
	case strings.Contains(msg, "no constraints"):
		kind = ErrEmptyConstraints
	}
	return &DeviceError{Kind: kind, Err: err}
}
