package media

import (
	"errors"
	"testing"
)

// TestClassify verifies the textual failure classification against the
// messages the capture drivers actually produce.
func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"driver not found", errors.New("failed to find the best driver that fits the constraints"), ErrNotFound},
		{"device not found", errors.New("video device not found"), ErrNotFound},
		{"constraints unsatisfiable", errors.New("failed to find the best constraint"), ErrOverConstrained},
		{"overconstrained", errors.New("overconstrained width"), ErrOverConstrained},
		{"busy", errors.New("device busy"), ErrBusy},
		{"in use", errors.New("resource already in use"), ErrBusy},
		{"permission", errors.New("permission denied by system"), ErrPermissionDenied},
		{"unclassified", errors.New("something exploded"), ErrUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			de := classify(tc.err)
			if de.Kind != tc.want {
				t.Errorf("classify(%q): got kind %d, want %d", tc.err, de.Kind, tc.want)
			}
			if !errors.Is(de, tc.err) {
				t.Error("classified error lost its cause")
			}
		})
	}
}

// TestClassifyPreservesDeviceError verifies an already-classified error is
// returned unchanged instead of re-wrapped.
func TestClassifyPreservesDeviceError(t *testing.T) {
	orig := &DeviceError{Kind: ErrEmptyConstraints}
	if got := classify(orig); got != orig {
		t.Errorf("classify re-wrapped a DeviceError: got %+v", got)
	}
}

// TestDeviceErrorMessage verifies each kind has surfaceable text.
func TestDeviceErrorMessage(t *testing.T) {
	kinds := []ErrorKind{
		ErrUnknown, ErrNotFound, ErrBusy,
		ErrOverConstrained, ErrPermissionDenied, ErrEmptyConstraints,
	}
	for _, k := range kinds {
		e := &DeviceError{Kind: k}
		if e.Message() == "" {
			t.Errorf("kind %d has no message", k)
		}
		if e.Error() == "" {
			t.Errorf("kind %d has no error text", k)
		}
	}
}
