package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"metric conflict", ErrMetricConflict, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"resource exhausted", ErrResourceExhausted, false},
		{"invalid capacity", ErrInvalidCapacity, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"resource exhausted", ErrResourceExhausted, true},
		{"capacity exceeded", ErrCapacityExceeded, true},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"invalid capacity", ErrInvalidCapacity, false},
		{"wrapped exhausted", fmt.Errorf("reserve: %w", ErrResourceExhausted), true},
		{"out of memory message", fmt.Errorf("runtime: out of memory"), true},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: ErrResourceExhausted}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid data", ErrInvalidData, true},
		{"invalid capacity", ErrInvalidCapacity, true},
		{"resource exhausted", ErrResourceExhausted, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"metric conflict", ErrMetricConflict, ErrorTransient},
		{"exhausted", ErrResourceExhausted, ErrorFatal},
		{"capacity exceeded", ErrCapacityExceeded, ErrorFatal},
		{"invalid capacity", ErrInvalidCapacity, ErrorInvalid},
		{"wrapped fatal", WrapFatal(ErrResourceExhausted, "RingBuffer", "Reserve", "allocate"), ErrorFatal},
		{"unknown", fmt.Errorf("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	ce := newClassified(ErrorFatal, baseErr, "RingBuffer", "Reserve", "custom message")

	if ce.Class != ErrorFatal {
		t.Errorf("expected ErrorFatal, got %v", ce.Class)
	}
	if ce.Component != "RingBuffer" {
		t.Errorf("expected RingBuffer, got %s", ce.Component)
	}
	if ce.Operation != "Reserve" {
		t.Errorf("expected Reserve, got %s", ce.Operation)
	}
	if ce.Error() != "custom message" {
		t.Errorf("expected 'custom message', got %s", ce.Error())
	}
	if !errors.Is(ce, baseErr) {
		t.Error("classified error should unwrap to base error")
	}
}

func TestClassifiedError_NoMessage(t *testing.T) {
	ce := newClassified(ErrorTransient, fmt.Errorf("base error"), "c", "o", "")

	if ce.Error() != "base error" {
		t.Errorf("expected 'base error', got %s", ce.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "component", "method", "action") != nil {
		t.Error("expected nil for nil error")
	}

	result := Wrap(fmt.Errorf("original error"), "SendBuffer", "Grow", "reserve frames")
	expected := "SendBuffer.Grow: reserve frames failed: original error"
	if result == nil || result.Error() != expected {
		t.Errorf("expected '%s', got '%v'", expected, result)
	}
}

func TestWrapClassified(t *testing.T) {
	baseErr := fmt.Errorf("original error")

	tests := []struct {
		name     string
		wrapFunc func(error, string, string, string) error
		class    ErrorClass
	}{
		{"WrapTransient", WrapTransient, ErrorTransient},
		{"WrapFatal", WrapFatal, ErrorFatal},
		{"WrapInvalid", WrapInvalid, ErrorInvalid},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrapFunc(nil, "component", "method", "action") != nil {
				t.Error("wrapping nil should return nil")
			}

			result := test.wrapFunc(baseErr, "component", "method", "action")

			var ce *ClassifiedError
			if !errors.As(result, &ce) {
				t.Fatal("result should be a ClassifiedError")
			}
			if ce.Class != test.class {
				t.Errorf("expected %v, got %v", test.class, ce.Class)
			}
			if !strings.Contains(ce.Error(), "component.method: action failed") {
				t.Errorf("error should contain standard format, got: %s", ce.Error())
			}
			if !errors.Is(result, baseErr) {
				t.Error("wrapped error should keep the base error in its chain")
			}
		})
	}
}

func TestForwarders(t *testing.T) {
	err := Wrap(ErrCapacityExceeded, "RingBuffer", "Reserve", "check limit")

	if !Is(err, ErrCapacityExceeded) {
		t.Error("Is should see through Wrap")
	}

	var ce *ClassifiedError
	if As(err, &ce) {
		t.Error("plain Wrap should not produce a ClassifiedError")
	}

	if New("x").Error() != "x" {
		t.Error("New should format as its text")
	}
}
