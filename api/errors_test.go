// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsWouldBlock_Wrapped(t *testing.T) {
	err := fmt.Errorf("recv batch: %w", ErrWouldBlock)
	if !IsWouldBlock(err) {
		t.Error("wrapped ErrWouldBlock not detected")
	}
	if IsWouldBlock(ErrInProgress) {
		t.Error("ErrInProgress misclassified as would-block")
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("invalid argument")
	err := &ConfigError{Option: "SO_RCVBUF", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConfigError must unwrap to its cause")
	}
	msg := err.Error()
	if msg == "" || !errors.Is(err, cause) {
		t.Errorf("unexpected message %q", msg)
	}
}
