package cex

import (
	"errors"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	err := NewError(ErrInvalidKey, "RHX", "key length is not a legal size")

	if !errors.Is(err, ErrInvalidKey) {
		t.Error("errors.Is failed to match the sentinel")
	}
	if errors.Is(err, ErrInvalidIv) {
		t.Error("errors.Is matched the wrong sentinel")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Origin != "RHX" {
		t.Errorf("Origin = %q, want RHX", e.Origin)
	}

	if got, want := err.Error(), "RHX: invalid key length: key length is not a legal size"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := NewError(ErrNotInitialized, "CFB", "")
	if got, want := bare.Error(), "CFB: not initialized"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
