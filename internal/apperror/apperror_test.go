package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestOfClassified(t *testing.T) {
	err := Wrap(Transport, "dial upstream", errors.New("connection refused"))

	kind, ok := Of(err)
	if !ok {
		t.Fatalf("Of: expected ok=true for classified error")
	}
	if kind != Transport {
		t.Errorf("Of: got kind %v, want %v", kind, Transport)
	}
}

func TestOfUnclassified(t *testing.T) {
	kind, ok := Of(errors.New("plain error"))
	if ok {
		t.Errorf("Of: expected ok=false for unclassified error")
	}
	if kind != Internal {
		t.Errorf("Of: got kind %v, want %v", kind, Internal)
	}
}

func TestIs(t *testing.T) {
	err := New(Policy, "refused")
	if !Is(err, Policy) {
		t.Errorf("Is: expected true for matching kind")
	}
	if Is(err, Transport) {
		t.Errorf("Is: expected false for mismatched kind")
	}
}

func TestWrapPreservesCauseChain(t *testing.T) {
	root := errors.New("root cause")
	wrapped := Wrap(Internal, "outer", fmt.Errorf("middle: %w", root))

	if !errors.Is(wrapped, root) {
		t.Errorf("errors.Is: expected wrapped error to unwrap to root cause")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	withCause := Wrap(Application, "send failed", errors.New("409 conflict"))
	if got, want := withCause.Error(), "APPLICATION: send failed: 409 conflict"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noCause := New(Cancelled, "user interrupted")
	if got, want := noCause.Error(), "CANCELLED: user interrupted"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
