package errx_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Abraxas-365/jobsched/pkg/errx"
)

var testErrors = errx.NewRegistry("TEST")

var (
	errMissing = testErrors.Register("MISSING", errx.TypeNotFound, 404, "Thing not found")
	errBusy    = testErrors.Register("BUSY", errx.TypeUnavailable, 503, "Busy")
)

func TestRegistry_PrefixesCodes(t *testing.T) {
	if errMissing.Code != "TEST_MISSING" {
		t.Fatalf("expected TEST_MISSING, got %s", errMissing.Code)
	}
	got, ok := testErrors.Get("BUSY")
	if !ok || got != errBusy {
		t.Fatal("expected BUSY to be registered")
	}
}

func TestIsCode_MatchesThroughWrapping(t *testing.T) {
	err := testErrors.New(errMissing).WithDetail("id", "42")
	wrapped := fmt.Errorf("lookup: %w", err)

	if !errx.IsCode(wrapped, errMissing) {
		t.Fatal("expected wrapped error to match its code")
	}
	if errx.IsCode(wrapped, errBusy) {
		t.Fatal("did not expect a match against a different code")
	}
	if errx.IsCode(nil, errMissing) {
		t.Fatal("nil never matches")
	}
}

func TestNewWithCause_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := testErrors.NewWithCause(errBusy, cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Error() != "[TEST_BUSY] Busy: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if errx.StatusOf(err) != 503 {
		t.Fatalf("expected 503, got %d", errx.StatusOf(err))
	}
	if errx.StatusOf(cause) != 500 {
		t.Fatal("plain errors map to 500")
	}
}

func TestWrap_KeepsCode(t *testing.T) {
	base := testErrors.New(errMissing)
	w := errx.Wrap(base, "while loading", errx.TypeInternal)
	if w.Code != errMissing.Code {
		t.Fatalf("expected code to survive Wrap, got %s", w.Code)
	}
	if errx.Wrap(nil, "x", errx.TypeInternal) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}
