package apperr

import (
	"errors"
	"testing"
)

func TestGridErrorUnwrapsToSentinel(t *testing.T) {
	err := RowOutOfRangeError("data.csv", 42)
	if !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("expected errors.Is to match ErrRowOutOfRange, got %v", err)
	}
}

func TestGridErrorMessageIncludesRow(t *testing.T) {
	err := RowOutOfRangeError("data.csv", 42)
	want := "slice data.csv row 42: row out of range"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStaleIndexErrorWrapsCause(t *testing.T) {
	detail := errors.New("size mismatch")
	err := StaleIndexError("data.csv", detail)
	if !IsStale(err) {
		t.Fatalf("expected IsStale to match ErrIndexStale, got %v", err)
	}
	var ge *GridError
	if !errors.As(err, &ge) {
		t.Fatal("expected GridError")
	}
	if ge.Context != "size mismatch" {
		t.Errorf("Context = %q, want %q", ge.Context, "size mismatch")
	}
}

func TestIsNotFound(t *testing.T) {
	err := New("open").File("missing.csv").Cause(ErrFileNotFound).Err()
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
	if IsNotFound(errors.New("unrelated")) {
		t.Error("expected IsNotFound to be false for unrelated error")
	}
}
