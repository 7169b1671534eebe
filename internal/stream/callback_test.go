package stream

import (
	"errors"
	"testing"
)

func TestCallbackRunsOnce(t *testing.T) {
	calls := 0
	c := NewCallback(func() string {
		calls++
		return "foobarbaz"
	})

	if c.EOF() {
		t.Fatal("fresh callback stream must not be at EOF")
	}
	if got := c.String(); got != "foobarbaz" {
		t.Fatalf("String mismatch: got %q, want %q", got, "foobarbaz")
	}
	if !c.EOF() {
		t.Fatal("consumed callback stream must be at EOF")
	}
	if got, _ := c.Contents(); got != "" {
		t.Fatalf("second Contents must be empty, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("callback calls mismatch: got %d, want 1", calls)
	}
}

func TestCallbackRejectsCursorOperations(t *testing.T) {
	c := NewCallback(func() string { return "x" })

	if _, err := c.Read(make([]byte, 1)); !errors.Is(err, ErrUnreadable) || !errors.Is(err, ErrCallbackStream) {
		t.Errorf("Read error mismatch: got %v", err)
	}
	if _, err := c.Write([]byte("x")); !errors.Is(err, ErrUnwritable) {
		t.Errorf("Write error mismatch: got %v", err)
	}
	if _, err := c.Seek(0, 0); !errors.Is(err, ErrUnseekable) {
		t.Errorf("Seek error mismatch: got %v", err)
	}
	if _, err := c.Tell(); !errors.Is(err, ErrUntellable) {
		t.Errorf("Tell error mismatch: got %v", err)
	}
	if err := Rewind(c); !errors.Is(err, ErrUnseekable) {
		t.Errorf("Rewind error mismatch: got %v", err)
	}
	if _, ok := c.Size(); ok {
		t.Error("callback stream size must be unknown")
	}
}
