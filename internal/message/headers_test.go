package message

import (
	"errors"
	"reflect"
	"testing"
)

func TestHeadersKeepFirstRegisteredCase(t *testing.T) {
	h, err := NewHeaders().With("X-Foo", "Foo")
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	h, err = h.WithAdded("x-foo", "Bar")
	if err != nil {
		t.Fatalf("WithAdded failed: %v", err)
	}

	want := map[string][]string{"X-Foo": {"Foo", "Bar"}}
	if got := h.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Map mismatch: got %v, want %v", got, want)
	}
	if got := h.Line("X-FOO"); got != "Foo,Bar" {
		t.Fatalf("Line mismatch: got %q, want %q", got, "Foo,Bar")
	}
}

func TestHeadersWithReplacesDifferentCapitalization(t *testing.T) {
	h, _ := NewHeaders().With("X-Foo", "foo")
	h2, err := h.With("X-foo", "bar")
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if got := h2.Names(); !reflect.DeepEqual(got, []string{"X-foo"}) {
		t.Fatalf("Names mismatch: got %v", got)
	}
	if got := h.Get("x-foo"); !reflect.DeepEqual(got, []string{"foo"}) {
		t.Fatalf("original headers must be unchanged, got %v", got)
	}
}

func TestHeadersWithoutIsCaseInsensitive(t *testing.T) {
	h, _ := HeadersFromPairs("X-Foo", "Foo", "x-foo", "Bar", "X-FOO", "Baz", "Accept", "*/*")
	h2 := h.Without("x-foo")
	if h2.Has("X-Foo") {
		t.Fatal("header must be removed regardless of case")
	}
	if h2.Len() != 1 || !h.Has("X-Foo") {
		t.Fatalf("Without must not touch the receiver: len=%d", h2.Len())
	}
	if h3 := h2.Without("Missing"); h3.Len() != 1 {
		t.Fatalf("removing a missing header must keep the rest, got %d", h3.Len())
	}
}

func TestHeadersPreserveInsertionOrder(t *testing.T) {
	h, _ := HeadersFromPairs("Host", "example.com", "Accept", "text/html", "X-Trace", "1")
	want := []string{"Host", "Accept", "X-Trace"}
	if got := h.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names mismatch: got %v, want %v", got, want)
	}
}

func TestHeadersRejectInjectionVectors(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"X-Foo\r-Bar", "value"},
		{"X-Foo\n-Bar", "value"},
		{"X-Foo\r\n-Bar", "value"},
		{"X-Foo\r\n\r\n-Bar", "value"},
		{"X-Foo-Bar", "value\rinjection"},
		{"X-Foo-Bar", "value\ninjection"},
		{"X-Foo-Bar", "value\r\ninjection"},
		{"X-Foo-Bar", "value\r\n\r\ninjection"},
	}
	for _, tc := range cases {
		if _, err := NewHeaders().With(tc.name, tc.value); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("With(%q, %q): expected ErrInvalidArgument, got %v", tc.name, tc.value, err)
		}
		if _, err := NewHeaders().WithAdded(tc.name, tc.value); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("WithAdded(%q, %q): expected ErrInvalidArgument, got %v", tc.name, tc.value, err)
		}
	}
}

func TestHeadersAllowContinuations(t *testing.T) {
	h, err := NewHeaders().With("X-Foo-Bar", "value,\r\n second value")
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if got := h.Line("X-Foo-Bar"); got != "value,\r\n second value" {
		t.Fatalf("Line mismatch: got %q", got)
	}
}

func TestNilHeadersBehaveAsEmpty(t *testing.T) {
	var h *Headers
	if h.Has("x") || h.Len() != 0 || h.Line("x") != "" || len(h.Get("x")) != 0 {
		t.Fatal("nil headers must behave as empty")
	}
	h2, err := h.WithAdded("X-A", "1")
	if err != nil || h2.Line("x-a") != "1" {
		t.Fatalf("WithAdded on nil mismatch: %v", err)
	}
}
