package observability

import (
	"errors"
	"testing"

	"github.com/dalbodeule/hop-msg/internal/wire"
)

func TestParseResult(t *testing.T) {
	_, malformed := wire.ParseRequest("What is this mess?")
	_, invalid := wire.ParseResponse("HTTP/1.1 999 Nope\r\n\r\n")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"malformed start line", malformed, "malformed_start_line"},
		{"construction", invalid, "invalid_construction_argument"},
		{"other", errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := ParseResult(tc.err); got != tc.want {
			t.Errorf("%s: result mismatch: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}
