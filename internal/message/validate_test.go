package message

import (
	"errors"
	"testing"
)

func TestFilterHeaderValue(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"This is a\n test", "This is a test"},
		{"This is a\r test", "This is a test"},
		{"This is a\n\r test", "This is a test"},
		{"This is a\r\n  test", "This is a\r\n  test"},
		{"This is a \r\ntest", "This is a test"},
		{"This is a \r\n\n test", "This is a  test"},
		{"This is a\n\n test", "This is a test"},
		{"This is a\r\r test", "This is a test"},
		{"This is a \r\r\n test", "This is a \r\n test"},
		{"This is a \r\n\r\ntest", "This is a test"},
		{"This is a \r\n\n\r\n test", "This is a \r\n test"},
	}
	for _, tc := range cases {
		if got := FilterHeaderValue(tc.in); got != tc.want {
			t.Errorf("FilterHeaderValue(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidHeaderValue(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"This is a\n test", false},
		{"This is a\r test", false},
		{"This is a\n\r test", false},
		{"This is a\r\n  test", true},
		{"This is a \r\ntest", false},
		{"This is a \r\n\n test", false},
		{"This is a\n\n test", false},
		{"This is a\r\r test", false},
		{"This is a \r\r\n test", false},
		{"This is a \r\n\r\ntest", false},
		{"This is a \r\n\n\r\n test", false},
		{"This is a \xFF test", false},
		{"This is a \x7F test", false},
		{"This is a \x7E test", true},
		{"caf\xC3\xA9", true},
		{"trailing fold\r\n", false},
	}
	for _, tc := range cases {
		if got := ValidHeaderValue(tc.in); got != tc.valid {
			t.Errorf("ValidHeaderValue(%q): got %v, want %v", tc.in, got, tc.valid)
		}
		err := AssertValidHeaderValue(tc.in)
		if tc.valid && err != nil {
			t.Errorf("AssertValidHeaderValue(%q): unexpected error %v", tc.in, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("AssertValidHeaderValue(%q): expected ErrInvalidArgument, got %v", tc.in, err)
		}
	}
}

func TestValidMethodAndProtocol(t *testing.T) {
	for _, m := range []string{"GET", "PROPFIND", "#!ALPHA-1234&%"} {
		if !ValidMethod(m) {
			t.Errorf("method %q should be valid", m)
		}
	}
	for _, m := range []string{"", "BOGUS METHOD"} {
		if ValidMethod(m) {
			t.Errorf("method %q should be invalid", m)
		}
	}
	for _, v := range []string{"1.0", "1.1", "2"} {
		if !ValidProtocolVersion(v) {
			t.Errorf("protocol %q should be valid", v)
		}
	}
	for _, v := range []string{"1", "1.2", "1.2.3", "2.0", ""} {
		if ValidProtocolVersion(v) {
			t.Errorf("protocol %q should be invalid", v)
		}
	}
}
