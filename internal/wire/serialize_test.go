package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

func TestRequestToWire(t *testing.T) {
	headers, err := message.HeadersFromPairs("Accept", "text/html")
	if err != nil {
		t.Fatalf("HeadersFromPairs failed: %v", err)
	}
	req, err := message.NewRequest("GET", uri.MustParse("http://example.com/foo/bar?baz=bat"), stream.NewMemory("ignored"), headers)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	want := "GET /foo/bar?baz=bat HTTP/1.1\r\nHost: example.com\r\nAccept: text/html\r\n\r\n"
	if got := RequestToWire(req); got != want {
		t.Fatalf("wire mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestResponseToWire(t *testing.T) {
	headers, err := message.HeadersFromPairs("Content-Type", "text/plain", "X-Foo", "a", "X-Foo", "b")
	if err != nil {
		t.Fatalf("HeadersFromPairs failed: %v", err)
	}
	resp, err := message.NewResponse(nil, 200, headers)
	if err != nil {
		t.Fatalf("NewResponse failed: %v", err)
	}
	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nX-Foo: a,b\r\n\r\n"
	if got := ResponseToWire(resp); got != want {
		t.Fatalf("wire mismatch:\n got %q\nwant %q", got, want)
	}

	custom, err := message.NewResponse(nil, 299, nil)
	if err != nil {
		t.Fatalf("NewResponse failed: %v", err)
	}
	if got := ResponseToWire(custom); got != "HTTP/1.1 299\r\n\r\n" {
		t.Fatalf("empty reason mismatch: %q", got)
	}
}

func TestWireRoundTrip(t *testing.T) {
	raws := []string{
		"POST /foo HTTP/1.0\r\nContent-Type: text/plain\r\nX-Foo-Bar: Baz;Bat\r\n\r\n",
		"GET https://example.com/a?b=c HTTP/1.1\r\nHost: example.com\r\n\r\n",
		"OPTIONS * HTTP/1.1\r\nHost: www.example.com\r\n\r\n",
		"CONNECT www.example.com:80 HTTP/1.1\r\n\r\n",
		"HTTP/1.0 200 A-OK\r\nContent-Type: text/plain\r\n\r\n",
		"HTTP/1.1 299\r\n\r\n",
	}
	for _, raw := range raws {
		m, err := ParseMessage(raw)
		if err != nil {
			t.Fatalf("%q: parse failed: %v", raw, err)
		}
		got, err := ToWire(m)
		if err != nil {
			t.Fatalf("%q: ToWire failed: %v", raw, err)
		}
		if got != raw {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", got, raw)
		}
	}
}

func TestWriteResponseIncludesBody(t *testing.T) {
	resp, err := ParseResponse("HTTP/1.1 201 Created\r\nLocation: /items/1\r\n\r\n{\"id\":1}")
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	// body 를 한 번 소비해도 Write 는 처음부터 다시 씁니다.
	if _, err := resp.Body().Contents(); err != nil {
		t.Fatalf("Contents failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, resp); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "HTTP/1.1 201 Created\r\nLocation: /items/1\r\n\r\n{\"id\":1}"
	if buf.String() != want {
		t.Fatalf("output mismatch:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteRequestFromStream(t *testing.T) {
	src := stream.NewMemory("PUT /upload HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	req, err := ReadRequest(src)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatalf("WriteRequest failed: %v", err)
	}
	if got := buf.String(); got != "PUT /upload HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello" {
		t.Fatalf("output mismatch: %q", got)
	}
}

func TestWriteUnreadableBody(t *testing.T) {
	resp, err := message.NewTextResponse("", 200, nil)
	if err != nil {
		t.Fatalf("NewTextResponse failed: %v", err)
	}
	resp = resp.WithBody(stream.NewCallback(func() string { return "generated" }))

	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\r\n\r\ngenerated")) {
		t.Fatalf("callback body missing: %q", buf.String())
	}
}

func TestFilterOnSerialize(t *testing.T) {
	req, err := message.NewRequest("GET", uri.MustParse("/"), nil, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	want := "GET / HTTP/1.1\r\n\r\n"
	if got := RequestToWire(req); got != want {
		t.Fatalf("wire mismatch: %q", got)
	}
}

type otherMessage struct{ message.Message }

func TestToWireUnsupported(t *testing.T) {
	if _, err := ToWire(otherMessage{}); !errors.Is(err, ErrUnsupportedMessage) {
		t.Fatalf("expected ErrUnsupportedMessage, got %v", err)
	}
	if err := Write(&bytes.Buffer{}, otherMessage{}); !errors.Is(err, ErrUnsupportedMessage) {
		t.Fatalf("expected ErrUnsupportedMessage, got %v", err)
	}
}
