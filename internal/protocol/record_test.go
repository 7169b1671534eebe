package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestRequestRecordKeys(t *testing.T) {
	rec := RequestToRecord(testRequest(t))

	for _, key := range []string{"method", "request_target", "uri", "protocol_version", "headers", "body"} {
		if _, ok := rec[key]; !ok {
			t.Errorf("missing key %q in request record", key)
		}
	}
	if rec["method"] != "POST" {
		t.Errorf("method mismatch: got %v, want %v", rec["method"], "POST")
	}
	if rec["request_target"] != "/api/items?id=7" {
		t.Errorf("request_target mismatch: got %v, want %v", rec["request_target"], "/api/items?id=7")
	}
	if rec["uri"] != "https://example.com/api/items?id=7" {
		t.Errorf("uri mismatch: got %v", rec["uri"])
	}
	headers := rec["headers"].(map[string]any)
	multi, ok := headers["X-Multi"].([]any)
	if !ok || len(multi) != 2 || multi[0] != "a" || multi[1] != "b" {
		t.Errorf("X-Multi mismatch: got %v", headers["X-Multi"])
	}
	if host := headers["Host"].([]any); host[0] != "example.com" {
		t.Errorf("Host mismatch: got %v, want %v", host[0], "example.com")
	}
}

func TestRequestFromRecordAcceptsDecodedShapes(t *testing.T) {
	rec := Record{
		"uri":              "http://example.com/orders",
		"method":           "PATCH",
		"body":             "{}",
		"headers":          map[string]any{"Host": "example.com", "X-Tags": []string{"a", "b"}},
		"request_target":   "*",
		"protocol_version": "1.0",
	}
	req, err := RequestFromRecord(rec)
	if err != nil {
		t.Fatalf("RequestFromRecord failed: %v", err)
	}
	if req.RequestTarget() != "*" {
		t.Errorf("RequestTarget mismatch: got %v, want %v", req.RequestTarget(), "*")
	}
	if req.ProtocolVersion() != "1.0" {
		t.Errorf("ProtocolVersion mismatch: got %v, want %v", req.ProtocolVersion(), "1.0")
	}
	if req.HeaderLine("x-tags") != "a,b" {
		t.Errorf("X-Tags mismatch: got %v, want %v", req.HeaderLine("x-tags"), "a,b")
	}
}

func TestResponseRecordRoundTrip(t *testing.T) {
	resp := testResponse(t)
	custom, err := resp.WithStatus(299, "Mostly Fine")
	if err != nil {
		t.Fatalf("WithStatus failed: %v", err)
	}
	rec := ResponseToRecord(custom)
	// YAML 디코더는 숫자를 int 로 돌려줍니다.
	rec["status_code"] = 299

	got, err := ResponseFromRecord(rec)
	if err != nil {
		t.Fatalf("ResponseFromRecord failed: %v", err)
	}
	if got.StatusCode() != 299 {
		t.Errorf("Status mismatch: got %v, want %v", got.StatusCode(), 299)
	}
	if got.ReasonPhrase() != "Mostly Fine" {
		t.Errorf("Reason mismatch: got %v, want %v", got.ReasonPhrase(), "Mostly Fine")
	}
	if got.Body().String() != "created" {
		t.Errorf("Body mismatch: got %q, want %q", got.Body().String(), "created")
	}
}

func TestMissingKeys(t *testing.T) {
	for _, key := range []string{"uri", "method", "body", "headers", "request_target", "protocol_version"} {
		rec := RequestToRecord(testRequest(t))
		delete(rec, key)

		_, err := RequestFromRecord(rec)
		var de *DeserializationError
		if !errors.As(err, &de) {
			t.Fatalf("%s: expected DeserializationError, got %v", key, err)
		}
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("%s: expected ErrMissingKey, got %v", key, err)
		}
		if !strings.HasPrefix(err.Error(), "cannot deserialize request") {
			t.Errorf("%s: unexpected message %q", key, err.Error())
		}
		want := `missing "` + key + `" key in serialized request`
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%s: message %q does not contain %q", key, err.Error(), want)
		}
	}

	for _, key := range []string{"body", "status_code", "headers", "protocol_version", "reason_phrase"} {
		rec := ResponseToRecord(testResponse(t))
		delete(rec, key)

		_, err := ResponseFromRecord(rec)
		if !errors.Is(err, ErrMissingKey) {
			t.Fatalf("%s: expected ErrMissingKey, got %v", key, err)
		}
		want := `missing "` + key + `" key in serialized response`
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%s: message %q does not contain %q", key, err.Error(), want)
		}
	}
}

func TestInvalidRecordValues(t *testing.T) {
	rec := RequestToRecord(testRequest(t))
	rec["method"] = "BAD METHOD"
	if _, err := RequestFromRecord(rec); err == nil {
		t.Fatal("Expected error for invalid method")
	}

	rec = RequestToRecord(testRequest(t))
	rec["headers"] = []any{"not", "a", "map"}
	if _, err := RequestFromRecord(rec); err == nil {
		t.Fatal("Expected error for non-map headers")
	}

	resp := ResponseToRecord(testResponse(t))
	resp["status_code"] = 999.0
	_, err := ResponseFromRecord(resp)
	var de *DeserializationError
	if !errors.As(err, &de) || de.Msg != "cannot deserialize response" {
		t.Fatalf("Expected DeserializationError for status 999, got %v", err)
	}
}
