package message

import (
	"net/url"
	"testing"

	"github.com/dalbodeule/hop-msg/internal/uri"
)

func TestServerRequestCarriesParams(t *testing.T) {
	headers, _ := HeadersFromPairs("Accept", "text/html")
	sr, err := NewServerRequest(ServerRequestParams{
		Server:   map[string]string{"SERVER_NAME": "example.com"},
		URI:      uri.MustParse("http://example.com/foo?bar=baz"),
		Method:   "POST",
		Headers:  headers,
		Cookies:  map[string]string{"session": "abc"},
		Query:    url.Values{"bar": {"baz"}},
		Protocol: "1.0",
	})
	if err != nil {
		t.Fatalf("NewServerRequest failed: %v", err)
	}
	if sr.Method() != "POST" || sr.ProtocolVersion() != "1.0" {
		t.Fatalf("request mismatch: %s %s", sr.Method(), sr.ProtocolVersion())
	}
	if v, _ := sr.ServerParam("SERVER_NAME"); v != "example.com" {
		t.Fatalf("server param mismatch: %q", v)
	}
	if sr.CookieParams()["session"] != "abc" || sr.QueryParams().Get("bar") != "baz" {
		t.Fatal("cookie/query mismatch")
	}
	if sr.HeaderLine("host") != "example.com" {
		t.Fatalf("host mismatch: %q", sr.HeaderLine("host"))
	}
}

func TestServerRequestWithMethodsKeepServerData(t *testing.T) {
	sr, _ := NewServerRequest(ServerRequestParams{Server: map[string]string{"A": "1"}})

	withHeader, err := sr.WithHeader("X-Foo", "bar")
	if err != nil {
		t.Fatalf("WithHeader failed: %v", err)
	}
	if v, _ := withHeader.ServerParam("A"); v != "1" {
		t.Fatal("WithHeader must keep server params")
	}

	withAttr := withHeader.WithAttribute("route", "home")
	if withAttr.Attribute("route", nil) != "home" || withHeader.Attribute("route", "none") != "none" {
		t.Fatal("attribute immutability mismatch")
	}
	if withAttr.WithoutAttribute("route").Attribute("route", "gone") != "gone" {
		t.Fatal("WithoutAttribute mismatch")
	}

	withBody := withAttr.WithParsedBody(map[string]string{"k": "v"})
	if withAttr.ParsedBody() != nil || withBody.ParsedBody() == nil {
		t.Fatal("parsed body immutability mismatch")
	}

	cookies := map[string]string{"c": "1"}
	withCookies := sr.WithCookieParams(cookies)
	cookies["c"] = "2"
	if withCookies.CookieParams()["c"] != "1" {
		t.Fatal("cookie params must be copied")
	}
}
