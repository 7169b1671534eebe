package sapi

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/dalbodeule/hop-msg/internal/message"
)

var (
	// ErrUnrecognizedProtocol 는 SERVER_PROTOCOL 값을 해석할 수 없을 때 반환됩니다.
	ErrUnrecognizedProtocol = errors.New("unrecognized protocol version")
	// ErrInvalidFileSpec 은 업로드 파일 명세를 해석할 수 없을 때 반환됩니다.
	ErrInvalidFileSpec = errors.New("invalid uploaded files specification")
)

// NormalizeServer 는 서버 파라미터의 복사본을 반환합니다. HTTP_AUTHORIZATION 이 없고
// apacheHeaders 가 Authorization 헤더를 돌려주면 그 값으로 채웁니다(Apache mod_php 는 이 헤더를 넘기지 않습니다).
func NormalizeServer(server map[string]string, apacheHeaders func() map[string]string) map[string]string {
	out := maps.Clone(server)
	if out == nil {
		out = map[string]string{}
	}
	if _, ok := out["HTTP_AUTHORIZATION"]; ok || apacheHeaders == nil {
		return out
	}
	for name, value := range apacheHeaders() {
		if strings.EqualFold(name, "Authorization") {
			out["HTTP_AUTHORIZATION"] = value
			break
		}
	}
	return out
}

// MarshalHeaders 는 서버 파라미터에서 HTTP_* 와 CONTENT_* 항목을 골라 소문자 헤더 이름으로 변환합니다.
//   - REDIRECT_ 접두어가 붙은 항목은 접두어 없는 항목이 없을 때만 사용합니다.
//   - 빈 값은 제외합니다. "0" 은 유지됩니다.
func MarshalHeaders(server map[string]string) map[string]string {
	headers := map[string]string{}
	for key, value := range server {
		if rest, ok := strings.CutPrefix(key, "REDIRECT_"); ok {
			if _, exists := server[rest]; exists {
				continue
			}
			key = rest
		}
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, "HTTP_"):
			headers[headerName(key[len("HTTP_"):])] = value
		case strings.HasPrefix(key, "CONTENT_"):
			headers["content-"+headerName(key[len("CONTENT_"):])] = value
		}
	}
	return headers
}

func headerName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}

// headersFromServer 는 MarshalHeaders 결과를 이름순으로 정렬된 Headers 로 만듭니다.
func headersFromServer(server map[string]string) (*message.Headers, error) {
	marshaled := MarshalHeaders(server)
	h := message.NewHeaders()
	names := make([]string, 0, len(marshaled))
	for name := range marshaled {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		var err error
		if h, err = h.WithAdded(name, marshaled[name]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ParseCookieHeader 는 Cookie 헤더 값을 name → value 로 파싱합니다.
// 값은 URL 디코딩되며 감싸는 큰따옴표는 제거됩니다. 같은 이름이 반복되면 마지막 값이 남습니다.
// 형식이 맞지 않는 쌍은 건너뜁니다.
func ParseCookieHeader(header string) map[string]string {
	cookies := map[string]string{}
	for _, pair := range strings.Split(header, ";") {
		pair = strings.Trim(pair, " \t\n")
		name, value, ok := strings.Cut(pair, "=")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			continue
		}
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if !validCookieValue(value) {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		cookies[name] = value
	}
	return cookies
}

// validCookieValue 는 RFC 6265 cookie-octet 만 허용합니다.
func validCookieValue(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < 0x21 || c > 0x7e || c == '"' || c == ',' || c == ';' || c == '\\' {
			return false
		}
	}
	return true
}

var serverProtocol = regexp.MustCompile(`^(?:HTTP/)?([1-9]\d*(?:\.\d)?)$`)

// MarshalProtocolVersion 은 SERVER_PROTOCOL 에서 버전 번호를 꺼냅니다. 값이 없으면 "1.1" 입니다.
// "HTTP/2.0" 은 "2" 로 정규화합니다.
func MarshalProtocolVersion(server map[string]string) (string, error) {
	proto, ok := server["SERVER_PROTOCOL"]
	if !ok || proto == "" {
		return message.DefaultProtocolVersion, nil
	}
	m := serverProtocol.FindStringSubmatch(proto)
	if m == nil {
		return "", fmt.Errorf("%w (%s)", ErrUnrecognizedProtocol, proto)
	}
	if m[1] == "2.0" {
		return "2", nil
	}
	return m[1], nil
}
