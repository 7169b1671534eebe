package message

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ValidHeaderName 은 name 이 RFC 7230 token 인지 검사합니다.
func ValidHeaderName(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// ValidMethod 는 요청 메서드가 RFC 7230 token 인지 검사합니다.
func ValidMethod(method string) bool {
	return method != "" && httpguts.ValidHeaderFieldName(method)
}

// ValidHeaderValue 는 RFC 7230 field-value 문법을 검사합니다.
//
// CRLF 는 바로 뒤에 SP/HTAB 가 오는 obs-fold 일 때만 허용되고, 단독 CR/LF 는 거부합니다.
// 그 외에는 HTAB, 0x20-0x7E, 0x80-0xFE 만 허용합니다(DEL, 0xFF 및 제어 문자 거부).
// httpguts.ValidHeaderFieldValue 는 obs-fold 를 허용하지 않으므로 별도로 구현합니다.
func ValidHeaderValue(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\r':
			if i+2 >= len(value) || value[i+1] != '\n' || (value[i+2] != ' ' && value[i+2] != '\t') {
				return false
			}
			i++
		case c == '\n':
			return false
		case !visibleOrTab(c):
			return false
		}
	}
	return true
}

// FilterHeaderValue 는 유효한 obs-fold 를 제외한 CR/LF 와 허용되지 않는 바이트를 제거합니다.
func FilterHeaderValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\r' {
			if i+2 < len(value) && value[i+1] == '\n' && (value[i+2] == ' ' || value[i+2] == '\t') {
				b.WriteString("\r\n")
				i++
			}
			continue
		}
		if !visibleOrTab(c) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// AssertValidHeaderValue 는 값이 유효하지 않으면 ErrInvalidArgument 를 반환합니다.
func AssertValidHeaderValue(value string) error {
	if !ValidHeaderValue(value) {
		return fmt.Errorf("%w: invalid header value %q", ErrInvalidArgument, value)
	}
	return nil
}

func visibleOrTab(c byte) bool {
	return c == '\t' || (c >= 0x20 && c != 0x7f && c != 0xff)
}

// 허용되는 프로토콜 버전.
var protocolVersions = map[string]struct{}{
	"1.0": {},
	"1.1": {},
	"2":   {},
}

// ValidProtocolVersion 은 지원하는 HTTP 프로토콜 버전인지 검사합니다.
func ValidProtocolVersion(version string) bool {
	_, ok := protocolVersions[version]
	return ok
}

func assertProtocolVersion(version string) error {
	if !ValidProtocolVersion(version) {
		return fmt.Errorf("%w: unsupported HTTP protocol version %q provided", ErrInvalidArgument, version)
	}
	return nil
}
