// Package uri 는 HTTP 메시지에서 사용하는 불변 URI 값 객체를 제공합니다.
package uri

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ErrInvalidURI 는 파싱/With* 에서 허용되지 않는 값이 들어온 경우 반환됩니다.
var ErrInvalidURI = errors.New("invalid uri")

// defaultPorts 는 스킴별 기본 포트입니다. 기본 포트와 같으면 문자열 표현에서 생략합니다.
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// RFC 3986 Appendix B.
var uriPattern = regexp.MustCompile(`^(?:([^:/?#]+):)?(?://([^/?#]*))?([^?#]*)(?:\?([^#]*))?(?:#(.*))?$`)

// URI 는 scheme, user-info, host, port, path, query, fragment 로 구성된 불변 값입니다.
// 모든 With* 메서드는 새 값을 반환하며 원본은 변하지 않습니다. zero value 는 빈 URI 입니다.
type URI struct {
	scheme   string
	userInfo string
	host     string
	port     int // 0 = 없음
	path     string
	query    string
	fragment string
}

// Parse 는 문자열을 URI 로 파싱합니다.
func Parse(raw string) (URI, error) {
	if raw == "" {
		return URI{}, nil
	}
	m := uriPattern.FindStringSubmatch(raw)
	if m == nil {
		return URI{}, fmt.Errorf("%w: %q", ErrInvalidURI, raw)
	}

	var (
		u   URI
		err error
	)
	if u.scheme, err = normalizeScheme(m[1]); err != nil {
		return URI{}, err
	}
	if m[2] != "" {
		userInfo, hostPort := "", m[2]
		if at := strings.LastIndexByte(hostPort, '@'); at >= 0 {
			userInfo, hostPort = hostPort[:at], hostPort[at+1:]
		}
		host, port, err := SplitHostPort(hostPort)
		if err != nil {
			return URI{}, fmt.Errorf("%w: %q: %v", ErrInvalidURI, raw, err)
		}
		u.userInfo = encode(userInfo, userInfoAllowed)
		u.host = normalizeHost(host)
		u.port = port
	}
	u.path = encode(m[3], pathAllowed)
	u.query = encode(m[4], queryAllowed)
	u.fragment = encode(m[5], queryAllowed)
	return u, nil
}

// MustParse 는 Parse 와 같지만 실패 시 panic 합니다. 테스트와 상수 초기화용입니다.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// SplitHostPort 는 "host[:port]" 를 분리합니다. "[v6]:port" 형태의 IPv6 리터럴을 인식하며
// host 에는 대괄호가 유지됩니다. 포트가 없거나 비어 있으면 0 을 반환합니다.
func SplitHostPort(hostPort string) (string, int, error) {
	host, portStr := hostPort, ""
	if strings.HasPrefix(hostPort, "[") {
		end := strings.IndexByte(hostPort, ']')
		if end < 0 {
			return "", 0, fmt.Errorf("missing ']' in host %q", hostPort)
		}
		host = hostPort[:end+1]
		rest := hostPort[end+1:]
		if rest != "" {
			if rest[0] != ':' {
				return "", 0, fmt.Errorf("unexpected %q after ipv6 literal", rest)
			}
			portStr = rest[1:]
		}
	} else if i := strings.LastIndexByte(hostPort, ':'); i >= 0 {
		host, portStr = hostPort[:i], hostPort[i+1:]
	}
	if portStr == "" {
		return host, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

func normalizeScheme(scheme string) (string, error) {
	scheme = strings.TrimSuffix(strings.ToLower(scheme), "://")
	switch scheme {
	case "", "http", "https":
		return scheme, nil
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q; must be any empty string or in the set (http, https)", ErrInvalidURI, scheme)
	}
}

// normalizeHost 는 host 를 소문자로 바꾸고, 비ASCII 호스트는 punycode 로 변환합니다.
func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if isASCII(host) {
		return host
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (u URI) Scheme() string   { return u.scheme }
func (u URI) UserInfo() string { return u.userInfo }
func (u URI) Host() string     { return u.host }
func (u URI) Path() string     { return u.path }
func (u URI) Query() string    { return u.query }
func (u URI) Fragment() string { return u.fragment }

// Port 는 비표준 포트가 설정된 경우에만 (port, true) 를 반환합니다.
// 스킴의 기본 포트(http 80, https 443)와 같으면 없는 것으로 취급합니다.
func (u URI) Port() (int, bool) {
	if u.port == 0 || u.isStandardPort() {
		return 0, false
	}
	return u.port, true
}

func (u URI) isStandardPort() bool {
	if u.scheme == "" {
		return false
	}
	return defaultPorts[u.scheme] == u.port
}

// IsZero 는 모든 구성요소가 비어 있는지 여부입니다.
func (u URI) IsZero() bool { return u == URI{} }

// Authority 는 "[user-info@]host[:port]" 를 반환합니다. host 가 비어 있으면 빈 문자열입니다.
func (u URI) Authority() string {
	if u.host == "" {
		return ""
	}
	var b strings.Builder
	if u.userInfo != "" {
		b.WriteString(u.userInfo)
		b.WriteByte('@')
	}
	b.WriteString(u.host)
	if port, ok := u.Port(); ok {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(port))
	}
	return b.String()
}

// String 은 구성요소로부터 URI 문자열을 재구성합니다.
func (u URI) String() string {
	var b strings.Builder
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}
	authority := u.Authority()
	if authority != "" {
		b.WriteString("//")
		b.WriteString(authority)
	}

	path := u.path
	switch {
	case authority != "" && path != "" && path[0] != '/':
		path = "/" + path
	case authority == "" && strings.HasPrefix(path, "//"):
		path = "/" + strings.TrimLeft(path, "/")
	}
	b.WriteString(path)

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}
	return b.String()
}

func (u URI) WithScheme(scheme string) (URI, error) {
	s, err := normalizeScheme(scheme)
	if err != nil {
		return u, err
	}
	u.scheme = s
	return u, nil
}

// WithUserInfo 는 user[:password] 를 설정합니다. password 가 비어 있으면 user 만 사용합니다.
func (u URI) WithUserInfo(user, password string) URI {
	info := encode(user, userInfoAllowed)
	if info != "" && password != "" {
		info += ":" + encode(password, userInfoAllowed)
	}
	u.userInfo = info
	return u
}

func (u URI) WithHost(host string) URI {
	u.host = normalizeHost(host)
	return u
}

// WithPort 는 포트를 설정합니다. 0 은 포트 제거를 의미합니다.
func (u URI) WithPort(port int) (URI, error) {
	if port < 0 || port > 65535 {
		return u, fmt.Errorf("%w: invalid port %d; must be a valid TCP/UDP port", ErrInvalidURI, port)
	}
	u.port = port
	return u, nil
}

func (u URI) WithPath(path string) (URI, error) {
	if strings.ContainsAny(path, "?#") {
		return u, fmt.Errorf("%w: path must not contain a query string or fragment", ErrInvalidURI)
	}
	u.path = encode(path, pathAllowed)
	return u, nil
}

// WithQuery 는 query 를 설정합니다. 앞의 "?" 는 제거됩니다.
func (u URI) WithQuery(query string) (URI, error) {
	if strings.Contains(query, "#") {
		return u, fmt.Errorf("%w: query string must not include a URI fragment", ErrInvalidURI)
	}
	u.query = encode(strings.TrimPrefix(query, "?"), queryAllowed)
	return u, nil
}

// WithFragment 는 fragment 를 설정합니다. 앞의 "#" 는 제거됩니다.
func (u URI) WithFragment(fragment string) URI {
	u.fragment = encode(strings.TrimPrefix(fragment, "#"), queryAllowed)
	return u
}
