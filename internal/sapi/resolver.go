// Package sapi 는 CGI 스타일 서버 파라미터(SERVER_NAME, REQUEST_URI 등)와 헤더로부터
// 요청 URI 를 결정하고 message.ServerRequest 를 조립합니다.
package sapi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// Source 는 URI 의 각 필드 값을 어디에서 가져왔는지를 나타냅니다.
type Source string

const (
	SourceDefault        Source = "default"
	SourceHTTPSParam     Source = "https_param"
	SourceForwardedProto Source = "x_forwarded_proto"
	SourceHostHeader     Source = "host_header"
	SourceServerName     Source = "server_name"
	SourceServerAddr     Source = "server_addr"
	SourceUnencodedURL   Source = "iis_unencoded_url"
	SourceOriginalURL    Source = "x_original_url"
	SourceRequestURI     Source = "request_uri"
	SourceOrigPathInfo   Source = "orig_path_info"
	SourceQueryString    Source = "query_string"
)

// Resolution 은 Resolve 가 각 필드에 사용한 입력을 기록합니다. 로그와 메트릭 용도입니다.
type Resolution struct {
	Scheme Source `json:"scheme" yaml:"scheme"`
	Host   Source `json:"host" yaml:"host"`
	Path   Source `json:"path" yaml:"path"`
	Query  Source `json:"query" yaml:"query"`
}

// Resolver 는 서버 파라미터와 헤더로부터 요청 URI 를 결정합니다.
//
// 클라이언트가 보낸 헤더(X-Forwarded-Proto, X-Original-URL)는 신뢰된 프록시 뒤에서만 의미가 있으므로
// 각각 별도 플래그로 켜고 끕니다.
type Resolver struct {
	// TrustForwardedProto 가 true 이면 HTTPS 파라미터가 없을 때 X-Forwarded-Proto 를 scheme 판단에 사용합니다.
	TrustForwardedProto bool
	// TrustOriginalURL 이 true 이면 X-Original-URL 헤더(또는 HTTP_X_ORIGINAL_URL)가 REQUEST_URI 보다 우선합니다.
	TrustOriginalURL bool
}

// DefaultResolver 는 X-Forwarded-Proto 만 신뢰합니다. X-Original-URL 은 opt-in 입니다.
var DefaultResolver = Resolver{TrustForwardedProto: true}

// ResolveURI 는 DefaultResolver 로 URI 를 결정합니다. 실패하지 않습니다.
func ResolveURI(server map[string]string, headers *message.Headers) uri.URI {
	u, _ := DefaultResolver.Resolve(server, headers)
	return u
}

var (
	// bracketed IPv6 literal 로 보이는 SERVER_NAME. 일부 SAPI 는 마지막 그룹을 포트로 잘못 붙입니다.
	ipv6ServerName = regexp.MustCompile(`^\[[0-9a-fA-F:]+\]$`)
	absolutePrefix = regexp.MustCompile(`^[^/:]+://[^/]+`)
)

// Resolve 는 URI 와 각 필드의 출처를 반환합니다. 어떤 입력에도 실패하지 않으며
// 해석할 수 없는 값은 빈 값이나 기본값으로 대체됩니다.
func (r Resolver) Resolve(server map[string]string, headers *message.Headers) (uri.URI, Resolution) {
	var res Resolution
	u := uri.URI{}

	scheme, src := r.scheme(server, headers)
	res.Scheme = src
	if withScheme, err := u.WithScheme(scheme); err == nil {
		u = withScheme
	}

	host, port, src := hostAndPort(server, headers)
	res.Host = src
	if host != "" {
		u = u.WithHost(host)
		if port > 0 {
			if withPort, err := u.WithPort(port); err == nil {
				u = withPort
			}
		}
	}

	target, src := r.requestPath(server, headers)
	res.Path = src
	path, query, fragment, hasQuery := splitTarget(target)
	if withPath, err := u.WithPath(path); err == nil {
		u = withPath
	}
	res.Query = src
	if !hasQuery {
		query = strings.TrimPrefix(server["QUERY_STRING"], "?")
		res.Query = SourceQueryString
		if query == "" {
			res.Query = SourceDefault
		}
	}
	if withQuery, err := u.WithQuery(query); err == nil {
		u = withQuery
	}
	if fragment != "" {
		u = u.WithFragment(fragment)
	}
	return u, res
}

func (r Resolver) scheme(server map[string]string, headers *message.Headers) (string, Source) {
	https, hasHTTPS := lookupFold(server, "HTTPS")
	if https != "" && !strings.EqualFold(https, "off") {
		return "https", SourceHTTPSParam
	}
	// HTTPS 가 비어 있거나 off 여도 X-Forwarded-Proto 는 확인합니다. 값 전체를 비교하며 목록은 해석하지 않습니다.
	if r.TrustForwardedProto && strings.EqualFold(strings.TrimSpace(firstHeader(headers, "X-Forwarded-Proto")), "https") {
		return "https", SourceForwardedProto
	}
	if hasHTTPS {
		return "http", SourceHTTPSParam
	}
	return "http", SourceDefault
}

func hostAndPort(server map[string]string, headers *message.Headers) (string, int, Source) {
	if hostHeader := firstHeader(headers, "Host"); hostHeader != "" {
		// 포트나 IPv6 괄호가 잘못된 Host 헤더는 무시하고 서버 파라미터로 넘어갑니다.
		if host, port, err := uri.SplitHostPort(hostHeader); err == nil && host != "" {
			return host, port, SourceHostHeader
		}
	}

	port, _ := strconv.Atoi(server["SERVER_PORT"])
	name, addr := server["SERVER_NAME"], server["SERVER_ADDR"]

	if name == "" {
		if addr == "" {
			return "", 0, SourceDefault
		}
		if strings.Contains(addr, ":") && !strings.HasPrefix(addr, "[") {
			addr = "[" + addr + "]"
		}
		return addr, port, SourceServerAddr
	}

	if strings.HasPrefix(name, "[") {
		if host, embedded, err := uri.SplitHostPort(name); err == nil && embedded > 0 {
			return host, embedded, SourceServerName
		}
	}

	if addr != "" && ipv6ServerName.MatchString(name) {
		host := "[" + addr + "]"
		if port == 0 {
			port = 80
		}
		// 주소의 마지막 그룹이 포트로 잘못 해석된 경우입니다. 포트를 버리고 기본 포트를 사용합니다.
		if strings.HasSuffix(host, ":"+strconv.Itoa(port)+"]") {
			port = 0
		}
		return host, port, SourceServerAddr
	}
	return name, port, SourceServerName
}

// requestPath 는 path[?query][#fragment] 형태의 원본 문자열과 그 출처를 반환합니다.
func (r Resolver) requestPath(server map[string]string, headers *message.Headers) (string, Source) {
	if server["IIS_WasUrlRewritten"] == "1" && server["UNENCODED_URL"] != "" {
		return server["UNENCODED_URL"], SourceUnencodedURL
	}
	if r.TrustOriginalURL {
		if original := firstHeader(headers, "X-Original-URL"); original != "" {
			return original, SourceOriginalURL
		}
		if original := server["HTTP_X_ORIGINAL_URL"]; original != "" {
			return original, SourceOriginalURL
		}
	}
	if requestURI := server["REQUEST_URI"]; requestURI != "" {
		return absolutePrefix.ReplaceAllString(requestURI, ""), SourceRequestURI
	}
	if orig := server["ORIG_PATH_INFO"]; orig != "" {
		return orig, SourceOrigPathInfo
	}
	return "/", SourceDefault
}

// splitTarget 은 "path?query#fragment" 를 나눕니다. hasQuery 는 "?" 가 있었는지 여부입니다.
func splitTarget(target string) (path, query, fragment string, hasQuery bool) {
	path, fragment, _ = strings.Cut(target, "#")
	path, query, hasQuery = strings.Cut(path, "?")
	if path == "" {
		path = "/"
	}
	return path, query, fragment, hasQuery
}

func firstHeader(headers *message.Headers, name string) string {
	values := headers.Get(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
