package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// Request 는 클라이언트 측 HTTP 요청 값 객체입니다.
type Request struct {
	base
	method        string
	uri           uri.URI
	requestTarget string // 명시적으로 지정된 경우에만 설정
}

// NewRequest 는 요청을 생성합니다.
//   - method 가 비어 있으면 GET 을 사용합니다.
//   - body 가 nil 이면 빈 Memory 스트림을 사용합니다.
//   - headers 에 Host 가 없고 u 에 host 가 있으면 Host 헤더를 맨 앞에 추가합니다.
func NewRequest(method string, u uri.URI, body stream.Stream, headers *Headers) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w: unsupported HTTP method %q provided", ErrInvalidArgument, method)
	}
	r := &Request{base: newBase(body, headers), method: method, uri: u}
	if !r.headers.Has("Host") && u.Host() != "" {
		r.headers = r.headers.withFirst("Host", hostFromURI(u))
	}
	return r, nil
}

func hostFromURI(u uri.URI) string {
	host := u.Host()
	if port, ok := u.Port(); ok {
		host += ":" + strconv.Itoa(port)
	}
	return host
}

func (r *Request) clone() *Request {
	c := *r
	return &c
}

func (r *Request) Method() string { return r.method }
func (r *Request) URI() uri.URI   { return r.uri }

// RequestTarget 은 명시된 request-target 이 있으면 그것을, 없으면 URI 의 path[?query] 를 반환합니다.
// 둘 다 비어 있으면 "/" 입니다.
func (r *Request) RequestTarget() string {
	if r.requestTarget != "" {
		return r.requestTarget
	}
	target := r.uri.Path()
	if q := r.uri.Query(); q != "" {
		target += "?" + q
	}
	if target == "" {
		target = "/"
	}
	return target
}

// Headers 는 헤더 맵을 반환합니다. Host 헤더가 제거되었더라도 URI 에 host 가 있으면 Host 를 포함합니다.
func (r *Request) Headers() *Headers {
	if !r.headers.Has("Host") && r.uri.Host() != "" {
		return r.headers.withFirst("Host", hostFromURI(r.uri))
	}
	return r.headers
}

func (r *Request) Header(name string) []string  { return r.Headers().Get(name) }
func (r *Request) HeaderLine(name string) string { return r.Headers().Line(name) }
func (r *Request) HasHeader(name string) bool    { return r.Headers().Has(name) }

func (r *Request) WithMethod(method string) (*Request, error) {
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w: unsupported HTTP method %q provided", ErrInvalidArgument, method)
	}
	c := r.clone()
	c.method = method
	return c, nil
}

// WithRequestTarget 은 request-target 을 명시적으로 지정합니다. 공백은 허용되지 않습니다.
func (r *Request) WithRequestTarget(target string) (*Request, error) {
	if strings.ContainsAny(target, " \t\r\n") {
		return nil, fmt.Errorf("%w: invalid request target provided; cannot contain whitespace", ErrInvalidArgument)
	}
	c := r.clone()
	c.requestTarget = target
	return c, nil
}

// WithURI 는 URI 를 교체합니다. 명시된 request-target 은 초기화됩니다.
//
// preserveHost 가 true 이고 Host 헤더가 이미 있거나, 새 URI 에 host 가 없으면 Host 헤더는 유지됩니다.
// 그 외에는 Host 헤더(대소문자 무관)를 새 URI 의 host[:port] 로 교체해 맨 앞에 둡니다.
func (r *Request) WithURI(u uri.URI, preserveHost bool) *Request {
	c := r.clone()
	c.uri = u
	c.requestTarget = ""
	if (preserveHost && r.headers.Has("Host")) || u.Host() == "" {
		return c
	}
	c.headers = r.headers.withFirst("Host", hostFromURI(u))
	return c
}

func (r *Request) WithProtocolVersion(version string) (*Request, error) {
	if err := assertProtocolVersion(version); err != nil {
		return nil, err
	}
	c := r.clone()
	c.protocol = version
	return c, nil
}

func (r *Request) WithHeader(name string, values ...string) (*Request, error) {
	h, err := r.headers.With(name, values...)
	if err != nil {
		return nil, err
	}
	c := r.clone()
	c.headers = h
	return c, nil
}

func (r *Request) WithAddedHeader(name string, values ...string) (*Request, error) {
	h, err := r.headers.WithAdded(name, values...)
	if err != nil {
		return nil, err
	}
	c := r.clone()
	c.headers = h
	return c, nil
}

func (r *Request) WithoutHeader(name string) *Request {
	c := r.clone()
	c.headers = r.headers.Without(name)
	return c
}

func (r *Request) WithBody(body stream.Stream) *Request {
	c := r.clone()
	c.body = body
	return c
}
