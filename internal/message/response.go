package message

import (
	"fmt"
	"net/http"

	"github.com/dalbodeule/hop-msg/internal/stream"
)

// Response 는 HTTP 응답 값 객체입니다.
type Response struct {
	base
	status int
	reason string
}

// NewResponse 는 응답을 생성합니다. status 가 0 이면 200 을 사용합니다.
// reason phrase 는 표준 문구로 채워지며, 알려지지 않은 코드(예: 299)는 빈 문자열입니다.
func NewResponse(body stream.Stream, status int, headers *Headers) (*Response, error) {
	if status == 0 {
		status = http.StatusOK
	}
	if err := assertStatus(status); err != nil {
		return nil, err
	}
	return &Response{base: newBase(body, headers), status: status, reason: http.StatusText(status)}, nil
}

func assertStatus(code int) error {
	if code < 100 || code > 599 {
		return fmt.Errorf("%w: invalid status code %d; must be an integer between 100 and 599, inclusive", ErrInvalidArgument, code)
	}
	return nil
}

func (r *Response) clone() *Response {
	c := *r
	return &c
}

func (r *Response) StatusCode() int      { return r.status }
func (r *Response) ReasonPhrase() string { return r.reason }

func (r *Response) Headers() *Headers             { return r.headers }
func (r *Response) Header(name string) []string   { return r.headers.Get(name) }
func (r *Response) HeaderLine(name string) string { return r.headers.Line(name) }
func (r *Response) HasHeader(name string) bool    { return r.headers.Has(name) }

// WithStatus 는 상태 코드를 바꿉니다. reason 이 비어 있으면 표준 문구를 사용합니다.
func (r *Response) WithStatus(code int, reason string) (*Response, error) {
	if err := assertStatus(code); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = http.StatusText(code)
	}
	c := r.clone()
	c.status = code
	c.reason = reason
	return c, nil
}

func (r *Response) WithProtocolVersion(version string) (*Response, error) {
	if err := assertProtocolVersion(version); err != nil {
		return nil, err
	}
	c := r.clone()
	c.protocol = version
	return c, nil
}

func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	h, err := r.headers.With(name, values...)
	if err != nil {
		return nil, err
	}
	c := r.clone()
	c.headers = h
	return c, nil
}

func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	h, err := r.headers.WithAdded(name, values...)
	if err != nil {
		return nil, err
	}
	c := r.clone()
	c.headers = h
	return c, nil
}

func (r *Response) WithoutHeader(name string) *Response {
	c := r.clone()
	c.headers = r.headers.Without(name)
	return c
}

func (r *Response) WithBody(body stream.Stream) *Response {
	c := r.clone()
	c.body = body
	return c
}
