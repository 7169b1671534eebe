package message

import (
	"maps"
	"net/url"

	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// ServerRequestParams 는 NewServerRequest 의 입력입니다. 비어 있는 필드는 기본값을 사용합니다.
type ServerRequestParams struct {
	Server     map[string]string
	Files      FileTree
	URI        uri.URI
	Method     string
	Body       stream.Stream
	Headers    *Headers
	Cookies    map[string]string
	Query      url.Values
	ParsedBody any
	Protocol   string
}

// ServerRequest 는 서버 측에서 수신한 요청입니다. Request 에 서버 파라미터, 쿠키, 쿼리,
// 파싱된 body, 업로드 파일 트리, 속성(attribute)을 더합니다.
type ServerRequest struct {
	*Request

	serverParams  map[string]string
	cookieParams  map[string]string
	queryParams   url.Values
	parsedBody    any
	uploadedFiles FileTree
	attributes    map[string]any
}

// NewServerRequest 는 p 로부터 ServerRequest 를 생성합니다.
func NewServerRequest(p ServerRequestParams) (*ServerRequest, error) {
	req, err := NewRequest(p.Method, p.URI, p.Body, p.Headers)
	if err != nil {
		return nil, err
	}
	if p.Protocol != "" {
		if req, err = req.WithProtocolVersion(p.Protocol); err != nil {
			return nil, err
		}
	}
	return &ServerRequest{
		Request:       req,
		serverParams:  copyOrEmpty(p.Server),
		cookieParams:  copyOrEmpty(p.Cookies),
		queryParams:   cloneValues(p.Query),
		parsedBody:    p.ParsedBody,
		uploadedFiles: cloneTree(p.Files),
		attributes:    map[string]any{},
	}, nil
}

func copyOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func cloneTree(t FileTree) FileTree {
	if t == nil {
		return FileTree{}
	}
	return maps.Clone(t)
}

func (r *ServerRequest) clone() *ServerRequest {
	c := *r
	return &c
}

func (r *ServerRequest) withRequest(req *Request) *ServerRequest {
	c := r.clone()
	c.Request = req
	return c
}

// ServerParams 는 서버 파라미터 사본을 반환합니다.
func (r *ServerRequest) ServerParams() map[string]string { return maps.Clone(r.serverParams) }
func (r *ServerRequest) CookieParams() map[string]string { return maps.Clone(r.cookieParams) }
func (r *ServerRequest) QueryParams() url.Values         { return cloneValues(r.queryParams) }
func (r *ServerRequest) ParsedBody() any                 { return r.parsedBody }
func (r *ServerRequest) UploadedFiles() FileTree         { return maps.Clone(r.uploadedFiles) }
func (r *ServerRequest) Attributes() map[string]any      { return maps.Clone(r.attributes) }

// ServerParam 은 서버 파라미터 하나를 조회합니다.
func (r *ServerRequest) ServerParam(name string) (string, bool) {
	v, ok := r.serverParams[name]
	return v, ok
}

// Attribute 는 name 속성을 반환하고, 없으면 def 를 반환합니다.
func (r *ServerRequest) Attribute(name string, def any) any {
	if v, ok := r.attributes[name]; ok {
		return v
	}
	return def
}

func (r *ServerRequest) WithCookieParams(cookies map[string]string) *ServerRequest {
	c := r.clone()
	c.cookieParams = copyOrEmpty(cookies)
	return c
}

func (r *ServerRequest) WithQueryParams(query url.Values) *ServerRequest {
	c := r.clone()
	c.queryParams = cloneValues(query)
	return c
}

func (r *ServerRequest) WithParsedBody(body any) *ServerRequest {
	c := r.clone()
	c.parsedBody = body
	return c
}

func (r *ServerRequest) WithUploadedFiles(files FileTree) *ServerRequest {
	c := r.clone()
	c.uploadedFiles = cloneTree(files)
	return c
}

func (r *ServerRequest) WithAttribute(name string, value any) *ServerRequest {
	c := r.clone()
	c.attributes = maps.Clone(r.attributes)
	c.attributes[name] = value
	return c
}

func (r *ServerRequest) WithoutAttribute(name string) *ServerRequest {
	c := r.clone()
	c.attributes = maps.Clone(r.attributes)
	delete(c.attributes, name)
	return c
}

// 아래 메서드들은 Request 의 With* 를 감싸 ServerRequest 를 유지합니다.

func (r *ServerRequest) WithMethod(method string) (*ServerRequest, error) {
	req, err := r.Request.WithMethod(method)
	if err != nil {
		return nil, err
	}
	return r.withRequest(req), nil
}

func (r *ServerRequest) WithRequestTarget(target string) (*ServerRequest, error) {
	req, err := r.Request.WithRequestTarget(target)
	if err != nil {
		return nil, err
	}
	return r.withRequest(req), nil
}

func (r *ServerRequest) WithURI(u uri.URI, preserveHost bool) *ServerRequest {
	return r.withRequest(r.Request.WithURI(u, preserveHost))
}

func (r *ServerRequest) WithProtocolVersion(version string) (*ServerRequest, error) {
	req, err := r.Request.WithProtocolVersion(version)
	if err != nil {
		return nil, err
	}
	return r.withRequest(req), nil
}

func (r *ServerRequest) WithHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.Request.WithHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return r.withRequest(req), nil
}

func (r *ServerRequest) WithAddedHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.Request.WithAddedHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return r.withRequest(req), nil
}

func (r *ServerRequest) WithoutHeader(name string) *ServerRequest {
	return r.withRequest(r.Request.WithoutHeader(name))
}

func (r *ServerRequest) WithBody(body stream.Stream) *ServerRequest {
	return r.withRequest(r.Request.WithBody(body))
}
