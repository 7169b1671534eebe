package sapi

import (
	"maps"
	"net/url"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// Input 은 ServerRequest 조립에 필요한 원본 입력입니다.
type Input struct {
	// Server 는 CGI 스타일 서버 파라미터입니다(REQUEST_METHOD, REQUEST_URI, HTTP_* ...).
	Server map[string]string
	// ApacheHeaders 는 HTTP_AUTHORIZATION 이 없을 때 Authorization 헤더를 찾기 위해 호출됩니다. nil 가능.
	ApacheHeaders func() map[string]string
	// Query 가 nil 이면 결정된 URI 의 query 를 파싱해 사용합니다.
	Query url.Values
	// Cookies 는 Cookie 헤더가 없을 때만 사용합니다.
	Cookies    map[string]string
	ParsedBody any
	// FileSpec 은 $_FILES 모양의 명세입니다. Files 와 같은 키가 있으면 Files 가 우선합니다.
	FileSpec map[string]any
	Files    message.FileTree
	// Body 가 nil 이면 쓰기 가능한 빈 Memory 스트림을 사용합니다.
	Body stream.Stream
}

// Assemble 은 in 으로부터 ServerRequest 를 만들고, URI 결정 결과를 함께 반환합니다.
func (r Resolver) Assemble(in Input) (*message.ServerRequest, Resolution, error) {
	server := NormalizeServer(in.Server, in.ApacheHeaders)

	files, err := NormalizeUploadedFiles(in.FileSpec)
	if err != nil {
		return nil, Resolution{}, err
	}
	maps.Copy(files, in.Files)

	headers, err := headersFromServer(server)
	if err != nil {
		return nil, Resolution{}, err
	}

	cookies := in.Cookies
	if headers.Has("Cookie") {
		cookies = ParseCookieHeader(headers.Line("Cookie"))
	}

	u, res := r.Resolve(server, headers)

	protocol, err := MarshalProtocolVersion(server)
	if err != nil {
		return nil, res, err
	}

	query := in.Query
	if query == nil {
		// 잘못된 조각이 있어도 파싱된 나머지는 사용합니다.
		query, _ = url.ParseQuery(u.Query())
	}

	req, err := message.NewServerRequest(message.ServerRequestParams{
		Server:     server,
		Files:      files,
		URI:        u,
		Method:     server["REQUEST_METHOD"],
		Body:       in.Body,
		Headers:    headers,
		Cookies:    cookies,
		Query:      query,
		ParsedBody: in.ParsedBody,
		Protocol:   protocol,
	})
	if err != nil {
		return nil, res, err
	}
	return req, res, nil
}

// FromServer 는 Resolver r 로 ServerRequest 를 만듭니다.
func (r Resolver) FromServer(in Input) (*message.ServerRequest, error) {
	req, _, err := r.Assemble(in)
	return req, err
}

// FromServer 는 DefaultResolver 로 ServerRequest 를 만듭니다.
func FromServer(in Input) (*message.ServerRequest, error) {
	return DefaultResolver.FromServer(in)
}
