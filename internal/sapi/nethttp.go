package sapi

import (
	"fmt"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// MaxMultipartMemory 는 multipart 폼을 파싱할 때 메모리에 올리는 최대 크기입니다. 나머지는 임시 파일로 저장됩니다.
const MaxMultipartMemory = 32 << 20

// ServerParamsFromHTTP 는 net/http 요청으로부터 CGI 스타일 서버 파라미터를 만듭니다.
func ServerParamsFromHTTP(req *http.Request) map[string]string {
	server := map[string]string{
		"REQUEST_METHOD":  req.Method,
		"REQUEST_URI":     req.RequestURI,
		"QUERY_STRING":    req.URL.RawQuery,
		"SERVER_PROTOCOL": req.Proto,
	}
	if server["REQUEST_URI"] == "" {
		server["REQUEST_URI"] = req.URL.RequestURI()
	}
	if req.TLS != nil {
		server["HTTPS"] = "on"
	}
	if host, port, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		server["REMOTE_ADDR"] = host
		server["REMOTE_PORT"] = port
	}
	if addr, ok := req.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		if host, port, err := net.SplitHostPort(addr.String()); err == nil {
			server["SERVER_ADDR"] = host
			server["SERVER_PORT"] = port
		}
	}

	// net/http 는 Host 헤더를 req.Header 에서 제거합니다.
	if req.Host != "" {
		server["HTTP_HOST"] = req.Host
	}
	for name, values := range req.Header {
		server[cgiHeaderKey(name)] = strings.Join(values, ", ")
	}
	if req.ContentLength > 0 {
		server["CONTENT_LENGTH"] = strconv.FormatInt(req.ContentLength, 10)
	}
	return server
}

// cgiHeaderKey 는 "Content-Type" → "CONTENT_TYPE", "X-Foo" → "HTTP_X_FOO" 로 변환합니다.
func cgiHeaderKey(name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if key == "CONTENT_TYPE" || key == "CONTENT_LENGTH" {
		return key
	}
	return "HTTP_" + key
}

// FromHTTPRequest 는 net/http 요청을 ServerRequest 로 변환합니다.
// form 과 multipart 요청은 body 를 파싱해 ParsedBody 와 업로드 파일 트리를 채우며, 이 경우 body 스트림은 이미 소비된 상태입니다.
func FromHTTPRequest(req *http.Request, r Resolver) (*message.ServerRequest, Resolution, error) {
	in := Input{
		Server: ServerParamsFromHTTP(req),
		Query:  req.URL.Query(),
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(MaxMultipartMemory); err != nil {
			return nil, Resolution{}, fmt.Errorf("parse multipart form: %w", err)
		}
		files, err := FilesFromMultipart(req.MultipartForm)
		if err != nil {
			return nil, Resolution{}, err
		}
		in.Files = files
		in.ParsedBody = req.PostForm
	case "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			return nil, Resolution{}, fmt.Errorf("parse form: %w", err)
		}
		in.ParsedBody = req.PostForm
	}

	if req.Body != nil && req.Body != http.NoBody {
		in.Body = stream.FromReader(req.Body)
	}
	return r.Assemble(in)
}
