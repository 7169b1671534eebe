package sapi

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// ServerParamsFromFastHTTP 는 fasthttp 요청 컨텍스트로부터 CGI 스타일 서버 파라미터를 만듭니다.
func ServerParamsFromFastHTTP(ctx *fasthttp.RequestCtx) map[string]string {
	server := map[string]string{
		"REQUEST_METHOD":  string(ctx.Method()),
		"REQUEST_URI":     string(ctx.RequestURI()),
		"QUERY_STRING":    string(ctx.URI().QueryString()),
		"SERVER_PROTOCOL": "HTTP/1.0",
	}
	if ctx.Request.Header.IsHTTP11() {
		server["SERVER_PROTOCOL"] = "HTTP/1.1"
	}
	if ctx.IsTLS() {
		server["HTTPS"] = "on"
	}
	if host, port, err := net.SplitHostPort(ctx.RemoteAddr().String()); err == nil {
		server["REMOTE_ADDR"] = host
		server["REMOTE_PORT"] = port
	}
	if host, port, err := net.SplitHostPort(ctx.LocalAddr().String()); err == nil {
		server["SERVER_ADDR"] = host
		server["SERVER_PORT"] = port
	}

	ctx.Request.Header.VisitAll(func(key, value []byte) {
		k := cgiHeaderKey(string(key))
		if prev, ok := server[k]; ok {
			server[k] = prev + ", " + string(value)
			return
		}
		server[k] = string(value)
	})
	if n := ctx.Request.Header.ContentLength(); n > 0 {
		server["CONTENT_LENGTH"] = strconv.Itoa(n)
	}
	return server
}

// FromFastHTTP 는 fasthttp 요청을 ServerRequest 로 변환합니다. fasthttp 는 body 를 버퍼링하므로
// body 는 복사된 Memory 스트림입니다.
func FromFastHTTP(ctx *fasthttp.RequestCtx, r Resolver) (*message.ServerRequest, Resolution, error) {
	in := Input{
		Server: ServerParamsFromFastHTTP(ctx),
		Query:  argsToValues(ctx.QueryArgs()),
		Body:   stream.NewMemory(string(ctx.PostBody())),
	}

	switch {
	case ctx.Request.IsBodyStream():
		// 스트리밍 body 는 그대로 둡니다.
	case isMultipart(ctx):
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, Resolution{}, fmt.Errorf("parse multipart form: %w", err)
		}
		files, err := FilesFromMultipart(form)
		if err != nil {
			return nil, Resolution{}, err
		}
		in.Files = files
		in.ParsedBody = url.Values(form.Value)
	case strings.HasPrefix(string(ctx.Request.Header.ContentType()), "application/x-www-form-urlencoded"):
		in.ParsedBody = argsToValues(ctx.PostArgs())
	}
	return r.Assemble(in)
}

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return len(ctx.Request.Header.MultipartFormBoundary()) > 0
}

func argsToValues(args *fasthttp.Args) url.Values {
	values := url.Values{}
	args.VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}
