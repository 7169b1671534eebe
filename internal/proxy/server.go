package proxy

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// ServerOptions 는 NewHTTPServer 가 사용하는 서버 제한값입니다. zero value 는 net/http 기본값입니다.
type ServerOptions struct {
	ReadTimeout    time.Duration
	MaxHeaderBytes int
}

// NewHTTPServer 는 H1/H2 를 지원하는 기본 HTTP 서버를 생성합니다.
func NewHTTPServer(addr string, handler http.Handler, opts ServerOptions) (*http.Server, error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
	if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}
	return srv, nil
}
