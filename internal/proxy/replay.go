package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/observability"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// Replayer 는 파싱된 message.Request 를 실제 HTTP 서버로 보내고 응답을 message.Response 로 돌려줍니다.
type Replayer struct {
	HTTPClient *http.Client
	Logger     logging.Logger

	// Target 이 비어 있지 않으면 요청 URI 의 host[:port] 대신 이 주소로 보냅니다 (예: "127.0.0.1:8080").
	// Host 헤더는 원래 값을 유지합니다.
	Target string
	// Scheme 은 Target 과 함께 사용할 scheme 입니다. 비어 있으면 요청 URI 의 scheme, 그것도 없으면 http 입니다.
	Scheme string
}

// NewReplayer 는 기본 HTTP 클라이언트 및 로거를 사용해 Replayer 를 생성합니다.
func NewReplayer(logger logging.Logger, target string, timeout time.Duration) *Replayer {
	if logger == nil {
		logger = logging.NewStdJSONLogger("replay")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Replayer{
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
			// 리다이렉트 응답도 그대로 돌려줍니다.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		Logger: logger.With(logging.Fields{"component": "replay"}),
		Target: target,
	}
}

// Replay 는 req 를 전송하고 응답 전체를 메모리로 읽어 반환합니다.
func (p *Replayer) Replay(ctx context.Context, req *message.Request) (*message.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	start := time.Now()
	log := p.Logger.With(logging.Fields{
		"request_id": id,
		"method":     req.Method(),
		"uri":        req.URI().String(),
		"target":     p.Target,
	})

	httpReq, err := p.buildRequest(ctx, req)
	if err != nil {
		observability.ObserveReplayError("build_request")
		log.Error("failed to build http request", logging.Fields{"error": err.Error()})
		return nil, err
	}

	res, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		observability.ObserveReplayError("transport")
		log.Error("http request failed", logging.Fields{"error": err.Error()})
		return nil, fmt.Errorf("perform http request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		observability.ObserveReplayError("read_body")
		log.Error("failed to read response body", logging.Fields{"error": err.Error()})
		return nil, fmt.Errorf("read http response body: %w", err)
	}

	resp, err := toMessageResponse(res, string(body))
	if err != nil {
		observability.ObserveReplayError("convert_response")
		log.Error("failed to convert response", logging.Fields{"error": err.Error()})
		return nil, err
	}

	log.Info("replay completed", logging.Fields{
		"status":     res.StatusCode,
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

// buildRequest 는 message.Request 를 net/http 요청으로 변환합니다.
func (p *Replayer) buildRequest(ctx context.Context, req *message.Request) (*http.Request, error) {
	u := req.URI()
	scheme := p.Scheme
	if scheme == "" {
		scheme = u.Scheme()
	}
	if scheme == "" {
		scheme = "http"
	}
	host := p.Target
	if host == "" {
		host = u.Authority()
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
	}
	if host == "" {
		host = req.HeaderLine("Host")
	}
	if host == "" {
		return nil, fmt.Errorf("replay: request has no host and no target is configured")
	}

	target := u.Path()
	if target == "" {
		target = "/"
	} else if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if q := u.Query(); q != "" {
		target += "?" + q
	}

	body, size, err := requestBody(req.Body())
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), scheme+"://"+host+target, body)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	if size >= 0 {
		httpReq.ContentLength = size
	}

	req.Headers().Each(func(name string, values []string) {
		if strings.EqualFold(name, "Host") {
			httpReq.Host = strings.Join(values, ",")
			return
		}
		if strings.EqualFold(name, "Content-Length") {
			return
		}
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	})
	return httpReq, nil
}

// requestBody 는 body 를 처음부터 읽는 reader 와 알려진 크기를 반환합니다. 크기를 모르면 -1 입니다.
func requestBody(s stream.Stream) (io.Reader, int64, error) {
	if s == nil {
		return nil, 0, nil
	}
	if s.IsSeekable() {
		if err := stream.Rewind(s); err != nil {
			return nil, 0, fmt.Errorf("rewind request body: %w", err)
		}
	}
	size, ok := s.Size()
	if ok && size == 0 {
		return nil, 0, nil
	}
	if !ok {
		size = -1
	}
	// 전송이 끝나면 transport 가 body 를 닫으므로 원본 스트림은 감춰 둡니다.
	return io.NopCloser(s), size, nil
}

func toMessageResponse(res *http.Response, body string) (*message.Response, error) {
	names := make([]string, 0, len(res.Header))
	for name := range res.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := message.NewHeaders()
	for _, name := range names {
		var err error
		if headers, err = headers.WithAdded(name, res.Header[name]...); err != nil {
			return nil, fmt.Errorf("convert response header %q: %w", name, err)
		}
	}

	resp, err := message.NewResponse(stream.NewMemory(body), res.StatusCode, headers)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if resp, err = resp.WithStatus(res.StatusCode, reason); err != nil {
		return nil, err
	}
	return resp.WithProtocolVersion(protocolVersion(res.ProtoMajor, res.ProtoMinor))
}

func protocolVersion(major, minor int) string {
	switch {
	case major >= 2:
		return "2"
	case major == 1 && minor == 0:
		return "1.0"
	default:
		return "1.1"
	}
}
