package wire

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// Limits 는 호출마다 전달하는 파싱 제한입니다. zero value 는 제한 없음입니다.
type Limits struct {
	// MaxHeaderBytes 는 start line 을 포함한 헤더 블록의 최대 바이트 수입니다.
	MaxHeaderBytes int64
}

var (
	protocolToken = regexp.MustCompile(`^HTTP/(\d(?:\.\d)?)$`)
	absoluteForm  = regexp.MustCompile(`^https?://`)
)

// ReadRequest 는 stream 에서 요청을 읽습니다. 반환된 요청의 body 는 헤더 블록 직후에 고정된
// stream.Relative 이며 s 를 그대로 참조합니다. s 의 수명은 호출자가 관리합니다.
func ReadRequest(s stream.Stream) (*message.Request, error) {
	return ReadRequestWithLimits(s, Limits{})
}

func ReadRequestWithLimits(s stream.Stream, limits Limits) (*message.Request, error) {
	if err := checkSource(s); err != nil {
		return nil, err
	}
	sc := &scanner{src: &streamSource{s: s}, limit: limits.MaxHeaderBytes}
	return readRequest(sc, func() (stream.Stream, error) { return relativeBody(s) })
}

// ParseRequest 는 메모리 상의 wire 문자열에서 요청을 파싱합니다. body 는 남은 바이트를 담은 Memory 스트림입니다.
func ParseRequest(raw string) (*message.Request, error) {
	return ParseRequestWithLimits(raw, Limits{})
}

func ParseRequestWithLimits(raw string, limits Limits) (*message.Request, error) {
	src := &stringSource{s: raw}
	sc := &scanner{src: src, limit: limits.MaxHeaderBytes}
	return readRequest(sc, func() (stream.Stream, error) { return stream.NewMemory(src.rest()), nil })
}

// ReadResponse 는 stream 에서 응답을 읽습니다. body 규칙은 ReadRequest 와 같습니다.
func ReadResponse(s stream.Stream) (*message.Response, error) {
	return ReadResponseWithLimits(s, Limits{})
}

func ReadResponseWithLimits(s stream.Stream, limits Limits) (*message.Response, error) {
	if err := checkSource(s); err != nil {
		return nil, err
	}
	sc := &scanner{src: &streamSource{s: s}, limit: limits.MaxHeaderBytes}
	return readResponse(sc, func() (stream.Stream, error) { return relativeBody(s) })
}

// ParseResponse 는 메모리 상의 wire 문자열에서 응답을 파싱합니다.
func ParseResponse(raw string) (*message.Response, error) {
	return ParseResponseWithLimits(raw, Limits{})
}

func ParseResponseWithLimits(raw string, limits Limits) (*message.Response, error) {
	src := &stringSource{s: raw}
	sc := &scanner{src: src, limit: limits.MaxHeaderBytes}
	return readResponse(sc, func() (stream.Stream, error) { return stream.NewMemory(src.rest()), nil })
}

// ParseMessage 는 start line 모양에 따라 요청 또는 응답으로 파싱합니다.
func ParseMessage(raw string) (message.Message, error) {
	if strings.HasPrefix(raw, "HTTP/") {
		return ParseResponse(raw)
	}
	return ParseRequest(raw)
}

// ReadMessage 는 stream 의 처음 몇 바이트를 확인한 뒤 제자리로 되돌리고 요청 또는 응답으로 읽습니다.
func ReadMessage(s stream.Stream, limits Limits) (message.Message, error) {
	if err := checkSource(s); err != nil {
		return nil, err
	}
	start, err := s.Tell()
	if err != nil {
		return nil, &ParseError{Kind: KindSourceNotSeekable, Msg: "unable to determine position", Err: err}
	}
	prefix := make([]byte, len("HTTP/"))
	n, err := io.ReadFull(s, prefix)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, &ParseError{Kind: KindSourceNotReadable, Msg: "unable to read source", Err: err}
	}
	if _, err := s.Seek(start, io.SeekStart); err != nil {
		return nil, &ParseError{Kind: KindSourceNotSeekable, Msg: "unable to rewind source", Err: err}
	}
	if string(prefix[:n]) == "HTTP/" {
		return ReadResponseWithLimits(s, limits)
	}
	return ReadRequestWithLimits(s, limits)
}

func checkSource(s stream.Stream) error {
	if !s.IsReadable() {
		return newParseError(KindSourceNotReadable, "message stream must be readable")
	}
	if !s.IsSeekable() {
		return newParseError(KindSourceNotSeekable, "message stream must be seekable")
	}
	return nil
}

func relativeBody(s stream.Stream) (stream.Stream, error) {
	pos, err := s.Tell()
	if err != nil {
		return nil, &ParseError{Kind: KindSourceNotSeekable, Msg: "unable to determine body offset", Err: err}
	}
	return stream.NewRelative(s, pos), nil
}

func parseProtocol(token string) (string, bool) {
	m := protocolToken.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func readRequest(sc *scanner, body func() (stream.Stream, error)) (*message.Request, error) {
	line, _, err := sc.line()
	if err != nil {
		return nil, err
	}
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, newParseError(KindMalformedStartLine, "invalid request line detected")
	}
	method, target := parts[0], parts[1]
	version, ok := parseProtocol(parts[2])
	if !ok {
		return nil, newParseError(KindMalformedStartLine, "invalid request line detected: unrecognized protocol version")
	}

	hs, err := sc.headers()
	if err != nil {
		return nil, err
	}
	b, err := body()
	if err != nil {
		return nil, err
	}

	// 아래부터는 값 객체 생성 단계이며, 생성자 에러는 그대로 전달합니다.
	u, err := uriFromTarget(target)
	if err != nil {
		return nil, err
	}
	headers, err := hs.toHeaders()
	if err != nil {
		return nil, err
	}
	req, err := message.NewRequest(method, u, b, headers)
	if err != nil {
		return nil, err
	}
	if req, err = req.WithProtocolVersion(version); err != nil {
		return nil, err
	}
	return req.WithRequestTarget(target)
}

// uriFromTarget 은 request-target 으로부터 URI 를 만듭니다.
//   - absolute-form(http(s)://...)은 그대로 파싱합니다.
//   - asterisk-form 과 authority-form 은 빈 URI 입니다.
//   - origin-form 은 path[?query] 로 파싱합니다.
func uriFromTarget(target string) (uri.URI, error) {
	if absoluteForm.MatchString(target) {
		return uri.Parse(target)
	}
	if target == "" || target[0] != '/' {
		return uri.URI{}, nil
	}
	return uri.Parse(target)
}

func readResponse(sc *scanner, body func() (stream.Stream, error)) (*message.Response, error) {
	line, _, err := sc.line()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, newParseError(KindMalformedStartLine, "invalid status line detected")
	}
	version, ok := parseProtocol(parts[0])
	if !ok {
		return nil, newParseError(KindMalformedStartLine, "invalid status line detected: unrecognized protocol version")
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, newParseError(KindMalformedStartLine, "invalid status line detected: status code is not an integer")
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	hs, err := sc.headers()
	if err != nil {
		return nil, err
	}
	b, err := body()
	if err != nil {
		return nil, err
	}

	headers, err := hs.toHeaders()
	if err != nil {
		return nil, err
	}
	resp, err := message.NewResponse(b, status, headers)
	if err != nil {
		return nil, err
	}
	if resp, err = resp.WithStatus(status, reason); err != nil {
		return nil, err
	}
	return resp.WithProtocolVersion(version)
}

func (hs *headerSet) toHeaders() (*message.Headers, error) {
	h := message.NewHeaders()
	for _, f := range hs.fields {
		var err error
		if h, err = h.WithAdded(f.name, f.values...); err != nil {
			return nil, err
		}
	}
	return h, nil
}
