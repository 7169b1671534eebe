package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// Record 는 메시지를 키-값 형태로 평탄화한 표현입니다.
// JSON/YAML/structpb 로 그대로 인코딩할 수 있도록 값은 string, float64, []any, map[string]any 만 사용합니다.
//
// 요청 키:  method, request_target, uri, protocol_version, headers, body
// 응답 키:  status_code, reason_phrase, protocol_version, headers, body
type Record map[string]any

// DeserializationError 는 Record 를 메시지로 복원하지 못했을 때 반환됩니다.
// Err 에는 누락된 키 또는 값 객체 생성자의 에러가 담깁니다.
type DeserializationError struct {
	Msg string
	Err error
}

func (e *DeserializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// ErrMissingKey 는 Record 에 필수 키가 없을 때 DeserializationError 안에 래핑됩니다.
var ErrMissingKey = errors.New("missing key")

// RequestToRecord 는 요청을 Record 로 변환합니다. body 는 처음부터 끝까지 문자열로 읽습니다.
func RequestToRecord(r *message.Request) Record {
	return Record{
		"method":           r.Method(),
		"request_target":   r.RequestTarget(),
		"uri":              r.URI().String(),
		"protocol_version": r.ProtocolVersion(),
		"headers":          headersToRecord(r.Headers()),
		"body":             r.Body().String(),
	}
}

// RequestFromRecord 는 Record 로부터 요청을 복원합니다.
func RequestFromRecord(rec Record) (*message.Request, error) {
	req, err := requestFromRecord(rec)
	if err != nil {
		return nil, &DeserializationError{Msg: "cannot deserialize request", Err: err}
	}
	return req, nil
}

func requestFromRecord(rec Record) (*message.Request, error) {
	const kind = "request"
	rawURI, err := stringValue(rec, "uri", kind)
	if err != nil {
		return nil, err
	}
	method, err := stringValue(rec, "method", kind)
	if err != nil {
		return nil, err
	}
	body, err := stringValue(rec, "body", kind)
	if err != nil {
		return nil, err
	}
	headers, err := headersValue(rec, kind)
	if err != nil {
		return nil, err
	}
	target, err := stringValue(rec, "request_target", kind)
	if err != nil {
		return nil, err
	}
	version, err := stringValue(rec, "protocol_version", kind)
	if err != nil {
		return nil, err
	}

	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, err
	}
	req, err := message.NewRequest(method, u, stream.NewMemory(body), headers)
	if err != nil {
		return nil, err
	}
	if req, err = req.WithRequestTarget(target); err != nil {
		return nil, err
	}
	return req.WithProtocolVersion(version)
}

// ResponseToRecord 는 응답을 Record 로 변환합니다.
func ResponseToRecord(r *message.Response) Record {
	return Record{
		"status_code":      float64(r.StatusCode()),
		"reason_phrase":    r.ReasonPhrase(),
		"protocol_version": r.ProtocolVersion(),
		"headers":          headersToRecord(r.Headers()),
		"body":             r.Body().String(),
	}
}

// ResponseFromRecord 는 Record 로부터 응답을 복원합니다.
func ResponseFromRecord(rec Record) (*message.Response, error) {
	resp, err := responseFromRecord(rec)
	if err != nil {
		return nil, &DeserializationError{Msg: "cannot deserialize response", Err: err}
	}
	return resp, nil
}

func responseFromRecord(rec Record) (*message.Response, error) {
	const kind = "response"
	body, err := stringValue(rec, "body", kind)
	if err != nil {
		return nil, err
	}
	status, err := intValue(rec, "status_code", kind)
	if err != nil {
		return nil, err
	}
	headers, err := headersValue(rec, kind)
	if err != nil {
		return nil, err
	}
	version, err := stringValue(rec, "protocol_version", kind)
	if err != nil {
		return nil, err
	}
	reason, err := stringValue(rec, "reason_phrase", kind)
	if err != nil {
		return nil, err
	}

	resp, err := message.NewResponse(stream.NewMemory(body), status, headers)
	if err != nil {
		return nil, err
	}
	if resp, err = resp.WithProtocolVersion(version); err != nil {
		return nil, err
	}
	return resp.WithStatus(status, reason)
}

func headersToRecord(h *message.Headers) map[string]any {
	out := make(map[string]any, h.Len())
	h.Each(func(name string, values []string) {
		vs := make([]any, len(values))
		for i, v := range values {
			vs[i] = v
		}
		out[name] = vs
	})
	return out
}

func lookup(rec Record, key, kind string) (any, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing %q key in serialized %s", ErrMissingKey, key, kind)
	}
	return v, nil
}

func stringValue(rec Record, key, kind string) (string, error) {
	v, err := lookup(rec, key, kind)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string, got %T", key, v)
	}
	return s, nil
}

func intValue(rec Record, key, kind string) (int, error) {
	v, err := lookup(rec, key, kind)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("%q must be a number, got %T", key, v)
}

// headersValue 는 headers 키를 읽습니다. 디코더에 따라 map[string]any / []any 로 오거나
// Go 코드에서 만든 map[string][]string 일 수 있습니다. 이름순으로 추가해 결과 순서를 고정합니다.
func headersValue(rec Record, kind string) (*message.Headers, error) {
	v, err := lookup(rec, "headers", kind)
	if err != nil {
		return nil, err
	}
	raw := map[string][]string{}
	switch m := v.(type) {
	case map[string][]string:
		raw = m
	case map[string]any:
		for name, values := range m {
			switch vs := values.(type) {
			case string:
				raw[name] = []string{vs}
			case []string:
				raw[name] = vs
			case []any:
				for _, item := range vs {
					s, ok := item.(string)
					if !ok {
						return nil, fmt.Errorf("header %q must contain strings, got %T", name, item)
					}
					raw[name] = append(raw[name], s)
				}
			default:
				return nil, fmt.Errorf("header %q has unsupported value type %T", name, values)
			}
		}
	default:
		return nil, fmt.Errorf("\"headers\" must be a map, got %T", v)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	h := message.NewHeaders()
	for _, name := range names {
		if h, err = h.WithAdded(name, raw[name]...); err != nil {
			return nil, err
		}
	}
	return h, nil
}
