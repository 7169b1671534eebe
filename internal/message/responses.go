package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalbodeule/hop-msg/internal/stream"
)

// injectContentType 는 Content-Type 이 없을 때만 contentType 을 추가합니다.
func injectContentType(contentType string, headers *Headers) (*Headers, error) {
	if headers.Has("Content-Type") {
		return headers, nil
	}
	return headers.With("Content-Type", contentType)
}

func newTypedResponse(contentType string, body stream.Stream, status int, headers *Headers) (*Response, error) {
	h, err := injectContentType(contentType, headers)
	if err != nil {
		return nil, err
	}
	return NewResponse(body, status, h)
}

// NewTextResponse 는 text/plain 응답을 생성합니다.
func NewTextResponse(text string, status int, headers *Headers) (*Response, error) {
	return newTypedResponse("text/plain; charset=utf-8", stream.NewMemory(text), status, headers)
}

// NewHTMLResponse 는 text/html 응답을 생성합니다.
func NewHTMLResponse(html string, status int, headers *Headers) (*Response, error) {
	return newTypedResponse("text/html; charset=utf-8", stream.NewMemory(html), status, headers)
}

// NewXMLResponse 는 application/xml 응답을 생성합니다.
func NewXMLResponse(xml string, status int, headers *Headers) (*Response, error) {
	return newTypedResponse("application/xml; charset=utf-8", stream.NewMemory(xml), status, headers)
}

// NewEmptyResponse 는 body 가 없는 응답을 생성합니다. status 가 0 이면 204 입니다.
func NewEmptyResponse(status int, headers *Headers) (*Response, error) {
	if status == 0 {
		status = http.StatusNoContent
	}
	return NewResponse(stream.NewMemory(""), status, headers)
}

// NewRedirectResponse 는 Location 헤더를 가진 리다이렉트 응답을 생성합니다. status 가 0 이면 302 입니다.
func NewRedirectResponse(location string, status int, headers *Headers) (*Response, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: Uri provided to redirect must be a non-empty string", ErrInvalidArgument)
	}
	if status == 0 {
		status = http.StatusFound
	}
	h, err := headers.With("Location", location)
	if err != nil {
		return nil, err
	}
	return NewResponse(nil, status, h)
}

// JSONOptions 는 JSON 응답 인코딩 옵션입니다. 호출마다 명시적으로 전달하며 전역 상태는 없습니다.
type JSONOptions struct {
	HexTag  bool // "<", ">" 를 유니코드 escape 로
	HexAmp  bool // "&"
	HexApos bool // "'"
	HexQuot bool // 문자열 안의 escape 된 따옴표
	Indent  string
}

// DefaultJSONOptions 는 HTML 에 안전하게 삽입할 수 있는 기본 옵션을 반환합니다.
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{HexTag: true, HexAmp: true, HexApos: true, HexQuot: true}
}

// EncodeJSON 은 data 를 opts 에 따라 인코딩합니다.
func EncodeJSON(data any, opts JSONOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts.Indent != "" {
		enc.SetIndent("", opts.Indent)
	}
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("%w: unable to encode data to JSON: %v", ErrInvalidArgument, err)
	}
	return hexEscape(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), opts), nil
}

// hexEscape 는 JSON 문자열 리터럴 내부의 문자만 \uXXXX 로 치환합니다.
func hexEscape(in []byte, opts JSONOptions) []byte {
	if !opts.HexTag && !opts.HexAmp && !opts.HexApos && !opts.HexQuot {
		return in
	}
	out := make([]byte, 0, len(in)+16)
	inString := false
	for i := 0; i < len(in); i++ {
		c := in[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			out = append(out, c)
			continue
		}
		switch {
		case c == '\\' && i+1 < len(in):
			if in[i+1] == '"' && opts.HexQuot {
				out = appendHex(out, '"')
			} else {
				out = append(out, c, in[i+1])
			}
			i++
		case c == '"':
			inString = false
			out = append(out, c)
		case (c == '<' || c == '>') && opts.HexTag:
			out = appendHex(out, c)
		case c == '&' && opts.HexAmp:
			out = appendHex(out, c)
		case c == '\'' && opts.HexApos:
			out = appendHex(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func appendHex(out []byte, c byte) []byte {
	return fmt.Appendf(out, `\u%04X`, c)
}

// JSONResponse 는 payload 와 인코딩 옵션을 함께 보관하는 application/json 응답입니다.
type JSONResponse struct {
	*Response
	payload any
	opts    JSONOptions
}

// NewJSONResponse 는 data 를 opts 로 인코딩한 JSON 응답을 생성합니다. status 가 0 이면 200 입니다.
func NewJSONResponse(data any, status int, headers *Headers, opts JSONOptions) (*JSONResponse, error) {
	encoded, err := EncodeJSON(data, opts)
	if err != nil {
		return nil, err
	}
	resp, err := newTypedResponse("application/json", stream.NewMemory(string(encoded)), status, headers)
	if err != nil {
		return nil, err
	}
	return &JSONResponse{Response: resp, payload: data, opts: opts}, nil
}

func (r *JSONResponse) Payload() any                 { return r.payload }
func (r *JSONResponse) EncodingOptions() JSONOptions { return r.opts }

// WithPayload 는 payload 를 교체하고 body 를 다시 인코딩합니다.
func (r *JSONResponse) WithPayload(data any) (*JSONResponse, error) {
	return r.rebuild(data, r.opts)
}

// WithEncodingOptions 는 인코딩 옵션을 교체하고 body 를 다시 인코딩합니다.
func (r *JSONResponse) WithEncodingOptions(opts JSONOptions) (*JSONResponse, error) {
	return r.rebuild(r.payload, opts)
}

func (r *JSONResponse) rebuild(data any, opts JSONOptions) (*JSONResponse, error) {
	encoded, err := EncodeJSON(data, opts)
	if err != nil {
		return nil, err
	}
	return &JSONResponse{
		Response: r.Response.WithBody(stream.NewMemory(string(encoded))),
		payload:  data,
		opts:     opts,
	}, nil
}
