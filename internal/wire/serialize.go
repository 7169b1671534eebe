package wire

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// RequestToWire 는 요청의 start line 과 헤더, 빈 줄을 wire 형식으로 반환합니다. body 는 포함하지 않습니다.
func RequestToWire(r *message.Request) string {
	var b strings.Builder
	b.WriteString(r.Method())
	b.WriteByte(' ')
	b.WriteString(r.RequestTarget())
	b.WriteString(" HTTP/")
	b.WriteString(r.ProtocolVersion())
	b.WriteString("\r\n")
	writeHeaders(&b, r.Headers())
	b.WriteString("\r\n")
	return b.String()
}

// ResponseToWire 는 응답의 status line 과 헤더, 빈 줄을 반환합니다.
// reason phrase 가 비어 있으면 앞의 공백까지 생략합니다("HTTP/1.1 299\r\n").
func ResponseToWire(r *message.Response) string {
	var b strings.Builder
	b.WriteString("HTTP/")
	b.WriteString(r.ProtocolVersion())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.StatusCode()))
	if reason := r.ReasonPhrase(); reason != "" {
		b.WriteByte(' ')
		b.WriteString(reason)
	}
	b.WriteString("\r\n")
	writeHeaders(&b, r.Headers())
	b.WriteString("\r\n")
	return b.String()
}

// writeHeaders 는 이름마다 한 줄씩, 여러 값은 ","로 이어 씁니다.
// 여러 줄로 보내야 의미가 유지되는 헤더(Set-Cookie 등)에는 손실이 있습니다.
func writeHeaders(b *strings.Builder, h *message.Headers) {
	h.Each(func(name string, values []string) {
		b.WriteString(name)
		b.WriteString(": ")
		for i, v := range values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(message.FilterHeaderValue(v))
		}
		b.WriteString("\r\n")
	})
}

// ToWire 는 메시지 타입에 맞는 직렬화 함수를 호출합니다.
func ToWire(m message.Message) (string, error) {
	switch v := m.(type) {
	case *message.Request:
		return RequestToWire(v), nil
	case *message.ServerRequest:
		return RequestToWire(v.Request), nil
	case *message.Response:
		return ResponseToWire(v), nil
	case *message.JSONResponse:
		return ResponseToWire(v.Response), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedMessage, m)
	}
}

// WriteRequest 는 요청의 head 와 body 를 w 에 씁니다.
func WriteRequest(w io.Writer, r *message.Request) error {
	if _, err := io.WriteString(w, RequestToWire(r)); err != nil {
		return fmt.Errorf("write request head: %w", err)
	}
	return copyBody(w, r.Body())
}

// WriteResponse 는 응답의 head 와 body 를 w 에 씁니다.
func WriteResponse(w io.Writer, r *message.Response) error {
	if _, err := io.WriteString(w, ResponseToWire(r)); err != nil {
		return fmt.Errorf("write response head: %w", err)
	}
	return copyBody(w, r.Body())
}

// Write 는 메시지 타입에 맞춰 WriteRequest/WriteResponse 를 호출합니다.
func Write(w io.Writer, m message.Message) error {
	switch v := m.(type) {
	case *message.Request:
		return WriteRequest(w, v)
	case *message.ServerRequest:
		return WriteRequest(w, v.Request)
	case *message.Response:
		return WriteResponse(w, v)
	case *message.JSONResponse:
		return WriteResponse(w, v.Response)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, m)
	}
}

func copyBody(w io.Writer, body stream.Stream) error {
	if body == nil {
		return nil
	}
	if body.IsSeekable() {
		if err := stream.Rewind(body); err != nil {
			return fmt.Errorf("rewind body: %w", err)
		}
	}
	if !body.IsReadable() {
		contents, err := body.Contents()
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		_, err = io.WriteString(w, contents)
		return err
	}
	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("copy body: %w", err)
	}
	return nil
}
