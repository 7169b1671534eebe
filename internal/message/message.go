// Package message 는 불변 HTTP 요청/응답 값 객체를 제공합니다.
// 모든 With* 메서드는 새 인스턴스를 반환하며, 헤더 맵과 body 는 변경되지 않은 경우 공유됩니다.
package message

import (
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// DefaultProtocolVersion 은 프로토콜 버전을 지정하지 않았을 때 사용됩니다.
const DefaultProtocolVersion = "1.1"

// Message 는 Request, Response, ServerRequest 가 공통으로 제공하는 읽기 전용 뷰입니다.
type Message interface {
	ProtocolVersion() string
	Headers() *Headers
	Header(name string) []string
	HeaderLine(name string) string
	HasHeader(name string) bool
	Body() stream.Stream
}

// base 는 요청/응답 공통 필드입니다.
type base struct {
	protocol string
	headers  *Headers
	body     stream.Stream
}

func newBase(body stream.Stream, headers *Headers) base {
	if body == nil {
		body = stream.NewMemory("")
	}
	if headers == nil {
		headers = NewHeaders()
	}
	return base{protocol: DefaultProtocolVersion, headers: headers, body: body}
}

func (b base) ProtocolVersion() string { return b.protocol }
func (b base) Body() stream.Stream     { return b.body }
