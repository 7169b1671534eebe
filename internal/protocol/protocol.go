package protocol

import (
	"fmt"

	"github.com/dalbodeule/hop-msg/internal/message"
)

// MessageType 은 Envelope 에 담긴 Record 의 종류입니다.
type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
)

// Envelope 는 codec 이 주고받는 단위입니다. Record 의 키 구성은 Type 에 따라 달라집니다.
type Envelope struct {
	ID     string      `json:"id,omitempty" yaml:"id,omitempty"`
	Type   MessageType `json:"type" yaml:"type"`
	Record Record      `json:"record" yaml:"record"`
}

// RequestEnvelope 는 요청을 Envelope 로 감쌉니다.
func RequestEnvelope(id string, r *message.Request) *Envelope {
	return &Envelope{ID: id, Type: MessageTypeRequest, Record: RequestToRecord(r)}
}

// ResponseEnvelope 는 응답을 Envelope 로 감쌉니다.
func ResponseEnvelope(id string, r *message.Response) *Envelope {
	return &Envelope{ID: id, Type: MessageTypeResponse, Record: ResponseToRecord(r)}
}

// Request 는 요청 Envelope 의 Record 를 복원합니다.
func (e *Envelope) Request() (*message.Request, error) {
	if e.Type != MessageTypeRequest {
		return nil, fmt.Errorf("protocol: envelope type %q is not a request", e.Type)
	}
	return RequestFromRecord(e.Record)
}

// Response 는 응답 Envelope 의 Record 를 복원합니다.
func (e *Envelope) Response() (*message.Response, error) {
	if e.Type != MessageTypeResponse {
		return nil, fmt.Errorf("protocol: envelope type %q is not a response", e.Type)
	}
	return ResponseFromRecord(e.Record)
}
