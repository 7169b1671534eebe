package wire

import (
	"errors"
	"fmt"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/uri"
)

// Kind 는 파싱 실패의 분류입니다. Kind 자체가 error 를 구현하므로
// errors.Is(err, ErrMalformedHeaderLine) 처럼 센티널로 비교할 수 있습니다.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedStartLine
	KindMalformedHeaderLine
	KindUnexpectedControlCharacter
	KindSourceNotReadable
	KindSourceNotSeekable
	// KindInvalidConstruction 은 값 객체 생성자가 거부한 경우입니다. 파서가 래핑하지 않고 그대로 전달하므로
	// ParseError 로는 나타나지 않으며 KindOf 로만 분류됩니다.
	KindInvalidConstruction
)

func (k Kind) Error() string {
	switch k {
	case KindMalformedStartLine:
		return "malformed start line"
	case KindMalformedHeaderLine:
		return "malformed header line"
	case KindUnexpectedControlCharacter:
		return "unexpected control character"
	case KindSourceNotReadable:
		return "source not readable"
	case KindSourceNotSeekable:
		return "source not seekable"
	case KindInvalidConstruction:
		return "invalid construction argument"
	default:
		return fmt.Sprintf("unknown wire error kind: %d", int(k))
	}
}

func (k Kind) String() string { return k.Error() }

var (
	ErrMalformedStartLine         error = KindMalformedStartLine
	ErrMalformedHeaderLine        error = KindMalformedHeaderLine
	ErrUnexpectedControlCharacter error = KindUnexpectedControlCharacter
	ErrSourceNotReadable          error = KindSourceNotReadable
	ErrSourceNotSeekable          error = KindSourceNotSeekable
)

// ErrUnsupportedMessage 는 ToWire 에 알 수 없는 메시지 타입이 전달된 경우입니다.
var ErrUnsupportedMessage = errors.New("wire: unsupported message type")

// ParseError 는 wire 형식 파싱 실패를 나타냅니다.
type ParseError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wire: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("wire: %s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is 는 같은 Kind 의 센티널과 일치합니다.
func (e *ParseError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newParseError(kind Kind, msg string) *ParseError {
	return &ParseError{Kind: kind, Msg: msg}
}

// KindOf 는 임의의 에러를 Kind 로 분류합니다. nil 이거나 알 수 없는 에러는 KindUnknown 입니다.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, message.ErrInvalidArgument) || errors.Is(err, uri.ErrInvalidURI) {
		return KindInvalidConstruction
	}
	return KindUnknown
}
