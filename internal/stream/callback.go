package stream

import "errors"

// ErrCallbackStream 은 Callback 스트림에서 지원하지 않는 연산을 호출했을 때 함께 래핑되는 에러입니다.
var ErrCallbackStream = errors.New("callback stream")

// Callback 은 내용을 최초 Contents/String 호출 시점에 함수로 생성하는 단발성 스트림입니다.
// 읽기/쓰기/seek 는 모두 지원하지 않으며, 한 번 소비하면 비어 있는 상태(EOF)가 됩니다.
type Callback struct {
	fn func() string
}

// NewCallback 은 fn 을 지연 실행하는 Callback 스트림을 생성합니다.
func NewCallback(fn func() string) *Callback {
	return &Callback{fn: fn}
}

// Detach 는 내부 함수를 분리해 반환합니다. 이후 스트림은 EOF 상태입니다.
func (c *Callback) Detach() func() string {
	fn := c.fn
	c.fn = nil
	return fn
}

func (c *Callback) Read([]byte) (int, error) {
	return 0, errors.Join(ErrCallbackStream, ErrUnreadable)
}

func (c *Callback) Write([]byte) (int, error) {
	return 0, errors.Join(ErrCallbackStream, ErrUnwritable)
}

func (c *Callback) Seek(int64, int) (int64, error) {
	return 0, errors.Join(ErrCallbackStream, ErrUnseekable)
}

func (c *Callback) Close() error {
	c.fn = nil
	return nil
}

func (c *Callback) Tell() (int64, error) {
	return 0, errors.Join(ErrCallbackStream, ErrUntellable)
}

func (c *Callback) Size() (int64, bool) { return 0, false }
func (c *Callback) EOF() bool           { return c.fn == nil }
func (c *Callback) IsReadable() bool    { return false }
func (c *Callback) IsWritable() bool    { return false }
func (c *Callback) IsSeekable() bool    { return false }

func (c *Callback) Contents() (string, error) {
	fn := c.Detach()
	if fn == nil {
		return "", nil
	}
	return fn(), nil
}

func (c *Callback) String() string {
	out, _ := c.Contents()
	return out
}
