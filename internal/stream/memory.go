package stream

import (
	"fmt"
	"io"
)

// Memory 는 메모리 버퍼 기반의 읽기/쓰기/seek 가능한 스트림입니다.
// 메시지의 기본 body 로 사용됩니다.
type Memory struct {
	buf    []byte
	pos    int64
	closed bool
}

// NewMemory 는 content 로 초기화된 Memory 스트림을 생성합니다. 포인터는 0 에 위치합니다.
func NewMemory(content string) *Memory {
	return &Memory{buf: []byte(content)}
}

func (m *Memory) Read(p []byte) (int, error) {
	if m.closed {
		return 0, ErrDetached
	}
	if len(p) == 0 {
		return 0, nil
	}
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *Memory) Write(p []byte) (int, error) {
	if m.closed {
		return 0, ErrDetached
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return 0, ErrDetached
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("memory stream: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("memory stream: negative position %d", abs)
	}
	m.pos = abs
	return abs, nil
}

func (m *Memory) Close() error {
	m.closed = true
	m.buf = nil
	m.pos = 0
	return nil
}

func (m *Memory) Tell() (int64, error) {
	if m.closed {
		return 0, ErrUntellable
	}
	return m.pos, nil
}

func (m *Memory) Size() (int64, bool) {
	if m.closed {
		return 0, false
	}
	return int64(len(m.buf)), true
}

func (m *Memory) EOF() bool {
	return m.closed || m.pos >= int64(len(m.buf))
}

func (m *Memory) IsReadable() bool { return !m.closed }
func (m *Memory) IsWritable() bool { return !m.closed }
func (m *Memory) IsSeekable() bool { return !m.closed }

func (m *Memory) Contents() (string, error) {
	if m.closed {
		return "", ErrDetached
	}
	if m.pos >= int64(len(m.buf)) {
		return "", nil
	}
	out := string(m.buf[m.pos:])
	m.pos = int64(len(m.buf))
	return out, nil
}

func (m *Memory) String() string {
	if m.closed {
		return ""
	}
	m.pos = int64(len(m.buf))
	return string(m.buf)
}
