package stream

import (
	"errors"
	"fmt"
	"io"
)

// Reader 는 임의의 io.Reader 를 읽기 전용, seek 불가능한 스트림으로 노출합니다.
// net/http, fasthttp 요청 body 처럼 한 번만 읽을 수 있는 입력에 사용합니다.
type Reader struct {
	r      io.Reader
	pos    int64
	eof    bool
	closed bool
}

// FromReader 는 r 을 감싼 Reader 스트림을 생성합니다. r 이 io.Closer 이면 Close 시 함께 닫습니다.
func FromReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (s *Reader) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrDetached
	}
	n, err := s.r.Read(p)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return n, err
}

func (s *Reader) Write([]byte) (int, error) { return 0, ErrUnwritable }

func (s *Reader) Seek(int64, int) (int64, error) { return 0, ErrUnseekable }

func (s *Reader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Reader) Tell() (int64, error) {
	if s.closed {
		return 0, ErrUntellable
	}
	return s.pos, nil
}

func (s *Reader) Size() (int64, bool) { return 0, false }
func (s *Reader) EOF() bool           { return s.closed || s.eof }
func (s *Reader) IsReadable() bool    { return !s.closed }
func (s *Reader) IsWritable() bool    { return false }
func (s *Reader) IsSeekable() bool    { return false }

func (s *Reader) Contents() (string, error) {
	if s.closed {
		return "", ErrDetached
	}
	b, err := io.ReadAll(s.r)
	s.pos += int64(len(b))
	s.eof = true
	if err != nil {
		return string(b), fmt.Errorf("read stream contents: %w", err)
	}
	return string(b), nil
}

func (s *Reader) String() string {
	out, _ := s.Contents()
	return out
}
