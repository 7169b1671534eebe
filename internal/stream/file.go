package stream

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// File 은 *os.File 을 감싼 스트림입니다. 읽기/쓰기 가능 여부는 fopen 스타일 모드 문자열로 결정됩니다.
type File struct {
	f        *os.File
	readable bool
	writable bool
	closed   bool
}

// modeFlags 는 "r", "r+", "w+", "a" 같은 모드 문자열을 os.OpenFile 플래그로 변환합니다.
// "b"/"t" 수식자는 무시합니다.
func modeFlags(mode string) (flag int, readable, writable bool, err error) {
	m := strings.NewReplacer("b", "", "t", "").Replace(mode)
	switch m {
	case "r":
		return os.O_RDONLY, true, false, nil
	case "r+":
		return os.O_RDWR, true, true, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, false, true, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, true, true, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, false, true, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, true, true, nil
	case "x":
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, false, true, nil
	case "x+":
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, true, true, nil
	case "c":
		return os.O_WRONLY | os.O_CREATE, false, true, nil
	case "c+":
		return os.O_RDWR | os.O_CREATE, true, true, nil
	default:
		return 0, false, false, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// Open 은 path 의 파일을 mode 로 열어 File 스트림을 반환합니다.
func Open(path, mode string) (*File, error) {
	flag, readable, writable, err := modeFlags(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open stream %q: %w", path, err)
	}
	return &File{f: f, readable: readable, writable: writable}, nil
}

func (s *File) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrDetached
	}
	if !s.readable {
		return 0, ErrUnreadable
	}
	return s.f.Read(p)
}

func (s *File) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrDetached
	}
	if !s.writable {
		return 0, ErrUnwritable
	}
	return s.f.Write(p)
}

func (s *File) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrDetached
	}
	return s.f.Seek(offset, whence)
}

func (s *File) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

func (s *File) Tell() (int64, error) {
	if s.closed {
		return 0, ErrUntellable
	}
	pos, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUntellable, err)
	}
	return pos, nil
}

func (s *File) Size() (int64, bool) {
	if s.closed {
		return 0, false
	}
	fi, err := s.f.Stat()
	if err != nil {
		return 0, false
	}
	return fi.Size(), true
}

func (s *File) EOF() bool {
	if s.closed {
		return true
	}
	pos, err := s.Tell()
	if err != nil {
		return true
	}
	size, ok := s.Size()
	return ok && pos >= size
}

func (s *File) IsReadable() bool { return !s.closed && s.readable }
func (s *File) IsWritable() bool { return !s.closed && s.writable }
func (s *File) IsSeekable() bool { return !s.closed }

func (s *File) Contents() (string, error) {
	if s.closed {
		return "", ErrDetached
	}
	if !s.readable {
		return "", ErrUnreadable
	}
	b, err := io.ReadAll(s.f)
	if err != nil {
		return "", fmt.Errorf("read stream contents: %w", err)
	}
	return string(b), nil
}

func (s *File) String() string {
	if !s.IsReadable() {
		return ""
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	out, err := s.Contents()
	if err != nil {
		return ""
	}
	return out
}

// Name 은 내부 파일 경로를 반환합니다.
func (s *File) Name() string {
	return s.f.Name()
}
