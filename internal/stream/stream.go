package stream

import (
	"errors"
	"io"
)

// Stream 은 HTTP 메시지 body 로 사용되는 스트림 핸들입니다.
// 읽기/쓰기/seek 가능 여부는 구현체마다 다르며, 호출 전에 IsReadable/IsWritable/IsSeekable 로 확인할 수 있습니다.
//
// Stream is the body handle shared by requests and responses.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Tell 은 현재 포인터 위치를 반환합니다.
	Tell() (int64, error)
	// Size 는 알려진 경우 전체 크기를 반환합니다.
	Size() (int64, bool)
	// EOF 는 포인터가 스트림 끝에 도달했는지 여부입니다.
	EOF() bool

	IsReadable() bool
	IsWritable() bool
	IsSeekable() bool

	// Contents 는 현재 포인터부터 끝까지 남은 데이터를 읽어 반환합니다.
	Contents() (string, error)
	// String 은 가능한 경우 처음으로 되감은 뒤 전체 내용을 반환합니다. 실패 시 빈 문자열입니다.
	String() string
}

var (
	// ErrUnreadable 은 읽기 불가능한 스트림에서 읽으려 할 때 반환됩니다.
	ErrUnreadable = errors.New("stream is not readable")

	// ErrUnwritable 은 쓰기 불가능한 스트림에 쓰려 할 때 반환됩니다.
	ErrUnwritable = errors.New("stream is not writable")

	// ErrUnseekable 은 seek 를 지원하지 않는 스트림에서 seek 하려 할 때 반환됩니다.
	ErrUnseekable = errors.New("stream is not seekable")

	// ErrUntellable 은 현재 위치를 알 수 없는 경우 반환됩니다.
	ErrUntellable = errors.New("unable to determine stream position")

	// ErrInvalidStreamPointerPosition 은 Relative 스트림에서 포인터가 offset 보다 앞에 있을 때 반환됩니다.
	ErrInvalidStreamPointerPosition = errors.New("invalid pointer position")

	// ErrDetached 는 이미 닫힌 스트림을 사용하려 할 때 반환됩니다.
	ErrDetached = errors.New("stream is detached")

	// ErrInvalidMode 는 Open 에 알 수 없는 모드 문자열이 전달된 경우입니다.
	ErrInvalidMode = errors.New("invalid stream mode")
)

// Rewind 는 스트림을 처음 위치로 되감습니다.
func Rewind(s Stream) error {
	if !s.IsSeekable() {
		return ErrUnseekable
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// ReadAll 은 스트림을 처음부터 끝까지 읽습니다. seek 불가능하면 현재 위치부터 읽습니다.
func ReadAll(s Stream) (string, error) {
	if s.IsSeekable() {
		if err := Rewind(s); err != nil {
			return "", err
		}
	}
	return s.Contents()
}
