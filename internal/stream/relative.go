package stream

import (
	"fmt"
	"io"
)

// Relative 는 기존 스트림 위에 고정 offset 부터 시작하는 view 를 제공합니다.
// 파서가 헤더를 읽은 뒤 남은 body 를 복사하지 않고 넘겨줄 때 사용합니다.
//
//   - 위치 관련 값(Tell/Seek/Size)은 offset 만큼 평행이동됩니다.
//   - 내부 포인터가 offset 보다 앞에 있으면 Read/Write/Contents 는 ErrInvalidStreamPointerPosition 을 반환합니다.
//   - 내부 스트림을 소유하지 않으므로 Close 는 내부 스트림을 닫지 않습니다. 수명은 호출자가 관리합니다.
type Relative struct {
	s      Stream
	offset int64
}

// NewRelative 는 s 의 offset 위치부터 시작하는 Relative view 를 생성합니다.
func NewRelative(s Stream, offset int64) *Relative {
	return &Relative{s: s, offset: offset}
}

// Offset 은 view 의 시작 위치(내부 스트림 기준)입니다.
func (r *Relative) Offset() int64 { return r.offset }

// Underlying 은 감싸고 있는 내부 스트림입니다.
func (r *Relative) Underlying() Stream { return r.s }

// checkPointer 는 내부 포인터가 offset 이상인지 확인합니다.
func (r *Relative) checkPointer() error {
	pos, err := r.s.Tell()
	if err != nil {
		return err
	}
	if pos < r.offset {
		return fmt.Errorf("%w: %d is before offset %d", ErrInvalidStreamPointerPosition, pos, r.offset)
	}
	return nil
}

func (r *Relative) Read(p []byte) (int, error) {
	if err := r.checkPointer(); err != nil {
		return 0, err
	}
	return r.s.Read(p)
}

func (r *Relative) Write(p []byte) (int, error) {
	if err := r.checkPointer(); err != nil {
		return 0, err
	}
	return r.s.Write(p)
}

func (r *Relative) Seek(offset int64, whence int) (int64, error) {
	var (
		pos int64
		err error
	)
	if whence == io.SeekStart {
		pos, err = r.s.Seek(offset+r.offset, io.SeekStart)
	} else {
		pos, err = r.s.Seek(offset, whence)
	}
	if err != nil {
		return 0, err
	}
	return pos - r.offset, nil
}

// Close 는 내부 스트림을 닫지 않습니다.
func (r *Relative) Close() error { return nil }

func (r *Relative) Tell() (int64, error) {
	pos, err := r.s.Tell()
	if err != nil {
		return 0, err
	}
	return pos - r.offset, nil
}

func (r *Relative) Size() (int64, bool) {
	size, ok := r.s.Size()
	if !ok {
		return 0, false
	}
	return size - r.offset, true
}

func (r *Relative) EOF() bool        { return r.s.EOF() }
func (r *Relative) IsReadable() bool { return r.s.IsReadable() }
func (r *Relative) IsWritable() bool { return r.s.IsWritable() }
func (r *Relative) IsSeekable() bool { return r.s.IsSeekable() }

func (r *Relative) Contents() (string, error) {
	if err := r.checkPointer(); err != nil {
		return "", err
	}
	return r.s.Contents()
}

func (r *Relative) String() string {
	if r.s.IsSeekable() {
		if _, err := r.s.Seek(r.offset, io.SeekStart); err != nil {
			return ""
		}
	}
	out, err := r.s.Contents()
	if err != nil {
		return ""
	}
	return out
}
