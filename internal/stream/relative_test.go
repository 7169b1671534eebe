package stream

import (
	"errors"
	"io"
	"testing"
)

// recordingStream 은 Relative 가 내부 스트림에 어떤 호출을 위임하는지 검증하기 위한 mock 입니다.
type recordingStream struct {
	pos      int64
	size     int64
	seekable bool
	contents string

	seeks  []int64
	reads  int
	writes int
	closed bool
}

func (m *recordingStream) Read(p []byte) (int, error) {
	m.reads++
	n := copy(p, "foo")
	return n, nil
}

func (m *recordingStream) Write(p []byte) (int, error) {
	m.writes++
	return len(p), nil
}

func (m *recordingStream) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.New("unexpected whence")
	}
	m.seeks = append(m.seeks, offset)
	m.pos = offset
	return offset, nil
}

func (m *recordingStream) Close() error              { m.closed = true; return nil }
func (m *recordingStream) Tell() (int64, error)      { return m.pos, nil }
func (m *recordingStream) Size() (int64, bool)       { return m.size, true }
func (m *recordingStream) EOF() bool                 { return false }
func (m *recordingStream) IsReadable() bool          { return true }
func (m *recordingStream) IsWritable() bool          { return true }
func (m *recordingStream) IsSeekable() bool          { return m.seekable }
func (m *recordingStream) Contents() (string, error) { return m.contents, nil }
func (m *recordingStream) String() string            { return m.contents }

func TestRelativeStringSeeksToOffset(t *testing.T) {
	inner := &recordingStream{pos: 100, seekable: true, contents: "foobarbaz"}
	r := NewRelative(inner, 100)

	if got := r.String(); got != "foobarbaz" {
		t.Fatalf("String mismatch: got %q, want %q", got, "foobarbaz")
	}
	if len(inner.seeks) != 1 || inner.seeks[0] != 100 {
		t.Fatalf("expected a single seek to 100, got %v", inner.seeks)
	}
}

func TestRelativeStringOnUnseekableStream(t *testing.T) {
	inner := &recordingStream{pos: 3, seekable: false, contents: "CONTENTS"}
	r := NewRelative(inner, 3)

	if got := r.String(); got != "CONTENTS" {
		t.Fatalf("String mismatch: got %q, want %q", got, "CONTENTS")
	}
	if len(inner.seeks) != 0 {
		t.Fatalf("unseekable stream must not be seeked, got %v", inner.seeks)
	}
}

func TestRelativeTranslatesPositions(t *testing.T) {
	inner := &recordingStream{pos: 188, size: 250, seekable: true}
	r := NewRelative(inner, 100)

	if pos, _ := r.Tell(); pos != 88 {
		t.Errorf("Tell mismatch: got %d, want %d", pos, 88)
	}
	if size, ok := r.Size(); !ok || size != 150 {
		t.Errorf("Size mismatch: got %d, want %d", size, 150)
	}

	pos, err := r.Seek(26, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos != 26 {
		t.Errorf("Seek result mismatch: got %d, want %d", pos, 26)
	}
	if last := inner.seeks[len(inner.seeks)-1]; last != 126 {
		t.Errorf("underlying seek mismatch: got %d, want %d", last, 126)
	}

	if err := Rewind(r); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	if last := inner.seeks[len(inner.seeks)-1]; last != 100 {
		t.Errorf("rewind should seek underlying to offset: got %d", last)
	}
}

func TestRelativeRejectsPointerBehindOffset(t *testing.T) {
	inner := &recordingStream{pos: 0, seekable: true, contents: "nope"}
	r := NewRelative(inner, 100)

	if _, err := r.Read(make([]byte, 3)); !errors.Is(err, ErrInvalidStreamPointerPosition) {
		t.Errorf("Read error mismatch: got %v", err)
	}
	if _, err := r.Write([]byte("foobaz")); !errors.Is(err, ErrInvalidStreamPointerPosition) {
		t.Errorf("Write error mismatch: got %v", err)
	}
	if _, err := r.Contents(); !errors.Is(err, ErrInvalidStreamPointerPosition) {
		t.Errorf("Contents error mismatch: got %v", err)
	}
	if inner.reads != 0 || inner.writes != 0 {
		t.Fatalf("underlying stream must not be touched: reads=%d writes=%d", inner.reads, inner.writes)
	}
}

func TestRelativeDelegatesAtOffset(t *testing.T) {
	inner := &recordingStream{pos: 100, seekable: true}
	r := NewRelative(inner, 100)

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	if err != nil || string(buf[:n]) != "foo" {
		t.Fatalf("Read mismatch: got %q, %v", buf[:n], err)
	}
	if n, err := r.Write([]byte("foobaz")); err != nil || n != 6 {
		t.Fatalf("Write mismatch: got %d, %v", n, err)
	}
}

func TestRelativeCloseKeepsUnderlyingOpen(t *testing.T) {
	inner := &recordingStream{}
	r := NewRelative(inner, 100)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if inner.closed {
		t.Fatal("Relative must not close the stream it borrows")
	}
}

func TestRelativeOverMemory(t *testing.T) {
	m := NewMemory("HEADERSbody bytes")
	if _, err := m.Seek(7, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	r := NewRelative(m, 7)

	got, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if got != "body bytes" {
		t.Fatalf("body mismatch: got %q, want %q", got, "body bytes")
	}
}
