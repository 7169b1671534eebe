package message

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalbodeule/hop-msg/internal/stream"
)

func TestUploadedFileAccessors(t *testing.T) {
	f, err := NewUploadedFile(stream.NewMemory(""), 123, UploadErrOK, "boo.txt", "mediatype")
	if err != nil {
		t.Fatalf("NewUploadedFile failed: %v", err)
	}
	if f.Size() != 123 || f.ClientFilename() != "boo.txt" || f.ClientMediaType() != "mediatype" {
		t.Fatalf("accessor mismatch: %d %q %q", f.Size(), f.ClientFilename(), f.ClientMediaType())
	}
}

func TestUploadedFileRejectsInvalidStatus(t *testing.T) {
	for _, code := range []int{-1, 9} {
		if _, err := NewUploadedFile(stream.NewMemory(""), 0, code, "", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("status %d: expected ErrInvalidArgument, got %v", code, err)
		}
	}
	if _, err := NewUploadedFile(nil, 0, UploadErrOK, "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing stream must fail, got %v", err)
	}
}

func TestUploadedFileMovesOnce(t *testing.T) {
	body := stream.NewMemory("")
	_, _ = body.Write([]byte("Foo bar!"))
	f, _ := NewUploadedFile(body, 8, UploadErrOK, "", "")

	to := filepath.Join(t.TempDir(), "moved.txt")
	if err := f.MoveTo(to); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}
	got, err := os.ReadFile(to)
	if err != nil || string(got) != "Foo bar!" {
		t.Fatalf("moved contents mismatch: %q, %v", got, err)
	}

	if err := f.MoveTo(to); !errors.Is(err, ErrAlreadyMoved) {
		t.Fatalf("second MoveTo must fail with ErrAlreadyMoved, got %v", err)
	}
	if _, err := f.Stream(); !errors.Is(err, ErrAlreadyMoved) {
		t.Fatalf("Stream after move must fail with ErrAlreadyMoved, got %v", err)
	}
}

func TestUploadedFileMoveRequiresPath(t *testing.T) {
	f, _ := NewUploadedFile(stream.NewMemory("x"), 1, UploadErrOK, "", "")
	if err := f.MoveTo(""); !errors.Is(err, ErrInvalidArgument) || !strings.Contains(err.Error(), "path") {
		t.Fatalf("empty path must fail, got %v", err)
	}
}

func TestUploadedFileFromPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "upload.tmp")
	if err := os.WriteFile(src, []byte("from disk"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f, err := NewUploadedFileFromPath(src, 9, UploadErrOK, "upload.txt", "text/plain")
	if err != nil {
		t.Fatalf("NewUploadedFileFromPath failed: %v", err)
	}

	s, err := f.Stream()
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got := s.String(); got != "from disk" {
		t.Fatalf("stream contents mismatch: %q", got)
	}
	_ = s.Close()

	dst := filepath.Join(dir, "final.txt")
	if err := f.MoveTo(dst); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "from disk" {
		t.Fatalf("moved contents mismatch: %q", got)
	}
}

func TestUploadedFileWithErrorStatus(t *testing.T) {
	codes := []int{UploadErrIniSize, UploadErrFormSize, UploadErrPartial, UploadErrNoFile, UploadErrNoTmpDir, UploadErrCantWrite, UploadErrExtension}
	for _, code := range codes {
		f, err := NewUploadedFileFromPath("not ok", 0, code, "", "")
		if err != nil {
			t.Fatalf("status %d: constructor must accept any path, got %v", code, err)
		}
		if f.Error() != code {
			t.Errorf("status mismatch: got %d, want %d", f.Error(), code)
		}
		_, err = f.Stream()
		if !errors.Is(err, ErrUploadError) || !strings.Contains(err.Error(), UploadErrorMessage(code)) {
			t.Errorf("status %d: Stream error mismatch: %v", code, err)
		}
		if err := f.MoveTo(filepath.Join(t.TempDir(), "x")); !errors.Is(err, ErrUploadError) {
			t.Errorf("status %d: MoveTo error mismatch: %v", code, err)
		}
	}
}

func TestFileTreeCount(t *testing.T) {
	a, _ := NewUploadedFile(stream.NewMemory("a"), 1, UploadErrOK, "a", "")
	b, _ := NewUploadedFile(stream.NewMemory("b"), 1, UploadErrOK, "b", "")
	tree := FileTree{
		"avatar": Leaf(a),
		"docs": Branch(FileTree{
			"0": Leaf(b),
			"1": Branch(FileTree{"x": Leaf(a)}),
		}),
	}
	if got := tree.Count(); got != 3 {
		t.Fatalf("Count mismatch: got %d, want 3", got)
	}
	if !tree["avatar"].IsLeaf() || tree["docs"].IsLeaf() {
		t.Fatal("leaf detection mismatch")
	}
}
