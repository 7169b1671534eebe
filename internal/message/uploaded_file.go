package message

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dalbodeule/hop-msg/internal/stream"
)

// 업로드 에러 코드 (PHP UPLOAD_ERR_* 와 같은 값).
const (
	UploadErrOK        = 0
	UploadErrIniSize   = 1
	UploadErrFormSize  = 2
	UploadErrPartial   = 3
	UploadErrNoFile    = 4
	UploadErrNoTmpDir  = 6
	UploadErrCantWrite = 7
	UploadErrExtension = 8
)

var uploadErrorMessages = map[int]string{
	UploadErrOK:        "There is no error, the file uploaded with success",
	UploadErrIniSize:   "The uploaded file exceeds the upload_max_filesize directive in php.ini",
	UploadErrFormSize:  "The uploaded file exceeds the MAX_FILE_SIZE directive that was specified in the HTML form",
	UploadErrPartial:   "The uploaded file was only partially uploaded",
	UploadErrNoFile:    "No file was uploaded",
	UploadErrNoTmpDir:  "Missing a temporary folder",
	UploadErrCantWrite: "Failed to write file to disk",
	UploadErrExtension: "A PHP extension stopped the file upload",
}

// UploadErrorMessage 는 에러 코드에 해당하는 설명을 반환합니다.
func UploadErrorMessage(code int) string {
	return uploadErrorMessages[code]
}

// UploadedFile 은 업로드된 파일 하나를 나타냅니다.
// 내용은 스트림 또는 디스크 경로 중 하나로 보관되며, MoveTo 는 한 번만 호출할 수 있습니다.
type UploadedFile struct {
	stream          stream.Stream
	path            string
	size            int64
	errCode         int
	clientFilename  string
	clientMediaType string

	mu    sync.Mutex
	moved bool
}

func newUploadedFile(s stream.Stream, path string, size int64, errCode int, clientFilename, clientMediaType string) (*UploadedFile, error) {
	if errCode < 0 || errCode > 8 {
		return nil, fmt.Errorf("%w: invalid error status for UploadedFile; must be an UPLOAD_ERR_* constant", ErrInvalidArgument)
	}
	if errCode == UploadErrOK && s == nil && path == "" {
		return nil, fmt.Errorf("%w: invalid stream or file provided for UploadedFile", ErrInvalidArgument)
	}
	return &UploadedFile{
		stream:          s,
		path:            path,
		size:            size,
		errCode:         errCode,
		clientFilename:  clientFilename,
		clientMediaType: clientMediaType,
	}, nil
}

// NewUploadedFile 은 스트림 기반 업로드 파일을 생성합니다.
func NewUploadedFile(s stream.Stream, size int64, errCode int, clientFilename, clientMediaType string) (*UploadedFile, error) {
	return newUploadedFile(s, "", size, errCode, clientFilename, clientMediaType)
}

// NewUploadedFileFromPath 는 디스크 경로 기반 업로드 파일을 생성합니다.
func NewUploadedFileFromPath(path string, size int64, errCode int, clientFilename, clientMediaType string) (*UploadedFile, error) {
	return newUploadedFile(nil, path, size, errCode, clientFilename, clientMediaType)
}

func (f *UploadedFile) Size() int64             { return f.size }
func (f *UploadedFile) Error() int              { return f.errCode }
func (f *UploadedFile) ClientFilename() string  { return f.clientFilename }
func (f *UploadedFile) ClientMediaType() string { return f.clientMediaType }

// Path 는 경로 기반 업로드 파일의 원본 경로입니다. 스트림 기반이면 빈 문자열입니다.
func (f *UploadedFile) Path() string { return f.path }

func (f *UploadedFile) checkUsable() error {
	if f.errCode != UploadErrOK {
		return fmt.Errorf("%w: %s", ErrUploadError, uploadErrorMessages[f.errCode])
	}
	if f.moved {
		return ErrAlreadyMoved
	}
	return nil
}

// Stream 은 업로드 파일의 스트림을 반환합니다. 경로 기반이면 파일을 열어 반환합니다.
func (f *UploadedFile) Stream() (stream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkUsable(); err != nil {
		return nil, err
	}
	if f.stream != nil {
		return f.stream, nil
	}
	return stream.Open(f.path, "r+")
}

// MoveTo 는 파일을 target 경로로 옮깁니다. 이후 Stream/MoveTo 는 ErrAlreadyMoved 를 반환합니다.
func (f *UploadedFile) MoveTo(target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkUsable(); err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("%w: invalid path provided for move operation; must be a non-empty string", ErrInvalidArgument)
	}

	if f.stream == nil {
		if err := os.Rename(f.path, target); err != nil {
			if err := copyPath(f.path, target); err != nil {
				return err
			}
		}
		f.moved = true
		return nil
	}

	if err := writeStream(f.stream, target); err != nil {
		return err
	}
	f.moved = true
	return nil
}

func copyPath(src, dst string) error {
	s, err := stream.Open(src, "r")
	if err != nil {
		return err
	}
	defer s.Close()
	return writeStream(s, dst)
}

func writeStream(s stream.Stream, target string) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("unable to write to designated path %q: %w", target, err)
	}
	defer out.Close()

	if s.IsSeekable() {
		if err := stream.Rewind(s); err != nil {
			return err
		}
	}
	if _, err := io.Copy(out, s); err != nil {
		return fmt.Errorf("copy uploaded file to %q: %w", target, err)
	}
	return nil
}

// FileNode 는 업로드 파일 트리의 노드입니다. File 이 nil 이 아니면 leaf, 아니면 Children 을 가진 내부 노드입니다.
type FileNode struct {
	File     *UploadedFile
	Children FileTree
}

// Leaf 는 파일 하나를 감싼 노드를 생성합니다.
func Leaf(f *UploadedFile) FileNode { return FileNode{File: f} }

// Branch 는 하위 트리를 감싼 노드를 생성합니다.
func Branch(children FileTree) FileNode { return FileNode{Children: children} }

func (n FileNode) IsLeaf() bool { return n.File != nil }

// FileTree 는 업로드 폼 필드 이름(또는 배열 인덱스)을 키로 하는 업로드 파일 트리입니다.
type FileTree map[string]FileNode

// Count 는 트리에 포함된 전체 파일 수를 반환합니다.
func (t FileTree) Count() int {
	n := 0
	for _, node := range t {
		if node.IsLeaf() {
			n++
			continue
		}
		n += node.Children.Count()
	}
	return n
}
