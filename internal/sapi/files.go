package sapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// NormalizeUploadedFiles 는 PHP $_FILES 와 같은 모양의 중첩 명세를 FileTree 로 변환합니다.
//
// 값으로 허용되는 것:
//   - *message.UploadedFile, message.FileNode, message.FileTree
//   - tmp_name/size/error/name/type 키를 가진 map (단일 파일, 또는 tmp_name 아래가 중첩된 경우 병렬 트리)
//   - 위 값들을 담은 map[string]any 또는 []any (인덱스는 "0", "1" ... 키가 됩니다)
//
// JSON 으로 디코딩된 숫자(float64, json.Number)와 문자열 숫자도 size/error 로 받습니다.
func NormalizeUploadedFiles(files map[string]any) (message.FileTree, error) {
	tree := message.FileTree{}
	for key, value := range files {
		node, err := normalizeNode(value)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		tree[key] = node
	}
	return tree, nil
}

func normalizeNode(value any) (message.FileNode, error) {
	switch v := value.(type) {
	case *message.UploadedFile:
		return message.Leaf(v), nil
	case message.FileNode:
		return v, nil
	case message.FileTree:
		return message.Branch(v), nil
	}

	m, ok := asMap(value)
	if !ok {
		return message.FileNode{}, fmt.Errorf("%w: unsupported value of type %T", ErrInvalidFileSpec, value)
	}
	if tmp, ok := m["tmp_name"]; ok {
		return fromSpec(tmp, m["size"], m["error"], m["name"], m["type"])
	}
	children, err := NormalizeUploadedFiles(m)
	if err != nil {
		return message.FileNode{}, err
	}
	return message.Branch(children), nil
}

// fromSpec 은 tmp_name 이 문자열이면 파일 하나를, map 이면 나머지 필드를 같은 키로 따라가며 트리를 만듭니다.
func fromSpec(tmp, size, errCode, name, mediaType any) (message.FileNode, error) {
	nested, ok := asMap(tmp)
	if !ok {
		path, isString := tmp.(string)
		if !isString {
			return message.FileNode{}, fmt.Errorf("%w: tmp_name must be a string, got %T", ErrInvalidFileSpec, tmp)
		}
		n, err := toInt64(size)
		if err != nil {
			return message.FileNode{}, err
		}
		code, err := toInt64(errCode)
		if err != nil {
			return message.FileNode{}, err
		}
		f, err := message.NewUploadedFileFromPath(path, n, int(code), toString(name), toString(mediaType))
		if err != nil {
			return message.FileNode{}, err
		}
		return message.Leaf(f), nil
	}

	children := message.FileTree{}
	for key, sub := range nested {
		node, err := fromSpec(sub, index(size, key), index(errCode, key), index(name, key), index(mediaType, key))
		if err != nil {
			return message.FileNode{}, fmt.Errorf("%q: %w", key, err)
		}
		children[key] = node
	}
	return message.Branch(children), nil
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case []any:
		m := make(map[string]any, len(v))
		for i, item := range v {
			m[strconv.Itoa(i)] = item
		}
		return m, true
	}
	return nil, false
}

func index(value any, key string) any {
	if m, ok := asMap(value); ok {
		return m[key]
	}
	return nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("%w: expected a number, got %T", ErrInvalidFileSpec, value)
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// FilesFromMultipart 는 multipart 폼의 파일을 FileTree 로 변환합니다.
// 필드 이름의 대괄호 표기("form[details][avatar]", "avatars[]")는 중첩 트리로 풀립니다.
// 파일 내용은 읽기 전용 스트림으로 열리며, 호출자가 요청 수명 동안 폼을 유지해야 합니다.
func FilesFromMultipart(form *multipart.Form) (message.FileTree, error) {
	tree := message.FileTree{}
	if form == nil {
		return tree, nil
	}
	for field, headers := range form.File {
		path := splitFieldName(field)
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("open multipart file %q: %w", fh.Filename, err)
			}
			uploaded, err := message.NewUploadedFile(stream.FromReader(f), fh.Size, message.UploadErrOK, fh.Filename, fh.Header.Get("Content-Type"))
			if err != nil {
				return nil, err
			}
			insert(tree, path, uploaded, len(headers) > 1)
		}
	}
	return tree, nil
}

// splitFieldName 은 "a[b][]" 를 ["a", "b", ""] 로 나눕니다. 빈 조각은 다음 인덱스를 뜻합니다.
func splitFieldName(field string) []string {
	open := strings.IndexByte(field, '[')
	if open <= 0 || !strings.HasSuffix(field, "]") {
		return []string{field}
	}
	parts := []string{field[:open]}
	rest := field[open:]
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end < 0 {
			return []string{field}
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

// insert 는 path 를 따라 파일을 넣습니다. 마지막 조각이 비어 있거나 같은 필드에 파일이 여러 개면
// 다음 인덱스 키에 추가합니다.
func insert(tree message.FileTree, path []string, f *message.UploadedFile, multiple bool) {
	key := path[0]
	if len(path) == 1 {
		if key == "" {
			key = strconv.Itoa(len(tree))
		} else if multiple {
			node := tree[key]
			if node.Children == nil {
				node = message.Branch(message.FileTree{})
			}
			node.Children[strconv.Itoa(len(node.Children))] = message.Leaf(f)
			tree[key] = node
			return
		}
		tree[key] = message.Leaf(f)
		return
	}
	if key == "" {
		key = strconv.Itoa(len(tree))
	}
	node := tree[key]
	if node.Children == nil {
		node = message.Branch(message.FileTree{})
	}
	insert(node.Children, path[1:], f, multiple)
	tree[key] = node
}
