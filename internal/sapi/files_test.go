package sapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalbodeule/hop-msg/internal/message"
)

func TestNormalizeFlatFileSpec(t *testing.T) {
	tree, err := NormalizeUploadedFiles(map[string]any{
		"avatar": map[string]any{
			"tmp_name": "phpUxcOty",
			"name":     "my-avatar.png",
			"size":     90996,
			"type":     "image/png",
			"error":    0,
		},
	})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.True(t, tree["avatar"].IsLeaf())
	f := tree["avatar"].File
	assert.Equal(t, "my-avatar.png", f.ClientFilename())
	assert.Equal(t, "image/png", f.ClientMediaType())
	assert.Equal(t, int64(90996), f.Size())
	assert.Equal(t, "phpUxcOty", f.Path())
}

func TestNormalizeNestedFileSpec(t *testing.T) {
	tree, err := NormalizeUploadedFiles(map[string]any{
		"my-form": map[string]any{
			"details": map[string]any{
				"avatar": map[string]any{
					"tmp_name": "phpUxcOty",
					"name":     "my-avatar.png",
					"size":     90996,
					"type":     "image/png",
					"error":    0,
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Len(t, tree, 1)
	assert.Equal(t, "my-avatar.png", tree["my-form"].Children["details"].Children["avatar"].File.ClientFilename())
}

func TestNormalizeNumericIndices(t *testing.T) {
	tree, err := NormalizeUploadedFiles(map[string]any{
		"my-form": map[string]any{
			"details": map[string]any{
				"avatars": map[string]any{
					"tmp_name": []any{"abc123", "duck123", "goose123"},
					"name":     []any{"file1.txt", "file2.txt", "file3.txt"},
					"size":     []any{100, 240, 750},
					"type":     []any{"plain/txt", "image/jpg", "image/png"},
					"error":    []any{0, 0, 0},
				},
			},
		},
	})
	require.NoError(t, err)
	avatars := tree["my-form"].Children["details"].Children["avatars"].Children
	require.Len(t, avatars, 3)
	assert.Equal(t, "file1.txt", avatars["0"].File.ClientFilename())
	assert.Equal(t, "file2.txt", avatars["1"].File.ClientFilename())
	assert.Equal(t, "file3.txt", avatars["2"].File.ClientFilename())
	assert.Equal(t, int64(240), avatars["1"].File.Size())
}

func TestNormalizeDenormalizedTree(t *testing.T) {
	// JSON 으로 디코딩된 입력(숫자는 float64)도 같은 방식으로 처리됩니다.
	raw := `{"slide-shows": {
		"tmp_name": [{"slides": ["/tmp/phpYzdqkD", "/tmp/phpYzdfgh"]}],
		"error":    [{"slides": [0, 0]}],
		"name":     [{"slides": ["foo.txt", "bar.txt"]}],
		"size":     [{"slides": [123, 200]}],
		"type":     [{"slides": ["text/plain", "text/plain"]}]
	}}`
	var spec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	tree, err := NormalizeUploadedFiles(spec)
	require.NoError(t, err)
	slides := tree["slide-shows"].Children["0"].Children["slides"].Children
	require.Len(t, slides, 2)
	assert.Equal(t, "foo.txt", slides["0"].File.ClientFilename())
	assert.Equal(t, "bar.txt", slides["1"].File.ClientFilename())
	assert.Equal(t, int64(200), slides["1"].File.Size())
}

func TestNormalizeOnlyActualFiles(t *testing.T) {
	tree, err := NormalizeUploadedFiles(map[string]any{
		"fooFiles": map[string]any{
			"tmp_name": map[string]any{"file": "php://temp"},
			"size":     map[string]any{"file": 0},
			"error":    map[string]any{"file": 0},
			"name":     map[string]any{"file": "foo.bar"},
			"type":     map[string]any{"file": "text/plain"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, tree["fooFiles"].Children, 1)
	assert.Equal(t, 1, tree.Count())
}

func TestNormalizeKeepsUploadedFileValues(t *testing.T) {
	f, err := message.NewUploadedFileFromPath("/tmp/x", 1, message.UploadErrOK, "x.txt", "text/plain")
	require.NoError(t, err)

	tree, err := NormalizeUploadedFiles(map[string]any{
		"direct": f,
		"nested": []any{f},
	})
	require.NoError(t, err)
	assert.Same(t, f, tree["direct"].File)
	assert.Same(t, f, tree["nested"].Children["0"].File)
}

func TestNormalizeRejectsInvalidSpec(t *testing.T) {
	_, err := NormalizeUploadedFiles(map[string]any{"bad": 42})
	assert.ErrorIs(t, err, ErrInvalidFileSpec)

	_, err = NormalizeUploadedFiles(map[string]any{"bad": map[string]any{"tmp_name": "/tmp/x", "error": 42}})
	assert.ErrorIs(t, err, message.ErrInvalidArgument)
}

func multipartForm(t *testing.T, files map[string][]string) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, contents := range files {
		for i, content := range contents {
			part, err := w.CreateFormFile(field, field+"-"+string(rune('a'+i))+".txt")
			require.NoError(t, err)
			_, err = io.WriteString(part, content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.WriteField("title", "hello"))
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

func TestFilesFromMultipart(t *testing.T) {
	form := multipartForm(t, map[string][]string{
		"avatar":                  {"png-bytes"},
		"docs[]":                  {"one", "two"},
		"form[details][contract]": {"signed"},
		"many":                    {"x", "y"},
	})

	tree, err := FilesFromMultipart(form)
	require.NoError(t, err)
	assert.Equal(t, 6, tree.Count())

	avatar := tree["avatar"]
	require.True(t, avatar.IsLeaf())
	s, err := avatar.File.Stream()
	require.NoError(t, err)
	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "avatar-a.txt", avatar.File.ClientFilename())

	assert.Len(t, tree["docs"].Children, 2)
	assert.True(t, tree["form"].Children["details"].Children["contract"].IsLeaf())
	assert.Len(t, tree["many"].Children, 2)
}

func TestFilesFromNilMultipart(t *testing.T) {
	tree, err := FilesFromMultipart(nil)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestSplitFieldName(t *testing.T) {
	assert.Equal(t, []string{"a"}, splitFieldName("a"))
	assert.Equal(t, []string{"a", ""}, splitFieldName("a[]"))
	assert.Equal(t, []string{"a", "b", "c"}, splitFieldName("a[b][c]"))
	assert.Equal(t, []string{"[a]"}, splitFieldName("[a]"))
	assert.Equal(t, []string{"a[b]c]"}, splitFieldName("a[b]c]"))
}
