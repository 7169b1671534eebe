package errorpages

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/message"
)

// DefaultDir 는 외부 에러 페이지 디렉터리 기본값입니다.
const DefaultDir = "./errors"

// Page 는 에러 페이지 템플릿에 전달되는 값입니다.
type Page struct {
	Status    int
	Message   string
	RequestID string
}

// Title 은 "404 Not Found" 형태의 제목입니다.
func (p Page) Title() string {
	return fmt.Sprintf("%d %s", p.Status, http.StatusText(p.Status))
}

var defaultTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} | hop-msg</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Message}}<p>{{.Message}}</p>
{{end}}{{if .RequestID}}<p><small>request id: <code>{{.RequestID}}</code></small></p>
{{end}}</body>
</html>
`))

// Load 는 dir/<status>.html 을 읽습니다. dir 이 비어 있으면 DefaultDir 를 사용합니다.
func Load(dir string, status int) ([]byte, bool) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDir
	}
	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.html", status)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Render 는 p 에 해당하는 HTML 에러 응답을 만듭니다.
//
// 우선순위:
//  1. dir/<status>.html (정적 파일, 그대로 사용)
//  2. 내장 기본 템플릿
func Render(dir string, p Page) (*message.Response, error) {
	html, ok := Load(dir, p.Status)
	if !ok {
		var buf bytes.Buffer
		if err := defaultTemplate.Execute(&buf, p); err != nil {
			return nil, fmt.Errorf("errorpages: render %d: %w", p.Status, err)
		}
		html = buf.Bytes()
	}
	return message.NewHTMLResponse(string(html), p.Status, nil)
}

// WantsHTML 은 Accept 헤더가 HTML 을 명시적으로 요청하는지 확인합니다.
func WantsHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(part, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
		if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
			return true
		}
	}
	return false
}
