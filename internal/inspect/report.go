// Package inspect 는 수신한 요청을 ServerRequest 로 조립한 결과를 wire/JSON/YAML/protobuf 로 돌려주는
// inspect 서버의 핸들러를 제공합니다.
package inspect

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/protocol"
	"github.com/dalbodeule/hop-msg/internal/sapi"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/wire"
)

// 지원하는 응답 포맷.
const (
	FormatWire     = "wire"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatProtobuf = "protobuf"
)

// FileSummary 는 업로드 파일 한 개의 요약입니다. Field 는 "docs[0]" 처럼 폼 필드 경로입니다.
type FileSummary struct {
	Field     string `json:"field" yaml:"field"`
	Name      string `json:"name" yaml:"name"`
	MediaType string `json:"media_type" yaml:"media_type"`
	Size      int64  `json:"size" yaml:"size"`
	Error     int    `json:"error" yaml:"error"`
}

// Report 는 inspect 응답의 JSON/YAML 본문입니다.
type Report struct {
	ID         string            `json:"id" yaml:"id"`
	Request    protocol.Record   `json:"request" yaml:"request"`
	Resolution sapi.Resolution   `json:"resolution" yaml:"resolution"`
	Cookies    map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	Query      url.Values        `json:"query,omitempty" yaml:"query,omitempty"`
	ParsedBody any               `json:"parsed_body,omitempty" yaml:"parsed_body,omitempty"`
	Files      []FileSummary     `json:"files,omitempty" yaml:"files,omitempty"`
}

// BufferBody 는 한 번만 읽을 수 있는 body 를 메모리로 옮긴 요청을 반환합니다.
// 이후 Build 와 Render 가 body 를 여러 번 읽을 수 있습니다.
func BufferBody(req *message.ServerRequest) (*message.ServerRequest, error) {
	if _, ok := req.Body().(*stream.Memory); ok {
		return req, nil
	}
	content, err := stream.ReadAll(req.Body())
	if err != nil {
		return nil, fmt.Errorf("inspect: read request body: %w", err)
	}
	return req.WithBody(stream.NewMemory(content)), nil
}

// Build 는 req 로부터 Report 를 만듭니다.
func Build(id string, req *message.ServerRequest, res sapi.Resolution) Report {
	report := Report{
		ID:         id,
		Request:    protocol.RequestToRecord(req.Request),
		Resolution: res,
		ParsedBody: req.ParsedBody(),
	}
	if cookies := req.CookieParams(); len(cookies) > 0 {
		report.Cookies = cookies
	}
	if query := req.QueryParams(); len(query) > 0 {
		report.Query = query
	}
	report.Files = summarize("", req.UploadedFiles(), nil)
	return report
}

func summarize(prefix string, tree message.FileTree, out []FileSummary) []FileSummary {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	for _, k := range keys {
		field := k
		if prefix != "" {
			field = prefix + "[" + k + "]"
		}
		node := tree[k]
		if !node.IsLeaf() {
			out = summarize(field, node.Children, out)
			continue
		}
		out = append(out, FileSummary{
			Field:     field,
			Name:      node.File.ClientFilename(),
			MediaType: node.File.ClientMediaType(),
			Size:      node.File.Size(),
			Error:     node.File.Error(),
		})
	}
	return out
}

// lessKey 는 숫자 인덱스를 숫자 순서로 정렬합니다.
func lessKey(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// NormalizeFormat 은 format 을 지원하는 포맷 이름으로 바꿉니다. 비어 있으면 def 를 사용합니다.
func NormalizeFormat(format, def string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = strings.ToLower(strings.TrimSpace(def))
	}
	switch f {
	case FormatWire, "http", "raw":
		return FormatWire, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatProtobuf, "proto":
		return FormatProtobuf, nil
	}
	return "", fmt.Errorf("inspect: unsupported format %q", format)
}

// Render 는 요청을 format 에 맞는 응답으로 변환합니다. req 의 body 는 메모리에 있어야 합니다.
func Render(format string, report Report, req *message.ServerRequest) (*message.Response, error) {
	switch format {
	case FormatWire:
		var buf bytes.Buffer
		if err := wire.WriteRequest(&buf, req.Request); err != nil {
			return nil, err
		}
		return message.NewTextResponse(buf.String(), 200, nil)

	case FormatJSON:
		opts := message.DefaultJSONOptions()
		opts.Indent = "  "
		resp, err := message.NewJSONResponse(report, 200, nil, opts)
		if err != nil {
			return nil, err
		}
		return resp.Response, nil

	case FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("inspect: marshal yaml: %w", err)
		}
		headers, err := message.HeadersFromPairs("Content-Type", "application/yaml")
		if err != nil {
			return nil, err
		}
		return message.NewResponse(stream.NewMemory(string(data)), 200, headers)

	case FormatProtobuf:
		var buf bytes.Buffer
		if err := protocol.DefaultCodec.Encode(&buf, &protocol.Envelope{
			ID:     report.ID,
			Type:   protocol.MessageTypeRequest,
			Record: report.Request,
		}); err != nil {
			return nil, err
		}
		headers, err := message.HeadersFromPairs("Content-Type", "application/x-protobuf")
		if err != nil {
			return nil, err
		}
		return message.NewResponse(stream.NewMemory(buf.String()), 200, headers)
	}
	return nil, fmt.Errorf("inspect: unsupported format %q", format)
}
