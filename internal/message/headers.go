package message

import (
	"fmt"
	"strings"
)

// Headers 는 삽입 순서를 유지하는 HTTP 헤더 맵입니다.
// 조회는 대소문자를 구분하지 않으며, 출력 시에는 처음 등록된 이름의 표기를 유지합니다.
//
// Headers 는 불변입니다. With/WithAdded/Without 는 새 값을 반환하며,
// 변경되지 않은 값 슬라이스는 원본과 공유합니다. nil *Headers 는 빈 헤더 맵으로 동작합니다.
type Headers struct {
	names  []string            // 등록 순서, 원래 표기
	values map[string][]string // key: 소문자 이름
}

// NewHeaders 는 빈 헤더 맵을 생성합니다.
func NewHeaders() *Headers {
	return &Headers{values: map[string][]string{}}
}

// HeadersFromPairs 는 "name", "value", "name", "value" ... 순서의 인자로 헤더 맵을 생성합니다.
// 같은 이름이 반복되면 값이 추가됩니다.
func HeadersFromPairs(kv ...string) (*Headers, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of header arguments", ErrInvalidArgument)
	}
	h := NewHeaders()
	for i := 0; i < len(kv); i += 2 {
		var err error
		if h, err = h.WithAdded(kv[i], kv[i+1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// HeadersFromMap 은 map 으로부터 헤더 맵을 생성합니다. map 순회 순서가 정해져 있지 않으므로
// 순서가 중요하면 HeadersFromPairs 나 With 체인을 사용합니다.
func HeadersFromMap(m map[string][]string) (*Headers, error) {
	h := NewHeaders()
	for name, values := range m {
		var err error
		if h, err = h.WithAdded(name, values...); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Headers) clone() *Headers {
	out := &Headers{
		names:  make([]string, len(h.names), len(h.names)+1),
		values: make(map[string][]string, len(h.values)+1),
	}
	copy(out.names, h.names)
	for k, v := range h.values {
		out.values[k] = v
	}
	return out
}

func (h *Headers) index(key string) int {
	for i, n := range h.names {
		if strings.ToLower(n) == key {
			return i
		}
	}
	return -1
}

func validateHeader(name string, values []string) error {
	if !ValidHeaderName(name) {
		return fmt.Errorf("%w: invalid header name %q", ErrInvalidArgument, name)
	}
	for _, v := range values {
		if err := AssertValidHeaderValue(v); err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
	}
	return nil
}

// With 은 name 의 값을 values 로 교체한 새 헤더 맵을 반환합니다.
// 대소문자만 다른 기존 이름은 제거되고 새 표기가 같은 위치에 사용됩니다.
func (h *Headers) With(name string, values ...string) (*Headers, error) {
	if err := validateHeader(name, values); err != nil {
		return nil, err
	}
	if h == nil {
		h = NewHeaders()
	}
	out := h.clone()
	key := strings.ToLower(name)
	if i := out.index(key); i >= 0 {
		out.names[i] = name
	} else {
		out.names = append(out.names, name)
	}
	out.values[key] = append([]string(nil), values...)
	return out, nil
}

// WithAdded 는 name 에 values 를 추가한 새 헤더 맵을 반환합니다. 기존 표기는 유지됩니다.
func (h *Headers) WithAdded(name string, values ...string) (*Headers, error) {
	if h == nil || !h.Has(name) {
		return h.With(name, values...)
	}
	if err := validateHeader(name, values); err != nil {
		return nil, err
	}
	out := h.clone()
	key := strings.ToLower(name)
	prev := out.values[key]
	merged := make([]string, 0, len(prev)+len(values))
	merged = append(merged, prev...)
	out.values[key] = append(merged, values...)
	return out, nil
}

// Without 은 name 을 제거한 새 헤더 맵을 반환합니다. 없는 이름이어도 새 값을 반환합니다.
func (h *Headers) Without(name string) *Headers {
	if h == nil {
		return NewHeaders()
	}
	out := h.clone()
	key := strings.ToLower(name)
	if i := out.index(key); i >= 0 {
		out.names = append(out.names[:i], out.names[i+1:]...)
		delete(out.values, key)
	}
	return out
}

// withFirst 는 name 을 맨 앞에 두고 values 로 교체합니다. 검증은 호출자가 합니다.
func (h *Headers) withFirst(name string, values ...string) *Headers {
	out := h.Without(name)
	out.names = append([]string{name}, out.names...)
	out.values[strings.ToLower(name)] = values
	return out
}

// Get 은 name 의 값 목록 사본을 반환합니다. 없으면 빈 슬라이스입니다.
func (h *Headers) Get(name string) []string {
	if h == nil {
		return []string{}
	}
	return append([]string{}, h.values[strings.ToLower(name)]...)
}

// Line 은 값들을 ","로 이어붙인 한 줄을 반환합니다. 없으면 빈 문자열입니다.
func (h *Headers) Line(name string) string {
	if h == nil {
		return ""
	}
	return strings.Join(h.values[strings.ToLower(name)], ",")
}

func (h *Headers) Has(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.values[strings.ToLower(name)]
	return ok
}

// Names 는 등록 순서대로 원래 표기의 헤더 이름을 반환합니다.
func (h *Headers) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.names...)
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Each 는 등록 순서대로 fn 을 호출합니다. values 는 수정하면 안 됩니다.
func (h *Headers) Each(fn func(name string, values []string)) {
	if h == nil {
		return
	}
	for _, n := range h.names {
		fn(n, h.values[strings.ToLower(n)])
	}
}

// Map 은 원래 표기를 키로 하는 map 사본을 반환합니다.
func (h *Headers) Map() map[string][]string {
	out := make(map[string][]string, h.Len())
	h.Each(func(name string, values []string) {
		out[name] = append([]string(nil), values...)
	})
	return out
}
