package wire

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/dalbodeule/hop-msg/internal/stream"
)

const (
	cr = '\r'
	lf = '\n'
)

// byteSource 는 한 번에 한 바이트씩 읽는 입력입니다. ok=false 는 입력의 끝입니다.
type byteSource interface {
	readByte() (b byte, ok bool, err error)
}

// streamSource 는 Stream 에서 호출마다 정확히 1바이트만 읽습니다.
// 헤더 블록 다음 바이트를 읽지 않아야 body 를 Relative 로 넘길 수 있습니다.
type streamSource struct {
	s   stream.Stream
	buf [1]byte
}

func (src *streamSource) readByte() (byte, bool, error) {
	if src.s.EOF() {
		return 0, false, nil
	}
	n, err := src.s.Read(src.buf[:])
	if n == 1 {
		return src.buf[0], true, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	return 0, false, err
}

// stringSource 는 메모리 버퍼용 byteSource 입니다.
type stringSource struct {
	s   string
	pos int
}

func (src *stringSource) readByte() (byte, bool, error) {
	if src.pos >= len(src.s) {
		return 0, false, nil
	}
	b := src.s[src.pos]
	src.pos++
	return b, true, nil
}

func (src *stringSource) rest() string { return src.s[src.pos:] }

// scanner 는 CRLF 로 끝나는 줄을 읽습니다. 단독 CR/LF 는 거부합니다.
type scanner struct {
	src      byteSource
	limit    int64
	consumed int64
}

// line 은 다음 줄을 반환합니다. atEOF 는 CRLF 없이 입력이 끝났음을 뜻합니다.
func (sc *scanner) line() (line string, atEOF bool, err error) {
	var b strings.Builder
	crFound := false
	for {
		c, ok, err := sc.src.readByte()
		if err != nil {
			return "", false, &ParseError{Kind: KindSourceNotReadable, Msg: "unable to read source", Err: err}
		}
		if !ok {
			if crFound {
				return "", true, newParseError(KindUnexpectedControlCharacter, "unexpected end of headers")
			}
			return b.String(), true, nil
		}
		sc.consumed++
		if sc.limit > 0 && sc.consumed > sc.limit {
			return "", false, newParseError(KindMalformedHeaderLine, "header block too large")
		}

		switch {
		case crFound && c == lf:
			return b.String(), false, nil
		case crFound:
			return "", false, newParseError(KindUnexpectedControlCharacter, "unexpected carriage return detected")
		case c == lf:
			return "", false, newParseError(KindUnexpectedControlCharacter, "unexpected line feed detected")
		case c == cr:
			crFound = true
		default:
			b.WriteByte(c)
		}
	}
}

var headerLine = regexp.MustCompile("^([!#$%&'*+.^_`|~0-9a-zA-Z-]+):(.*)$")

// headerField 는 파싱된 헤더 하나입니다.
type headerField struct {
	name   string
	values []string
}

// headerSet 은 처음 등장한 순서를 유지하는 (name, values) 목록입니다.
// 이름은 대소문자 구분 없이 합쳐지고, 처음 나온 표기가 유지됩니다.
type headerSet struct {
	fields  []headerField
	index   map[string]int
	current int // 마지막으로 값이 추가된 field, -1 = 없음
}

func newHeaderSet() *headerSet {
	return &headerSet{index: map[string]int{}, current: -1}
}

func (hs *headerSet) add(name, value string) {
	key := strings.ToLower(name)
	i, ok := hs.index[key]
	if !ok {
		i = len(hs.fields)
		hs.index[key] = i
		hs.fields = append(hs.fields, headerField{name: name})
	}
	hs.fields[i].values = append(hs.fields[i].values, value)
	hs.current = i
}

// continueLast 는 현재 헤더의 마지막 값에 content 를 구분자 없이 이어붙입니다.
func (hs *headerSet) continueLast(content string) {
	f := &hs.fields[hs.current]
	f.values[len(f.values)-1] += content
}

// headers 는 빈 줄이나 입력 끝까지 헤더를 읽습니다. 빈 줄 다음 바이트는 읽지 않습니다.
func (sc *scanner) headers() (*headerSet, error) {
	hs := newHeaderSet()
	for {
		line, atEOF, err := sc.line()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return hs, nil
		}

		if m := headerLine.FindStringSubmatch(line); m != nil {
			hs.add(m[1], strings.Trim(m[2], " \t"))
		} else if hs.current < 0 {
			return nil, newParseError(KindMalformedHeaderLine, "invalid header detected")
		} else if line[0] != ' ' && line[0] != '\t' {
			return nil, newParseError(KindMalformedHeaderLine, "invalid header continuation")
		} else {
			hs.continueLast(strings.TrimLeft(line, " \t"))
		}

		if atEOF {
			return hs, nil
		}
	}
}
