package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level 은 로그의 심각도 레벨을 나타냅니다.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levelRank = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// ParseLevel 은 "debug", "info", "warn"/"warning", "error" 를 Level 로 변환합니다.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("logging: unknown level %q", s)
}

// Fields 는 구조적 로그의 key/value 필드를 표현합니다.
type Fields map[string]any

// Logger 는 단일 라인 JSON 을 출력하는 구조적 로그 인터페이스입니다.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)

	// With 는 추가 필드를 항상 포함하는 child logger 를 생성합니다.
	With(fields Fields) Logger
}

// stdLogger 는 표준 log.Logger 를 감싼 구현체입니다.
type stdLogger struct {
	l      *log.Logger
	min    Level
	fields Fields
	now    func() time.Time
}

func (s *stdLogger) log(level Level, msg string, fields Fields) {
	if levelRank[level] < levelRank[s.min] {
		return
	}
	entry := map[string]any{
		"ts":    s.now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}

	// 공통 필드 병합
	for k, v := range s.fields {
		entry[k] = v
	}
	// 호출 시 전달된 필드 병합(우선순위 높음)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}

	b, err := json.Marshal(entry)
	if err != nil {
		// JSON 마샬 실패 시 fallback 으로 기본 포맷 사용
		s.l.Printf("level=%s msg=%s marshal_error=%v", level, msg, err)
		return
	}
	s.l.Println(string(b))
}

func (s *stdLogger) Debug(msg string, fields Fields) { s.log(DebugLevel, msg, fields) }
func (s *stdLogger) Info(msg string, fields Fields)  { s.log(InfoLevel, msg, fields) }
func (s *stdLogger) Warn(msg string, fields Fields)  { s.log(WarnLevel, msg, fields) }
func (s *stdLogger) Error(msg string, fields Fields) { s.log(ErrorLevel, msg, fields) }

func (s *stdLogger) With(fields Fields) Logger {
	merged := Fields{}
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{
		l:      s.l,
		min:    s.min,
		fields: merged,
		now:    s.now,
	}
}

// NewJSONLogger 는 w 로 단일 라인 JSON 로그를 출력하는 Logger 를 생성합니다.
// min 보다 낮은 레벨의 로그는 버립니다.
func NewJSONLogger(w io.Writer, component string, min Level) Logger {
	if _, ok := levelRank[min]; !ok {
		min = InfoLevel
	}
	return &stdLogger{
		l:      log.New(w, "", 0), // 프리픽스/타임스탬프는 JSON 필드로만 사용
		min:    min,
		fields: Fields{"component": component},
		now:    time.Now,
	}
}

// NewStdJSONLogger 는 stdout 으로 info 이상을 출력하는 기본 Logger 를 생성합니다.
func NewStdJSONLogger(component string) Logger {
	return NewJSONLogger(os.Stdout, component, InfoLevel)
}

// Nop 은 아무것도 기록하지 않는 Logger 입니다.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, Fields) {}
func (nopLogger) Info(string, Fields)  {}
func (nopLogger) Warn(string, Fields)  {}
func (nopLogger) Error(string, Fields) {}
func (n nopLogger) With(Fields) Logger { return n }
