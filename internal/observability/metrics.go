package observability

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dalbodeule/hop-msg/internal/sapi"
	"github.com/dalbodeule/hop-msg/internal/wire"
)

// 전역 레지스트리에 등록할 hop-msg 메트릭들을 정의합니다.
// 메트릭 이름에는 hopmsg_ 접두어를 붙입니다.

var (
	// inspect 서버가 처리한 요청 수 (메서드/상태 코드 라벨 포함).
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopmsg_http_requests_total",
			Help: "Total number of HTTP requests handled by the inspect server, labeled by method and status code.",
		},
		[]string{"method", "status"},
	)

	// 요청 처리 시간 분포 (메서드 라벨 포함).
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hopmsg_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies in seconds at the inspect server, labeled by method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// 와이어 텍스트 파싱 결과 (메시지 종류/결과 라벨 포함).
	MessagesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopmsg_messages_parsed_total",
			Help: "Total number of wire messages parsed, labeled by message type and result.",
		},
		[]string{"type", "result"}, // result: ok 또는 ParseError kind
	)

	// 파싱한 헤더 블록 크기 분포.
	HeaderBlockBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hopmsg_header_block_bytes",
			Help:    "Size in bytes of parsed header blocks (start line and headers).",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12),
		},
	)

	// URI 복원 시 각 필드를 결정한 소스.
	URIResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopmsg_uri_resolution_total",
			Help: "Total number of URI component resolutions, labeled by field and winning source.",
		},
		[]string{"field", "source"},
	)

	// replay 에러 카운터 (에러 유형 라벨 포함).
	ReplayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopmsg_replay_errors_total",
			Help: "Total number of replay errors, labeled by error type.",
		},
		[]string{"type"}, // e.g. build_request, transport, read_body, convert_response
	)
)

var registerOnce sync.Once

// MustRegister 는 위에서 정의한 메트릭들을 전역 Prometheus 레지스트리에 등록합니다.
// 여러 번 호출해도 한 번만 등록됩니다.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			MessagesParsedTotal,
			HeaderBlockBytes,
			URIResolutionTotal,
			ReplayErrorsTotal,
		)
	})
}

// ObserveHTTPRequest 는 요청 수와 처리 시간을 기록합니다.
func ObserveHTTPRequest(method string, status int, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(method).Observe(seconds)
}

// ParseResult 는 파싱 에러를 메트릭 라벨 값으로 변환합니다.
func ParseResult(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := wire.KindOf(err); kind != wire.KindUnknown {
		return strings.ReplaceAll(kind.String(), " ", "_")
	}
	return "error"
}

// ObserveParse 는 파싱 결과와 성공한 경우의 헤더 블록 크기를 기록합니다.
func ObserveParse(messageType string, headerBytes int, err error) {
	result := ParseResult(err)
	MessagesParsedTotal.WithLabelValues(messageType, result).Inc()
	if err == nil && headerBytes > 0 {
		HeaderBlockBytes.Observe(float64(headerBytes))
	}
}

// ObserveResolution 은 scheme/host/path/query 각각을 결정한 소스를 기록합니다.
func ObserveResolution(res sapi.Resolution) {
	URIResolutionTotal.WithLabelValues("scheme", string(res.Scheme)).Inc()
	URIResolutionTotal.WithLabelValues("host", string(res.Host)).Inc()
	URIResolutionTotal.WithLabelValues("path", string(res.Path)).Inc()
	URIResolutionTotal.WithLabelValues("query", string(res.Query)).Inc()
}

// ObserveReplayError 는 replay 실패를 유형별로 기록합니다.
func ObserveReplayError(kind string) {
	ReplayErrorsTotal.WithLabelValues(kind).Inc()
}
