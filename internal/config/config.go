package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig 는 공통 로그 설정을 담습니다.
type LoggingConfig struct {
	Level string // 예: "debug", "info", "warn", "error"
}

// TrustConfig 는 클라이언트가 보낸 헤더를 URI 복원에 사용할지 여부를 담습니다.
type TrustConfig struct {
	ForwardedProto bool // X-Forwarded-Proto 로 scheme 결정
	OriginalURL    bool // X-Original-URL 로 path 결정
}

// ServerConfig 는 inspect 서버 프로세스 설정을 담습니다.
type ServerConfig struct {
	Listen         string  // 예: ":8080"
	Engine         string  // "nethttp" 또는 "fasthttp"
	MetricsPath    string  // 예: "/metrics"
	DefaultFormat  string  // 응답 포맷 기본값: wire, json, yaml
	RateLimitRPS   float64 // 0 이하이면 제한 없음
	RateLimitBurst int
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	ErrorPagesDir  string // <status>.html 에러 페이지 디렉터리
	Debug          bool

	Trust   TrustConfig
	Logging LoggingConfig
}

// CLIConfig 는 hopmsg CLI 의 기본값을 담습니다. CLI 플래그가 우선합니다.
type CLIConfig struct {
	Format        string        // parse 출력 포맷 기본값
	ReplayTimeout time.Duration // replay 요청 타임아웃

	Trust   TrustConfig
	Logging LoggingConfig
}

var (
	dotenvOnce sync.Once
	dotenvErr  error
)

// loadDotEnvOnce 는 현재 작업 디렉터리의 .env 파일을 한 번만 읽어서 환경변수에 주입합니다.
// 이미 설정된 OS 환경변수는 덮어쓰지 않습니다.
func loadDotEnvOnce() {
	dotenvOnce.Do(func() {
		fi, err := os.Stat(".env")
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			dotenvErr = err
			return
		}
		if fi.IsDir() {
			return
		}
		if err := godotenv.Load(".env"); err != nil {
			dotenvErr = fmt.Errorf("config: load .env: %w", err)
		}
	})
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration: %w", key, err)
	}
	return d, nil
}

// normalizePort 는 숫자만 지정된 포트를 ":port" 형태로 바꿉니다 (예: "80" -> ":80").
func normalizePort(p string, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return def
	}
	if strings.HasPrefix(p, ":") {
		return p
	}
	if _, err := strconv.Atoi(p); err == nil {
		return ":" + p
	}
	return p
}

func loadLoggingFromEnv() LoggingConfig {
	return LoggingConfig{Level: getEnvOrDefault("HOPMSG_LOG_LEVEL", "info")}
}

func loadTrustFromEnv() TrustConfig {
	return TrustConfig{
		ForwardedProto: getEnvBool("HOPMSG_TRUST_FORWARDED_PROTO", true),
		OriginalURL:    getEnvBool("HOPMSG_TRUST_ORIGINAL_URL", false),
	}
}

// LoadServerConfigFromEnv 는 .env 를 한 번 읽어 현재 환경변수를 보완한 뒤
// "환경변수 > .env > 기본값" 우선순위로 서버 설정을 구성합니다.
func LoadServerConfigFromEnv() (*ServerConfig, error) {
	loadDotEnvOnce()
	if dotenvErr != nil {
		return nil, dotenvErr
	}

	rps, err := getEnvFloat("HOPMSG_SERVER_RATE_LIMIT_RPS", 0)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("HOPMSG_SERVER_RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	maxHeader, err := getEnvInt("HOPMSG_SERVER_MAX_HEADER_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	readTimeout, err := getEnvDuration("HOPMSG_SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Listen:         normalizePort(os.Getenv("HOPMSG_SERVER_LISTEN"), ":8080"),
		Engine:         strings.ToLower(getEnvOrDefault("HOPMSG_SERVER_ENGINE", "nethttp")),
		MetricsPath:    getEnvOrDefault("HOPMSG_SERVER_METRICS_PATH", "/metrics"),
		DefaultFormat:  strings.ToLower(getEnvOrDefault("HOPMSG_SERVER_FORMAT", "wire")),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		MaxHeaderBytes: maxHeader,
		ReadTimeout:    readTimeout,
		ErrorPagesDir:  getEnvOrDefault("HOPMSG_ERROR_PAGES_DIR", "./errors"),
		Debug:          getEnvBool("HOPMSG_SERVER_DEBUG", false),
		Trust:          loadTrustFromEnv(),
		Logging:        loadLoggingFromEnv(),
	}
	switch cfg.Engine {
	case "nethttp", "fasthttp":
	default:
		return nil, fmt.Errorf("config: HOPMSG_SERVER_ENGINE must be nethttp or fasthttp, got %q", cfg.Engine)
	}
	return cfg, nil
}

// LoadCLIConfigFromEnv 는 .env 를 한 번 읽어 현재 환경변수를 보완한 뒤 CLI 기본값을 구성합니다.
func LoadCLIConfigFromEnv() (*CLIConfig, error) {
	loadDotEnvOnce()
	if dotenvErr != nil {
		return nil, dotenvErr
	}

	timeout, err := getEnvDuration("HOPMSG_REPLAY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	return &CLIConfig{
		Format:        strings.ToLower(getEnvOrDefault("HOPMSG_FORMAT", "json")),
		ReplayTimeout: timeout,
		Trust:         loadTrustFromEnv(),
		Logging:       loadLoggingFromEnv(),
	}, nil
}
