package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/dalbodeule/hop-msg/internal/config"
	"github.com/dalbodeule/hop-msg/internal/inspect"
	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/observability"
	"github.com/dalbodeule/hop-msg/internal/proxy"
	"github.com/dalbodeule/hop-msg/internal/sapi"
)

func main() {
	logger := logging.NewStdJSONLogger("server")

	// 1. 서버 설정 로드 (.env + 환경변수)
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		logger.Error("failed to load server config from env", logging.Fields{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.Warn("invalid log level, falling back to info", logging.Fields{
			"level": cfg.Logging.Level,
		})
		level = logging.InfoLevel
	}
	if cfg.Debug {
		level = logging.DebugLevel
	}
	logger = logging.NewJSONLogger(os.Stdout, "server", level)

	logger.Info("hop-msg server starting", logging.Fields{
		"stack":          "prometheus-loki-grafana",
		"listen":         cfg.Listen,
		"engine":         cfg.Engine,
		"metrics_path":   cfg.MetricsPath,
		"default_format": cfg.DefaultFormat,
		"trust_proto":    cfg.Trust.ForwardedProto,
		"trust_orig_url": cfg.Trust.OriginalURL,
		"debug":          cfg.Debug,
	})

	// 2. 메트릭 등록
	observability.MustRegister()

	// 3. inspect 핸들러 구성
	srv := inspect.NewServer(logger, inspect.Options{
		Resolver: sapi.Resolver{
			TrustForwardedProto: cfg.Trust.ForwardedProto,
			TrustOriginalURL:    cfg.Trust.OriginalURL,
		},
		DefaultFormat:  cfg.DefaultFormat,
		MetricsPath:    cfg.MetricsPath,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		ErrorPagesDir:  cfg.ErrorPagesDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. 엔진별 리스너 실행
	var serveErr error
	switch cfg.Engine {
	case "fasthttp":
		serveErr = runFastHTTP(ctx, logger, cfg, srv)
	default:
		serveErr = runNetHTTP(ctx, logger, cfg, srv)
	}
	if serveErr != nil {
		logger.Error("server stopped with error", logging.Fields{
			"error": serveErr.Error(),
		})
		os.Exit(1)
	}
	logger.Info("hop-msg server stopped", nil)
}

func runNetHTTP(ctx context.Context, logger logging.Logger, cfg *config.ServerConfig, srv *inspect.Server) error {
	httpSrv, err := proxy.NewHTTPServer(cfg.Listen, srv.Router(), proxy.ServerOptions{
		ReadTimeout:    cfg.ReadTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logging.Fields{
			"addr":   cfg.Listen,
			"engine": "nethttp",
		})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func runFastHTTP(ctx context.Context, logger logging.Logger, cfg *config.ServerConfig, srv *inspect.Server) error {
	fastSrv := &fasthttp.Server{
		Handler:        srv.FastHTTPHandler(),
		Name:           "hop-msg",
		ReadTimeout:    cfg.ReadTimeout,
		ReadBufferSize: cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logging.Fields{
			"addr":   cfg.Listen,
			"engine": "fasthttp",
		})
		if err := fastSrv.ListenAndServe(cfg.Listen); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", nil)
	return fastSrv.Shutdown()
}
