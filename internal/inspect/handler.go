package inspect

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/time/rate"

	"github.com/dalbodeule/hop-msg/internal/errorpages"
	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/observability"
	"github.com/dalbodeule/hop-msg/internal/sapi"
)

// Options 는 inspect Server 설정입니다.
type Options struct {
	Resolver      sapi.Resolver
	DefaultFormat string
	MetricsPath   string // 비어 있으면 메트릭 엔드포인트를 노출하지 않습니다.

	// RateLimitRPS 가 0 이하이면 rate limit 을 적용하지 않습니다. 제한은 원격 IP 별입니다.
	RateLimitRPS   float64
	RateLimitBurst int

	// ErrorPagesDir 의 <status>.html 이 HTML 에러 페이지로 사용됩니다. 없으면 내장 템플릿입니다.
	ErrorPagesDir string
}

// Server 는 모든 요청을 ServerRequest 로 조립해 되돌려주는 inspect 핸들러입니다.
type Server struct {
	Logger  logging.Logger
	opts    Options
	limiter *limiterPool
}

// NewServer 는 새로운 Server 를 생성합니다.
func NewServer(logger logging.Logger, opts Options) *Server {
	if logger == nil {
		logger = logging.NewStdJSONLogger("inspect")
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = FormatWire
	}
	s := &Server{
		Logger: logger.With(logging.Fields{"component": "inspect"}),
		opts:   opts,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = &limiterPool{rps: opts.RateLimitRPS, burst: opts.RateLimitBurst}
	}
	return s
}

// Router 는 net/http 엔진용 라우터를 구성합니다.
//   - GET  /healthz
//   - GET  {MetricsPath}
//   - *    그 외 모든 경로: inspect
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	// 원래 path 를 그대로 보여주기 위해 정규화/리다이렉트를 끕니다.
	r.SkipClean(true)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}
	r.PathPrefix("/").Handler(s.instrument(s.rateLimit(http.HandlerFunc(s.handleInspect))))
	return r
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.ObserveHTTPRequest(r.Method, rec.status, time.Since(start).Seconds())
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(remoteIP(r.RemoteAddr)) {
			_ = WriteHTTP(w, s.errorResponse(r.Header.Get("Accept"), "", http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	accept := r.Header.Get("Accept")
	format, err := NormalizeFormat(r.URL.Query().Get("format"), s.opts.DefaultFormat)
	if err != nil {
		_ = WriteHTTP(w, s.errorResponse(accept, id, http.StatusBadRequest, err.Error()))
		return
	}
	req, res, err := sapi.FromHTTPRequest(r, s.opts.Resolver)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		s.Logger.Warn("failed to assemble server request", logging.Fields{
			"request_id": id,
			"error":      err.Error(),
		})
		_ = WriteHTTP(w, s.errorResponse(accept, id, http.StatusBadRequest, err.Error()))
		return
	}
	if err := WriteHTTP(w, s.inspect(id, accept, format, req, res)); err != nil {
		s.Logger.Error("failed to write response", logging.Fields{
			"request_id": id,
			"error":      err.Error(),
		})
	}
}

// FastHTTPHandler 는 fasthttp 엔진용 핸들러를 구성합니다. 라우트는 Router 와 같습니다.
func (s *Server) FastHTTPHandler() fasthttp.RequestHandler {
	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if ctx.IsGet() {
			switch {
			case path == "/healthz":
				ctx.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusOK)
				ctx.SetBodyString("{\"status\":\"ok\"}")
				return
			case s.opts.MetricsPath != "" && path == s.opts.MetricsPath:
				metrics(ctx)
				return
			}
		}

		start := time.Now()
		method := string(ctx.Method())
		defer func() {
			observability.ObserveHTTPRequest(method, ctx.Response.StatusCode(), time.Since(start).Seconds())
		}()

		accept := string(ctx.Request.Header.Peek("Accept"))
		if !s.allow(ctx.RemoteIP().String()) {
			_ = WriteFastHTTP(ctx, s.errorResponse(accept, "", http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}

		id := uuid.NewString()
		format, err := NormalizeFormat(string(ctx.QueryArgs().Peek("format")), s.opts.DefaultFormat)
		if err != nil {
			_ = WriteFastHTTP(ctx, s.errorResponse(accept, id, http.StatusBadRequest, err.Error()))
			return
		}
		req, res, err := sapi.FromFastHTTP(ctx, s.opts.Resolver)
		if err != nil {
			s.Logger.Warn("failed to assemble server request", logging.Fields{
				"request_id": id,
				"error":      err.Error(),
			})
			_ = WriteFastHTTP(ctx, s.errorResponse(accept, id, http.StatusBadRequest, err.Error()))
			return
		}
		if err := WriteFastHTTP(ctx, s.inspect(id, accept, format, req, res)); err != nil {
			s.Logger.Error("failed to write response", logging.Fields{
				"request_id": id,
				"error":      err.Error(),
			})
		}
	}
}

// inspect 는 두 엔진이 공유하는 처리 경로입니다. 실패하면 에러 응답을 반환합니다.
func (s *Server) inspect(id, accept, format string, req *message.ServerRequest, res sapi.Resolution) *message.Response {
	observability.ObserveResolution(res)
	log := s.Logger.With(logging.Fields{
		"request_id": id,
		"method":     req.Method(),
		"uri":        req.URI().String(),
		"format":     format,
	})

	req, err := BufferBody(req)
	if err != nil {
		log.Error("failed to buffer request body", logging.Fields{"error": err.Error()})
		return s.errorResponse(accept, id, http.StatusBadRequest, err.Error())
	}
	resp, err := Render(format, Build(id, req, res), req)
	if err != nil {
		log.Error("failed to render inspect response", logging.Fields{"error": err.Error()})
		return s.errorResponse(accept, id, http.StatusInternalServerError, err.Error())
	}
	resp, err = resp.WithHeader("X-Request-Id", id)
	if err != nil {
		return s.errorResponse(accept, id, http.StatusInternalServerError, err.Error())
	}

	size, _ := req.Body().Size()
	log.Debug("request inspected", logging.Fields{
		"scheme_source": res.Scheme,
		"host_source":   res.Host,
		"path_source":   res.Path,
		"body_size":     humanize.Bytes(uint64(size)),
		"files":         req.UploadedFiles().Count(),
	})
	return resp
}

// errorResponse 는 Accept 가 HTML 을 원하면 에러 페이지를, 아니면 JSON 에러 본문을 반환합니다.
func (s *Server) errorResponse(accept, id string, status int, msg string) *message.Response {
	if errorpages.WantsHTML(accept) {
		page, err := errorpages.Render(s.opts.ErrorPagesDir, errorpages.Page{Status: status, Message: msg, RequestID: id})
		if err == nil {
			return page
		}
		s.Logger.Warn("failed to render error page", logging.Fields{
			"status": status,
			"error":  err.Error(),
		})
	}
	resp, err := message.NewJSONResponse(map[string]any{
		"success": false,
		"error":   msg,
	}, status, nil, message.DefaultJSONOptions())
	if err != nil {
		// map[string]any 인코딩은 실패하지 않으므로 도달하지 않습니다.
		fallback, _ := message.NewEmptyResponse(status, nil)
		return fallback
	}
	return resp.Response
}

func (s *Server) allow(key string) bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow(key)
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// limiterPool 은 키(원격 IP)별 token bucket 입니다.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	burst := p.burst
	if burst <= 0 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(p.rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
