package inspect

import (
	"io"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

// WriteHTTP 는 message.Response 를 net/http ResponseWriter 로 기록합니다.
func WriteHTTP(w http.ResponseWriter, resp *message.Response) error {
	h := w.Header()
	resp.Headers().Each(func(name string, values []string) {
		for _, v := range values {
			h.Add(name, v)
		}
	})
	body := resp.Body()
	if err := rewind(body); err != nil {
		return err
	}
	if size, ok := body.Size(); ok && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(resp.StatusCode())
	_, err := io.Copy(w, body)
	return err
}

// WriteFastHTTP 는 message.Response 를 fasthttp 응답으로 기록합니다.
func WriteFastHTTP(ctx *fasthttp.RequestCtx, resp *message.Response) error {
	resp.Headers().Each(func(name string, values []string) {
		// Content-Type 같은 특수 헤더는 Set 으로만 교체됩니다.
		for i, v := range values {
			if i == 0 {
				ctx.Response.Header.Set(name, v)
				continue
			}
			ctx.Response.Header.Add(name, v)
		}
	})
	ctx.SetStatusCode(resp.StatusCode())
	body := resp.Body()
	if err := rewind(body); err != nil {
		return err
	}
	content, err := body.Contents()
	if err != nil {
		return err
	}
	ctx.SetBodyString(content)
	return nil
}

func rewind(s stream.Stream) error {
	if !s.IsSeekable() {
		return nil
	}
	return stream.Rewind(s)
}
