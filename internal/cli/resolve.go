package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dalbodeule/hop-msg/internal/inspect"
	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/observability"
	"github.com/dalbodeule/hop-msg/internal/sapi"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

type resolveOptions struct {
	server       []string
	headers      []string
	body         string
	trustProto   bool
	trustOrigURL bool
}

func newResolveCommand(st *state) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Assemble a server request from CGI-style parameters",
		Long: `resolve builds a server request from server parameters (REQUEST_URI,
SERVER_NAME, HTTPS, ...) and request headers, and prints the assembled
request together with the source used for every URI component.`,
		Example: `  hopmsg resolve -s REQUEST_METHOD=GET -s REQUEST_URI=/a?b=1 -s SERVER_NAME=example.com
  hopmsg resolve -s REQUEST_URI=/ -H "Host: shop.example:8443" -H "X-Forwarded-Proto: https" -f wire`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("trust-forwarded-proto") {
				opts.trustProto = st.cfg.Trust.ForwardedProto
			}
			if !cmd.Flags().Changed("trust-original-url") {
				opts.trustOrigURL = st.cfg.Trust.OriginalURL
			}
			return runResolve(cmd.OutOrStdout(), st, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.server, "server", "s", nil, "server parameter as KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, `request header as "Name: value" (repeatable)`)
	cmd.Flags().StringVar(&opts.body, "body", "", "request body")
	cmd.Flags().BoolVar(&opts.trustProto, "trust-forwarded-proto", true, "use X-Forwarded-Proto when HTTPS is not set")
	cmd.Flags().BoolVar(&opts.trustOrigURL, "trust-original-url", false, "let X-Original-URL override REQUEST_URI")
	return cmd
}

func runResolve(out io.Writer, st *state, opts *resolveOptions) error {
	in, err := opts.input()
	if err != nil {
		return err
	}
	format, err := inspect.NormalizeFormat(st.format, st.cfg.Format)
	if err != nil {
		return err
	}
	if err := guardBinary(out, format); err != nil {
		return err
	}

	resolver := sapi.Resolver{
		TrustForwardedProto: opts.trustProto,
		TrustOriginalURL:    opts.trustOrigURL,
	}
	req, res, err := resolver.Assemble(in)
	if err != nil {
		return err
	}
	observability.ObserveResolution(res)
	st.logger.Debug("server request assembled", logging.Fields{
		"uri":           req.URI().String(),
		"scheme_source": res.Scheme,
		"host_source":   res.Host,
		"path_source":   res.Path,
		"query_source":  res.Query,
	})

	id := uuid.NewString()
	resp, err := inspect.Render(format, inspect.Build(id, req, res), req)
	if err != nil {
		return err
	}
	content, err := stream.ReadAll(resp.Body())
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, content)
	return err
}

// input 은 플래그 값을 sapi.Input 으로 변환합니다. 헤더는 HTTP_* 서버 파라미터가 됩니다.
func (o *resolveOptions) input() (sapi.Input, error) {
	server := make(map[string]string, len(o.server)+len(o.headers))
	for _, kv := range o.server {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return sapi.Input{}, fmt.Errorf("invalid server parameter %q: want KEY=VALUE", kv)
		}
		server[key] = value
	}
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return sapi.Input{}, fmt.Errorf(`invalid header %q: want "Name: value"`, h)
		}
		key := headerParamKey(name)
		value = strings.TrimSpace(value)
		if prev, exists := server[key]; exists {
			value = prev + ", " + value
		}
		server[key] = value
	}
	if _, ok := server["REQUEST_METHOD"]; !ok {
		server["REQUEST_METHOD"] = "GET"
	}

	in := sapi.Input{Server: server}
	if o.body != "" {
		in.Body = stream.NewMemory(o.body)
	}
	return in, nil
}

// headerParamKey 는 "X-Foo" 를 "HTTP_X_FOO" 로 바꿉니다. Content-Type/Content-Length 는 접두어가 없습니다.
func headerParamKey(name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if key == "CONTENT_TYPE" || key == "CONTENT_LENGTH" {
		return key
	}
	return "HTTP_" + key
}
