package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/observability"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/wire"
)

func newParseCommand(st *state) *cobra.Command {
	var maxHeader string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a raw HTTP message and print it in the chosen format",
		Long: `parse reads one HTTP/1.x request or response in wire format from a file
(or stdin) and writes it back as wire text or as a JSON/YAML/protobuf envelope.
Requests and responses are told apart by the start line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limits := wire.Limits{}
			if maxHeader != "" {
				n, err := parseMaxHeaderBytes(maxHeader)
				if err != nil {
					return err
				}
				limits.MaxHeaderBytes = n
			}
			return runParse(cmd, st, argOrStdin(args), limits)
		},
	}
	cmd.Flags().StringVar(&maxHeader, "max-header-bytes", "", "reject header blocks larger than this size (e.g. 64KiB)")
	return cmd
}

// parseMaxHeaderBytes 는 "64KiB" 같은 크기를 바이트 수로 바꿉니다. int64 를 넘는 값은 거부합니다.
func parseMaxHeaderBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("max header bytes %q is too large", s)
	}
	return int64(n), nil
}

func runParse(cmd *cobra.Command, st *state, path string, limits wire.Limits) error {
	src, err := openSource(cmd, path)
	if err != nil {
		return err
	}
	defer src.Close()

	m, err := wire.ReadMessage(src, limits)
	if err != nil {
		observability.ObserveParse("unknown", 0, err)
		st.logger.Warn("failed to parse message", logging.Fields{
			"source": path,
			"kind":   observability.ParseResult(err),
			"error":  err.Error(),
		})
		return err
	}

	kind := messageType(m)
	headerBytes := int64(0)
	if rel, ok := m.Body().(*stream.Relative); ok {
		headerBytes = rel.Offset()
	}
	observability.ObserveParse(string(kind), int(headerBytes), nil)

	bodySize, _ := m.Body().Size()
	st.logger.Debug("message parsed", logging.Fields{
		"source":       path,
		"type":         string(kind),
		"start_line":   startLine(m),
		"header_count": m.Headers().Len(),
		"header_bytes": humanize.Bytes(uint64(headerBytes)),
		"body_size":    humanize.Bytes(uint64(bodySize)),
	})

	return writeMessage(cmd.OutOrStdout(), st.formatOr(st.cfg.Format), uuid.NewString(), m)
}

func startLine(m message.Message) string {
	switch v := m.(type) {
	case *message.Request:
		return v.Method() + " " + v.RequestTarget() + " HTTP/" + v.ProtocolVersion()
	case *message.Response:
		return "HTTP/" + v.ProtocolVersion() + " " + strconv.Itoa(v.StatusCode()) + " " + v.ReasonPhrase()
	}
	return ""
}
