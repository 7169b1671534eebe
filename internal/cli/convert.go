package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dalbodeule/hop-msg/internal/logging"
	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/protocol"
	"github.com/dalbodeule/hop-msg/internal/stream"
)

func newConvertCommand(st *state) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert a stream of envelopes to another format",
		Long: `convert decodes request/response envelopes written by parse (json, yaml or
protobuf) and writes every message in the format given by --format. The
default output format is wire.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := protocol.CodecByName(from)
			if err != nil {
				return err
			}
			return runConvert(cmd, st, argOrStdin(args), codec)
		},
	}
	cmd.Flags().StringVar(&from, "from", "json", "input envelope format: json, yaml, protobuf")
	return cmd
}

func runConvert(cmd *cobra.Command, st *state, path string, codec protocol.WireCodec) error {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := stream.Open(path, "r")
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	r := bufio.NewReaderSize(in, protocol.ReadBufferSize())
	out := cmd.OutOrStdout()
	format := st.formatOr("wire")

	for n := 0; ; n++ {
		var env protocol.Envelope
		if err := codec.Decode(r, &env); err != nil {
			if errors.Is(err, io.EOF) {
				st.logger.Debug("conversion finished", logging.Fields{
					"codec":    codec.Name(),
					"messages": n,
				})
				return nil
			}
			return fmt.Errorf("decode envelope #%d: %w", n+1, err)
		}

		var m message.Message
		var err error
		switch env.Type {
		case protocol.MessageTypeResponse:
			m, err = env.Response()
		default:
			m, err = env.Request()
		}
		if err != nil {
			return fmt.Errorf("envelope #%d (%s): %w", n+1, env.ID, err)
		}
		if err := writeMessage(out, format, env.ID, m); err != nil {
			return err
		}
	}
}
