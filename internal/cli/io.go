package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dalbodeule/hop-msg/internal/inspect"
	"github.com/dalbodeule/hop-msg/internal/message"
	"github.com/dalbodeule/hop-msg/internal/protocol"
	"github.com/dalbodeule/hop-msg/internal/stream"
	"github.com/dalbodeule/hop-msg/internal/wire"
)

// openSource 는 path 를 seek 가능한 스트림으로 엽니다. "-" 나 빈 값이면 stdin 전체를 메모리로 읽습니다.
func openSource(cmd *cobra.Command, path string) (stream.Stream, error) {
	if path == "" || path == "-" {
		content, err := stream.ReadAll(stream.FromReader(cmd.InOrStdin()))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return stream.NewMemory(content), nil
	}
	f, err := stream.Open(path, "r")
	if err != nil {
		return nil, err
	}
	return f, nil
}

// argOrStdin 은 첫 번째 인자 또는 "-" 를 반환합니다.
func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// writeMessage 는 m 을 format 으로 w 에 작성합니다. wire 가 아니면 id 를 가진 Envelope 로 감쌉니다.
func writeMessage(w io.Writer, format, id string, m message.Message) error {
	format, err := inspect.NormalizeFormat(format, inspect.FormatWire)
	if err != nil {
		return err
	}
	if format == inspect.FormatWire {
		return wire.Write(w, m)
	}
	if err := guardBinary(w, format); err != nil {
		return err
	}

	codec, err := protocol.CodecByName(format)
	if err != nil {
		return err
	}
	env, err := envelopeOf(id, m)
	if err != nil {
		return err
	}
	return codec.Encode(w, env)
}

func envelopeOf(id string, m message.Message) (*protocol.Envelope, error) {
	switch v := m.(type) {
	case *message.Request:
		return protocol.RequestEnvelope(id, v), nil
	case *message.ServerRequest:
		return protocol.RequestEnvelope(id, v.Request), nil
	case *message.Response:
		return protocol.ResponseEnvelope(id, v), nil
	case *message.JSONResponse:
		return protocol.ResponseEnvelope(id, v.Response), nil
	}
	return nil, fmt.Errorf("unsupported message type %T", m)
}

func messageType(m message.Message) protocol.MessageType {
	switch m.(type) {
	case *message.Response, *message.JSONResponse:
		return protocol.MessageTypeResponse
	}
	return protocol.MessageTypeRequest
}

// errBinaryToTerminal 은 protobuf 출력이 터미널로 향할 때 반환됩니다.
var errBinaryToTerminal = errors.New("refusing to write binary protobuf output to a terminal, redirect stdout")

// guardBinary 는 w 가 터미널이고 format 이 protobuf 이면 에러를 반환합니다.
func guardBinary(w io.Writer, format string) error {
	if format != inspect.FormatProtobuf {
		return nil
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return errBinaryToTerminal
	}
	return nil
}
