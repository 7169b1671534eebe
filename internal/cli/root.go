// Package cli 는 hopmsg 명령행 도구의 cobra 명령들을 구성합니다.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dalbodeule/hop-msg/internal/config"
	"github.com/dalbodeule/hop-msg/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

// state 는 하위 명령들이 공유하는 설정입니다. PersistentPreRunE 에서 채워집니다.
type state struct {
	cfg    *config.CLIConfig
	logger logging.Logger

	format   string
	logLevel string
	verbose  bool
}

// formatOr 는 --format 이 지정되지 않았을 때 def 를 반환합니다.
func (s *state) formatOr(def string) string {
	if s.format != "" {
		return s.format
	}
	return def
}

// NewRootCommand 는 모든 하위 명령이 연결된 hopmsg 루트 명령을 생성합니다.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "hopmsg",
		Short: "HTTP message toolkit: parse, serialize, resolve and replay",
		Long: `hopmsg parses raw HTTP/1.x messages, converts them between wire text and
JSON/YAML/protobuf envelopes, assembles server requests from CGI-style
server parameters and replays captured requests against a live server.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd.ErrOrStderr())
		},
	}

	// Disable completion command
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&st.format, "format", "f", "", "output format: wire, json, yaml, protobuf (default from HOPMSG_FORMAT)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error (default from HOPMSG_LOG_LEVEL)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newParseCommand(st),
		newConvertCommand(st),
		newResolveCommand(st),
		newReplayCommand(st),
	)
	return root
}

func (s *state) init(logOut io.Writer) error {
	cfg, err := config.LoadCLIConfigFromEnv()
	if err != nil {
		return err
	}
	s.cfg = cfg

	levelName := cfg.Logging.Level
	if s.logLevel != "" {
		levelName = s.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	if s.verbose {
		level = logging.DebugLevel
	}
	s.logger = logging.NewJSONLogger(logOut, "cli", level)
	return nil
}

// Execute 는 루트 명령을 실행합니다. main.main 에서 한 번 호출됩니다.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
