package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dalbodeule/hop-msg/internal/proxy"
	"github.com/dalbodeule/hop-msg/internal/wire"
)

type replayOptions struct {
	target  string
	scheme  string
	timeout time.Duration
}

func newReplayCommand(st *state) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Send a captured raw request to a server and print the response",
		Long: `replay parses one HTTP/1.x request in wire format and sends it with the
original method, target, headers and body. Without --target the request
goes to the authority of its URI (or its Host header). The response is
written as wire text unless --format says otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = st.cfg.ReplayTimeout
			}
			return runReplay(cmd, st, argOrStdin(args), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "send to this host:port instead of the request authority")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "", "scheme to use with --target (default: request scheme or http)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout (default from HOPMSG_REPLAY_TIMEOUT)")
	return cmd
}

func runReplay(cmd *cobra.Command, st *state, path string, opts *replayOptions) error {
	src, err := openSource(cmd, path)
	if err != nil {
		return err
	}
	defer src.Close()

	req, err := wire.ReadRequest(src)
	if err != nil {
		return err
	}

	replayer := proxy.NewReplayer(st.logger, opts.target, opts.timeout)
	replayer.Scheme = opts.scheme
	resp, err := replayer.Replay(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeMessage(cmd.OutOrStdout(), st.formatOr("wire"), uuid.NewString(), resp)
}
