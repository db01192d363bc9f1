package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/pkg/retry"
	"github.com/Alwanly/service-feed-ingest/pkg/rpc"
)

// AddPersistentFlags installs the connection flags shared by every command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("addr", "localhost:9010", "control-plane RPC address")
	cmd.PersistentFlags().Duration("timeout", 0, "overall deadline per command (default 10s)")
}

// call dials the pool with retries and performs one action. Remote errors
// are not retried.
func call(cmd *cobra.Command, action string, params, result any) error {
	cfg, err := config.LoadCtlConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	backoff := retry.DefaultConfig()
	backoff.MaxRetries = cfg.MaxRetries
	backoff.InitialBackoff = cfg.InitialBackoff
	backoff.MaxBackoff = cfg.MaxBackoff

	return retry.WithExponentialBackoff(ctx, backoff, func(ctx context.Context) error {
		client, err := rpc.Dial(ctx, cfg.Addr, rpc.WithClientMaxFrameSize(cfg.MaxFrame))
		if err != nil {
			return err
		}
		defer client.Close()

		err = client.Call(ctx, action, params, result)
		var remote *rpc.RemoteError
		if errors.As(err, &remote) {
			return retry.Permanent(err)
		}
		if err != nil {
			return fmt.Errorf("call %s: %w", action, err)
		}
		return nil
	})
}
