package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/edgemcp/pkg/logger"
	"github.com/stacklok/edgemcp/pkg/runtime"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Inspect and invoke tools registered with a running core",
	}
	cmd.AddCommand(newToolListCmd())
	cmd.AddCommand(newToolCallCmd())
	return cmd
}

func newToolListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered tool",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, closeFn, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Println(rt.Tools.List())
			return nil
		},
	}
}

func newToolCallCmd() *cobra.Command {
	var paramsJSON string
	cmd := &cobra.Command{
		Use:   "call <tool-name>",
		Short: "Invoke a tool by name with a JSON params object",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rt, closeFn, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeFn()

			envelope := fmt.Sprintf(`{"tool":%q,"params":%s}`, args[0], paramsJSON)
			result, err := rt.Invoke(context.Background(), envelope, "", "")
			if err != nil {
				return fmt.Errorf("invoking tool: %w", err)
			}
			fmt.Printf("status: %s\n%s\n", result.Status, result.ResultJSON)
			return nil
		},
	}
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "JSON params object")
	return cmd
}

// openRuntime starts a Runtime against the resolved config, suitable for a
// single CLI command's lifetime.
func openRuntime() (*runtime.Runtime, func(), error) {
	cfg := resolveProvider().GetConfig()
	rt := runtime.New(cfg)
	if err := rt.Start(context.Background(), true); err != nil {
		return nil, nil, fmt.Errorf("starting runtime: %w", err)
	}
	return rt, func() {
		if err := rt.Close(); err != nil {
			logger.Errorf("error closing runtime: %v", err)
		}
	}, nil
}
