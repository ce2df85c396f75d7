package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDriverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Inspect native drivers bridged into the running core",
	}
	cmd.AddCommand(newDriverListCmd())
	return cmd
}

func newDriverListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every driver registered with the driver bridge",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, closeFn, err := openRuntime()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := rt.Invoke(context.Background(), `{"tool":"system.listNativeDrivers","params":{}}`, "", "")
			if err != nil {
				return fmt.Errorf("listing drivers: %w", err)
			}
			fmt.Println(result.ResultJSON)
			return nil
		},
	}
}
