package cmds

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached vendor items",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear <type>",
		Short: "Drop the cached items of one integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Message string `json:"message"`
			}

			err := opts.client().do(cmd.Context(), http.MethodPost, "/v1/cache-clear/",
				map[string]string{"type": args[0]}, &out)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	})

	return cacheCmd
}
