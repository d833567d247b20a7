package cmds

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func newItemsCmd(opts *rootOptions) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect vendor items",
	}

	itemsCmd.AddCommand(&cobra.Command{
		Use:   "list <type>",
		Short: "List the forms, lists or jobs of one integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Items []option `json:"items"`
			}

			err := opts.client().do(cmd.Context(), http.MethodGet,
				"/v1/integration-items/"+url.PathEscape(args[0])+"/", nil, &out)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE")
			for _, item := range out.Items {
				fmt.Fprintf(w, "%s\t%s\n", item.Value, item.Label)
			}
			return w.Flush()
		},
	})

	return itemsCmd
}
