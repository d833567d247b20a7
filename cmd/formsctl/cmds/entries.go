package cmds

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type entry struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	FormID    string          `json:"form_id"`
	Value     json.RawMessage `json:"entry_value"`
}

func newEntriesCmd(opts *rootOptions) *cobra.Command {
	var limit, offset int

	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Read stored submissions",
	}

	listCmd := &cobra.Command{
		Use:   "list <form-id>",
		Short: "Print stored entries of a form, newest first, one JSON document per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			var out struct {
				Items []entry `json:"items"`
			}

			err := opts.client().do(cmd.Context(), http.MethodGet,
				"/v1/entries/"+url.PathEscape(args[0])+"/?"+query.Encode(), nil, &out)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range out.Items {
				if err = enc.Encode(e); err != nil {
					return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
				}
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	entriesCmd.AddCommand(listCmd)
	return entriesCmd
}
