package cmds

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/formbridge/formbridge/internal/exiterr"
)

func newHubspotCmd(opts *rootOptions) *cobra.Command {
	hubspotCmd := &cobra.Command{
		Use:   "hubspot",
		Short: "HubSpot contact helpers",
	}

	var properties []string
	setContactCmd := &cobra.Command{
		Use:   "set-contact <email>",
		Short: "Create or update a contact, --property name=value may be repeated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(properties))
			for _, p := range properties {
				name, value, ok := strings.Cut(p, "=")
				if !ok || name == "" {
					return exiterr.Wrap(exiterr.CodeConfig, fmt.Errorf("property %q is not name=value", p))
				}
				values[name] = value
			}

			var out struct {
				Message string `json:"message"`
			}

			err := opts.client().do(cmd.Context(), http.MethodPost, "/v1/hubspot/contact/",
				map[string]any{"email": args[0], "properties": values}, &out)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
	setContactCmd.Flags().StringArrayVar(&properties, "property", nil, "Contact property as name=value")
	if err := setContactCmd.MarkFlagRequired("property"); err != nil {
		panic("property flag must exist")
	}

	hubspotCmd.AddCommand(setContactCmd)
	return hubspotCmd
}
