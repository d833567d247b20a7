// Package cmds holds the formsctl commands.
package cmds

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/logger"
)

const (
	defaultServer  = "http://localhost:1323"
	defaultTimeout = 30 * time.Second
)

type rootOptions struct {
	server  string
	keyID   string
	token   string
	timeout time.Duration

	// Replaced in tests
	fetcher fetch.Fetcher
}

func (o *rootOptions) client() *adminClient {
	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(o.timeout, logger.Logger)
	}

	return &adminClient{
		fetcher: fetcher,
		baseURL: o.server,
		keyID:   o.keyID,
		token:   o.token,
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formsctl",
		Short:         "Administers a formbridge server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("FORMBRIDGE_URL", defaultServer), "Base URL of the server")
	flags.StringVar(&opts.keyID, "key-id", os.Getenv("FORMBRIDGE_API_KEY_ID"), "API key id")
	flags.StringVar(&opts.token, "token", os.Getenv("FORMBRIDGE_API_TOKEN"), "API key token")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Request timeout")

	rootCmd.AddCommand(
		newCacheCmd(opts),
		newItemsCmd(opts),
		newEntriesCmd(opts),
		newHubspotCmd(opts),
	)

	return rootCmd
}
