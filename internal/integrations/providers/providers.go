// Package providers builds the integration registry from configuration.
package providers

import (
	"log/slog"

	"github.com/formbridge/formbridge/internal/cache"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/enrichment"
	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/integrations/greenhouse"
	"github.com/formbridge/formbridge/internal/integrations/hubspot"
	"github.com/formbridge/formbridge/internal/integrations/mailchimp"
	"github.com/formbridge/formbridge/internal/integrations/workable"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/pipeline"
	"github.com/formbridge/formbridge/internal/types"
)

type Options struct {
	// Defaults to a single attempt HTTP fetcher using the configured timeout
	Fetcher       fetch.Fetcher
	FormSettings  integrations.FormSettings
	PrePostParams *pipeline.Pipeline[types.Params]
	FilesOptions  *pipeline.Pipeline[hubspot.FileOptions]
}

// Registry with one client per integration that has credentials configured.
// Integrations without credentials are left out and reported as unknown.
func Registry(cfg *config.Config, store cache.Store, opts Options) *integrations.Registry {
	log := logger.For("providers")

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(cfg.Integrations.HTTPTimeout, logger.Logger)
	}

	itemsCache := integrations.NewItemsCache(store, cfg.Integrations.CacheTTL, cfg.Integrations.SkipCache)
	clients := []integrations.Client{}

	ic := cfg.Integrations
	if ic.Hubspot.APIKey != "" {
		hubspotOpts := []hubspot.Option{
			hubspot.WithEnrichment(enrichment.NewMapper(cfg.Enrichment)),
		}
		if opts.FormSettings != nil {
			hubspotOpts = append(hubspotOpts, hubspot.WithFormSettings(opts.FormSettings))
		}
		if opts.PrePostParams != nil {
			hubspotOpts = append(hubspotOpts, hubspot.WithPrePostParams(opts.PrePostParams))
		}
		if opts.FilesOptions != nil {
			hubspotOpts = append(hubspotOpts, hubspot.WithFilesOptions(opts.FilesOptions))
		}

		clients = append(clients, hubspot.New(hubspot.Config{
			APIKey:   ic.Hubspot.APIKey,
			FormsURL: ic.Hubspot.FormsURL,
			APIURL:   ic.Hubspot.APIURL,
			Folder:   ic.Hubspot.FilemanagerFolder,
		}, fetcher, itemsCache, hubspotOpts...))
	}

	if ic.Mailchimp.APIKey != "" {
		clients = append(clients, mailchimp.New(mailchimp.Config{
			APIKey:  ic.Mailchimp.APIKey,
			BaseURL: ic.Mailchimp.BaseURL,
		}, fetcher, itemsCache))
	}

	if ic.Greenhouse.APIKey != "" && ic.Greenhouse.BoardToken != "" {
		clients = append(clients, greenhouse.New(greenhouse.Config{
			APIKey:     ic.Greenhouse.APIKey,
			BoardToken: ic.Greenhouse.BoardToken,
			BaseURL:    ic.Greenhouse.BaseURL,
		}, fetcher, itemsCache))
	}

	if ic.Workable.APIKey != "" && ic.Workable.Subdomain != "" {
		clients = append(clients, workable.New(workable.Config{
			APIKey:    ic.Workable.APIKey,
			Subdomain: ic.Workable.Subdomain,
			BaseURL:   ic.Workable.BaseURL,
		}, fetcher, itemsCache))
	}

	registry := integrations.NewRegistry(itemsCache, clients...)
	log.Info("integrations configured", slog.Any("types", registry.Types()))

	return registry
}
