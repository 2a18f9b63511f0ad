package cli

import (
	"github.com/spf13/cobra"

	"github.com/temirov/sdmap/internal/config"
	"github.com/temirov/sdmap/internal/server"
	"github.com/temirov/sdmap/internal/types"
)

const (
	serveUse              = types.CommandServe
	serveShortDescription = "serve a written index document as a JSON API"
	serveLongDescription  = `Serve read-only catalog queries over HTTP:
  GET /api/sections
  GET /api/sections/:section/files?subsection=
  GET /api/sections/:section/subsections
  GET /api/sections/:section/random
The document is re-read whenever it changes on disk.`

	addressFlagName              = "address"
	cacheSizeFlagName            = "cache-size"
	allowedOriginFlagName        = "allowed-origin"
	addressFlagDescription       = "listen address"
	serveDocumentFlagDescription = "path of the index document"
	cacheSizeFlagDescription     = "number of parsed documents kept in memory"
	allowedOriginFlagDescription = "CORS origin allowed to call the API, with scheme (repeatable; none allows all)"
)

type serveOptions struct {
	address        string
	document       string
	cacheSize      int
	allowedOrigins []string
}

func (options serveOptions) overlay(command *cobra.Command, configuration config.ServeConfiguration) config.ServeConfiguration {
	flags := command.Flags()
	if flags.Changed(addressFlagName) {
		configuration.Address = options.address
	}
	if flags.Changed(documentFlagName) {
		configuration.Document = options.document
	}
	if flags.Changed(cacheSizeFlagName) {
		cacheSize := options.cacheSize
		configuration.CacheSize = &cacheSize
	}
	if flags.Changed(allowedOriginFlagName) {
		configuration.AllowedOrigins = append([]string{}, options.allowedOrigins...)
	}
	return configuration
}

func createServeCommand(app *application) *cobra.Command {
	var options serveOptions

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			serveConfiguration := options.overlay(command, configuration.Serve)
			documentPath, err := app.resolvePath(serveConfiguration.Document)
			if err != nil {
				return err
			}
			cacheSize := config.DefaultCacheSize
			if serveConfiguration.CacheSize != nil {
				cacheSize = *serveConfiguration.CacheSize
			}
			catalogServer, err := server.New(server.Options{
				Address:        serveConfiguration.Address,
				DocumentPath:   documentPath,
				CacheSize:      cacheSize,
				AllowedOrigins: serveConfiguration.AllowedOrigins,
				Logger:         app.logger(),
				Chooser:        app.dependencies.Chooser,
			})
			if err != nil {
				return err
			}
			return catalogServer.Run(command.Context())
		},
	}

	flags := serveCommand.Flags()
	flags.StringVar(&options.address, addressFlagName, config.DefaultServeAddress, addressFlagDescription)
	flags.StringVar(&options.document, documentFlagName, config.DefaultOutputPath, serveDocumentFlagDescription)
	flags.IntVar(&options.cacheSize, cacheSizeFlagName, config.DefaultCacheSize, cacheSizeFlagDescription)
	flags.StringSliceVar(&options.allowedOrigins, allowedOriginFlagName, nil, allowedOriginFlagDescription)
	return serveCommand
}
