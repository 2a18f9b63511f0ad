package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/sdmap/internal/catalog"
	"github.com/temirov/sdmap/internal/output"
	"github.com/temirov/sdmap/internal/types"
)

const (
	catalogUse              = types.CommandCatalog
	catalogShortDescription = "query a written index document"
	catalogLongDescription  = `Answer the media player's questions from a written data.json: the files of a
section or subsection, the subsections that hold files, or a random subsection.`

	catalogFilesUse                    = "files <section> [subsection]"
	catalogFilesShortDescription       = "list the files of a section or of one of its subsections"
	catalogSubsectionsUse              = "subsections <section>"
	catalogSubsectionsShortDescription = "list the subsections of a section that hold files"
	catalogRandomUse                   = "random <section>"
	catalogRandomShortDescription      = "pick a random subsection of a section"

	documentFlagName          = "document"
	formatFlagName            = "format"
	documentFlagDescription   = "path of the index document (default: the configured serve document)"
	formatFlagDescription     = "output format: raw or json"
	invalidCatalogFormatError = "invalid format '%s'"
)

type catalogOptions struct {
	document string
	format   string
}

func createCatalogCommand(app *application) *cobra.Command {
	options := &catalogOptions{}

	catalogCommand := &cobra.Command{
		Use:   catalogUse,
		Short: catalogShortDescription,
		Long:  catalogLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	persistentFlags := catalogCommand.PersistentFlags()
	persistentFlags.StringVar(&options.document, documentFlagName, "", documentFlagDescription)
	registerChoiceFlag(persistentFlags, &options.format, formatFlagName, types.FormatRaw, formatFlagDescription, types.FormatRaw, types.FormatJSON)

	catalogCommand.AddCommand(
		&cobra.Command{
			Use:   catalogFilesUse,
			Short: catalogFilesShortDescription,
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(command *cobra.Command, arguments []string) error {
				documentCatalog, err := app.loadCatalog(options)
				if err != nil {
					return err
				}
				subsection := ""
				if len(arguments) == 2 {
					subsection = arguments[1]
				}
				files, err := documentCatalog.Files(arguments[0], subsection)
				if err != nil {
					return err
				}
				return output.WriteStrings(app.dependencies.Stdout, options.format, files)
			},
		},
		&cobra.Command{
			Use:   catalogSubsectionsUse,
			Short: catalogSubsectionsShortDescription,
			Args:  cobra.ExactArgs(1),
			RunE: func(command *cobra.Command, arguments []string) error {
				documentCatalog, err := app.loadCatalog(options)
				if err != nil {
					return err
				}
				subsections, err := documentCatalog.Subsections(arguments[0])
				if err != nil {
					return err
				}
				return output.WriteStrings(app.dependencies.Stdout, options.format, subsections)
			},
		},
		&cobra.Command{
			Use:   catalogRandomUse,
			Short: catalogRandomShortDescription,
			Args:  cobra.ExactArgs(1),
			RunE: func(command *cobra.Command, arguments []string) error {
				documentCatalog, err := app.loadCatalog(options)
				if err != nil {
					return err
				}
				selection, err := documentCatalog.Random(arguments[0], app.dependencies.Chooser)
				if err != nil {
					return err
				}
				return output.WriteSelection(app.dependencies.Stdout, options.format, selection)
			},
		},
	)
	return catalogCommand
}

func (app *application) loadCatalog(options *catalogOptions) (catalog.Catalog, error) {
	if !types.IsSupportedFormat(options.format) {
		return catalog.Catalog{}, fmt.Errorf(invalidCatalogFormatError, options.format)
	}
	documentPath := options.document
	if documentPath == "" {
		configuration, err := app.loadConfiguration()
		if err != nil {
			return catalog.Catalog{}, err
		}
		documentPath = configuration.Serve.Document
	}
	resolvedPath, err := app.resolvePath(documentPath)
	if err != nil {
		return catalog.Catalog{}, err
	}
	return catalog.Load(resolvedPath)
}
