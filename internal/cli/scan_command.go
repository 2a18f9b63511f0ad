package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sdmap/internal/config"
	"github.com/temirov/sdmap/internal/index"
	"github.com/temirov/sdmap/internal/output"
	"github.com/temirov/sdmap/internal/types"
	"github.com/temirov/sdmap/internal/utils"
)

const (
	scanUse              = "scan [root]"
	scanAlias            = "s"
	scanShortDescription = "index a storage card into data.json (" + scanAlias + ")"
	scanLongDescription  = `Walk the directory tree below root (default: the configured root, or the
current directory) and write the nested directory/files index as JSON.
The document is written to --output and copied into the root as data.json.
Directories whose relative path starts with --web-prefix or contains --metadata-folder
are left out together with their contents; files directly in the root are not indexed.`
	scanUsageExample = `  # Index the card mounted at /media/sd
  sdmap scan /media/sd

  # Keep the document local and print the tree
  sdmap scan /media/sd --root-copy no --print raw`

	outputFlagName                = "output"
	rootCopyFlagName              = "root-copy"
	rootCopyNameFlagName          = "root-copy-name"
	webPrefixFlagName             = "web-prefix"
	metadataFolderFlagName        = "metadata-folder"
	printFlagName                 = "print"
	copyFlagName                  = "copy"
	outputFlagDescription         = "path of the written document"
	rootCopyFlagDescription       = "also copy the document into the scanned root"
	rootCopyNameFlagDescription   = "file name of the copy inside the root"
	webPrefixFlagDescription      = "relative path prefix excluded from the index, e.g. web matches website (empty disables)"
	metadataFolderFlagDescription = "text excluded wherever it appears in a relative path (empty disables)"
	printFlagDescription          = "print the result to stdout: none, raw or json"
	copyFlagDescription           = "copy the JSON document to the clipboard"

	logMessageIndexWritten = "index written"
	logMessageIndexCopied  = "index copied into root"
	logMessageCollisions   = "directories left out because their name is reserved"
	logFieldPath           = "path"
	logFieldDirectories    = "directories"
	logFieldFiles          = "files"
	logFieldSkipped        = "skipped"
	logFieldCollisions     = "collisions"

	invalidPrintFormatMessage = "invalid print format '%s'"
)

type scanOptions struct {
	output         string
	rootCopy       bool
	rootCopyName   string
	webPrefix      string
	metadataFolder string
	print          string
	copy           bool
}

// overlay applies flags the user set explicitly onto the configured values.
func (options scanOptions) overlay(command *cobra.Command, configuration config.ScanConfiguration) config.ScanConfiguration {
	flags := command.Flags()
	if flags.Changed(outputFlagName) {
		configuration.Output = options.output
	}
	if flags.Changed(rootCopyFlagName) {
		configuration.RootCopy = &options.rootCopy
	}
	if flags.Changed(rootCopyNameFlagName) {
		configuration.RootCopyName = options.rootCopyName
	}
	if flags.Changed(webPrefixFlagName) {
		configuration.WebPrefix = &options.webPrefix
	}
	if flags.Changed(metadataFolderFlagName) {
		configuration.MetadataFolder = &options.metadataFolder
	}
	if flags.Changed(printFlagName) {
		configuration.Print = options.print
	}
	if flags.Changed(copyFlagName) {
		configuration.Clipboard = &options.copy
	}
	return configuration
}

func createScanCommand(app *application) *cobra.Command {
	var options scanOptions

	scanCommand := &cobra.Command{
		Use:     scanUse,
		Aliases: []string{scanAlias},
		Short:   scanShortDescription,
		Long:    scanLongDescription,
		Example: scanUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			scanConfiguration := options.overlay(command, configuration.Scan)
			if len(arguments) == 1 {
				scanConfiguration.Root = arguments[0]
			}
			return app.runScan(command.Context(), scanConfiguration)
		},
	}

	flags := scanCommand.Flags()
	flags.StringVar(&options.output, outputFlagName, config.DefaultOutputPath, outputFlagDescription)
	registerBooleanFlag(flags, &options.rootCopy, rootCopyFlagName, true, rootCopyFlagDescription)
	flags.StringVar(&options.rootCopyName, rootCopyNameFlagName, utils.DefaultDocumentFileName, rootCopyNameFlagDescription)
	flags.StringVar(&options.webPrefix, webPrefixFlagName, index.DefaultWebPrefix, webPrefixFlagDescription)
	flags.StringVar(&options.metadataFolder, metadataFolderFlagName, index.DefaultMetadataFolder, metadataFolderFlagDescription)
	registerChoiceFlag(flags, &options.print, printFlagName, types.FormatNone, printFlagDescription, types.FormatNone, types.FormatRaw, types.FormatJSON)
	registerBooleanFlag(flags, &options.copy, copyFlagName, false, copyFlagDescription)
	return scanCommand
}

func (app *application) runScan(ctx context.Context, configuration config.ScanConfiguration) error {
	if configuration.Print != types.FormatNone && !types.IsSupportedFormat(configuration.Print) {
		return fmt.Errorf(invalidPrintFormatMessage, configuration.Print)
	}
	root, err := app.resolveDirectory(configuration.Root)
	if err != nil {
		return err
	}
	result, err := index.Build(index.Options{
		Root:   root.AbsolutePath,
		Skip:   configuration.SkipRule(),
		Logger: app.logger(),
	})
	if err != nil {
		return err
	}
	if len(result.Collisions) > 0 {
		paths := make([]string, 0, len(result.Collisions))
		for _, collision := range result.Collisions {
			paths = append(paths, collision.Path())
		}
		app.logger().Warn(logMessageCollisions, zap.Strings(logFieldCollisions, paths))
	}

	document, err := index.Serialize(result.Root)
	if err != nil {
		return err
	}
	outputPath, err := app.resolvePath(configuration.Output)
	if err != nil {
		return err
	}
	if err := index.WriteDocument(outputPath, document); err != nil {
		return err
	}
	app.logger().Info(logMessageIndexWritten,
		zap.String(logFieldPath, outputPath),
		zap.Int(logFieldDirectories, result.Directories),
		zap.Int(logFieldFiles, result.Files),
		zap.Int(logFieldSkipped, len(result.Skipped)),
	)

	if configuration.RootCopy == nil || *configuration.RootCopy {
		copiedPath, copyErr := index.CopyToRoot(outputPath, root.AbsolutePath, configuration.RootCopyName)
		if copyErr != nil {
			return copyErr
		}
		app.logger().Info(logMessageIndexCopied, zap.String(logFieldPath, copiedPath))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	switch configuration.Print {
	case types.FormatRaw:
		output.WriteTreeRaw(app.dependencies.Stdout, root.AbsolutePath, result.Root)
	case types.FormatJSON:
		fmt.Fprintln(app.dependencies.Stdout, string(document))
	}
	if configuration.Clipboard != nil && *configuration.Clipboard {
		if err := app.dependencies.Clipboard.Copy(string(document)); err != nil {
			return err
		}
	}
	return nil
}
