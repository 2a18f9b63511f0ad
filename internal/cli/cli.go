// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sdmap/internal/catalog"
	"github.com/temirov/sdmap/internal/config"
	"github.com/temirov/sdmap/internal/services/clipboard"
	"github.com/temirov/sdmap/internal/types"
	"github.com/temirov/sdmap/internal/utils"
)

const (
	configFlagName       = "config"
	logLevelFlagName     = "log-level"
	versionTemplate      = "sdmap version: {{.Version}}\n"
	rootUse              = utils.ApplicationName
	rootShortDescription = "sdmap prepares storage cards for the media player"
	rootLongDescription  = `sdmap indexes the directory tree of a storage card into data.json and
downloads instrument sample sets onto it.
Use scan to write the index, sets and fetch to download samples, catalog and serve to
query a written index, and config init to create a configuration file.`
	configFlagDescription   = "path to a configuration file (default ./config.yaml)"
	logLevelFlagDescription = "log level (debug, info, warn, error)"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
)

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Dependencies carries the collaborators of every command. Zero values select the
// process defaults.
type Dependencies struct {
	Logger           *zap.Logger
	LogLevel         *zap.AtomicLevel
	Stdout           io.Writer
	Stderr           io.Writer
	HTTPClient       httpClient
	Clipboard        clipboard.Copier
	WorkingDirectory string
	// Chooser picks random catalog subsections; nil uses math/rand/v2.
	Chooser catalog.Chooser
}

func (dependencies Dependencies) withDefaults() Dependencies {
	dependencies.Logger = utils.LoggerOrNop(dependencies.Logger)
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.HTTPClient == nil {
		dependencies.HTTPClient = http.DefaultClient
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	return dependencies
}

type application struct {
	dependencies      Dependencies
	configurationPath string
	logLevel          string
}

// Execute runs the sdmap application with the process arguments.
func Execute(ctx context.Context, dependencies Dependencies) error {
	return ExecuteWithArguments(ctx, dependencies, os.Args[1:])
}

// ExecuteWithArguments runs the sdmap application with explicit arguments.
func ExecuteWithArguments(ctx context.Context, dependencies Dependencies, arguments []string) error {
	rootCommand := NewRootCommand(dependencies)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(ctx)
}

// NewRootCommand builds the root Cobra command and its subcommands.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	app := &application{dependencies: dependencies.withDefaults()}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.applyLogLevel()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(app.dependencies.Stdout)
	rootCommand.SetErr(app.dependencies.Stderr)
	rootCommand.PersistentFlags().StringVar(&app.configurationPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.logLevel, logLevelFlagName, utils.DefaultLogLevel, logLevelFlagDescription)
	rootCommand.AddCommand(
		createScanCommand(app),
		createSetsCommand(app),
		createFetchCommand(app),
		createCatalogCommand(app),
		createServeCommand(app),
		createConfigCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (app *application) logger() *zap.Logger {
	return app.dependencies.Logger
}

func (app *application) applyLogLevel() error {
	level, err := utils.ParseLogLevel(app.logLevel)
	if err != nil {
		return err
	}
	if app.dependencies.LogLevel != nil {
		app.dependencies.LogLevel.SetLevel(level)
	}
	return nil
}

func (app *application) workingDirectory() (string, error) {
	if app.dependencies.WorkingDirectory != "" {
		return app.dependencies.WorkingDirectory, nil
	}
	workingDirectory, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	return workingDirectory, nil
}

func (app *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	workingDirectory, err := app.workingDirectory()
	if err != nil {
		return config.ApplicationConfiguration{}, err
	}
	return config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: app.configurationPath,
	})
}

// resolvePath anchors a relative path at the working directory.
func (app *application) resolvePath(inputPath string) (string, error) {
	if filepath.IsAbs(inputPath) {
		return filepath.Clean(inputPath), nil
	}
	workingDirectory, err := app.workingDirectory()
	if err != nil {
		return "", err
	}
	absolutePath, absoluteError := filepath.Abs(filepath.Join(workingDirectory, inputPath))
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputPath, absoluteError)
	}
	return absolutePath, nil
}

// resolveDirectory converts an input path to absolute form and checks it is an
// existing directory.
func (app *application) resolveDirectory(inputPath string) (types.ValidatedPath, error) {
	absolutePath, err := app.resolvePath(strings.TrimSpace(inputPath))
	if err != nil {
		return types.ValidatedPath{}, err
	}
	info, statError := os.Stat(absolutePath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return types.ValidatedPath{}, fmt.Errorf(errorPathMissingFormat, inputPath)
		}
		return types.ValidatedPath{}, fmt.Errorf(errorStatFormat, inputPath, statError)
	}
	if !info.IsDir() {
		return types.ValidatedPath{}, fmt.Errorf(errorNotDirectoryFormat, inputPath)
	}
	return types.ValidatedPath{AbsolutePath: absolutePath, IsDir: true}, nil
}
