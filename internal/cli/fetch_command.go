package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/sdmap/internal/config"
	"github.com/temirov/sdmap/internal/fetch"
	"github.com/temirov/sdmap/internal/output"
	"github.com/temirov/sdmap/internal/services/stream"
	"github.com/temirov/sdmap/internal/soundfont"
)

const (
	setsUse              = "sets"
	setsShortDescription = "list the published instrument sample sets"
	setsLongDescription  = `Download the published list of instrument sample sets and print it numbered.
Use a number or a name from this list as the choice of the fetch command.`

	fetchUse              = "fetch [set number or name]"
	fetchAlias            = "f"
	fetchShortDescription = "download the samples of one instrument set (" + fetchAlias + ")"
	fetchLongDescription  = `Download every note sample of one instrument set into <destination>/<set>-mp3.
The choice is a 1-based number from the sets list or a set name; when the list cannot
be downloaded a set name is used as entered. Samples already on disk are skipped,
failed samples are reported and do not stop the remaining downloads.`
	fetchUsageExample = `  # Show the sets, then download the 12th one onto the card
  sdmap sets
  sdmap fetch 12 --destination /media/sd/soundfont

  # Download by name with a longer timeout
  sdmap fetch music_box --timeout 30s`

	baseURLFlagName            = "base-url"
	destinationFlagName        = "destination"
	timeoutFlagName            = "timeout"
	userAgentFlagName          = "user-agent"
	baseURLFlagDescription     = "location of the published sample sets"
	destinationFlagDescription = "directory receiving the <set>-mp3 folder"
	timeoutFlagDescription     = "timeout of each request"
	userAgentFlagDescription   = "User-Agent header sent with requests"

	logMessageSetListUnavailable = "could not fetch the set list; using the set name as entered"
	logMessageFetchFinished      = "fetch finished"
	logMessageFetchFailures      = "some samples could not be downloaded"
	logFieldSet                  = "set"
	logFieldDestination          = "destination"
	logFieldSucceeded            = "succeeded"
	logFieldFailed               = "failed"
	logFieldNotAttempted         = "not_attempted"
	logFieldFailedNames          = "names"
)

var errMissingSetChoice = errors.New("a set number or name is required; run 'sdmap sets' to list them")

type fetchOptions struct {
	baseURL     string
	destination string
	timeout     string
	userAgent   string
}

func (options fetchOptions) overlay(command *cobra.Command, configuration config.FetchConfiguration) config.FetchConfiguration {
	flags := command.Flags()
	if flags.Changed(baseURLFlagName) {
		configuration.BaseURL = options.baseURL
	}
	if flags.Changed(destinationFlagName) {
		configuration.Destination = options.destination
	}
	if flags.Changed(timeoutFlagName) {
		configuration.Timeout = options.timeout
	}
	if flags.Changed(userAgentFlagName) {
		configuration.UserAgent = options.userAgent
	}
	return configuration
}

func addRemoteFlags(command *cobra.Command, options *fetchOptions) {
	flags := command.Flags()
	flags.StringVar(&options.baseURL, baseURLFlagName, soundfont.DefaultBaseURL, baseURLFlagDescription)
	flags.StringVar(&options.timeout, timeoutFlagName, fetch.DefaultTimeout.String(), timeoutFlagDescription)
	flags.StringVar(&options.userAgent, userAgentFlagName, "", userAgentFlagDescription)
}

func (app *application) newFetcher(configuration config.FetchConfiguration) (fetch.Fetcher, error) {
	timeout, err := configuration.TimeoutDuration()
	if err != nil {
		return fetch.Fetcher{}, err
	}
	return fetch.NewFetcher(app.dependencies.HTTPClient).
		WithTimeout(timeout).
		WithUserAgent(configuration.UserAgent).
		WithLogger(app.logger()), nil
}

func createSetsCommand(app *application) *cobra.Command {
	var options fetchOptions

	setsCommand := &cobra.Command{
		Use:   setsUse,
		Short: setsShortDescription,
		Long:  setsLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			fetchConfiguration := options.overlay(command, configuration.Fetch)
			fetcher, err := app.newFetcher(fetchConfiguration)
			if err != nil {
				return err
			}
			setNames, err := soundfont.FetchSetNames(command.Context(), fetcher, fetchConfiguration.BaseURL)
			if err != nil {
				return err
			}
			output.WriteNumberedList(app.dependencies.Stdout, setNames)
			return nil
		},
	}
	addRemoteFlags(setsCommand, &options)
	return setsCommand
}

func createFetchCommand(app *application) *cobra.Command {
	var options fetchOptions

	fetchCommand := &cobra.Command{
		Use:     fetchUse,
		Aliases: []string{fetchAlias},
		Short:   fetchShortDescription,
		Long:    fetchLongDescription,
		Example: fetchUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			fetchConfiguration := options.overlay(command, configuration.Fetch)
			if len(arguments) == 1 {
				fetchConfiguration.Set = arguments[0]
			}
			if strings.TrimSpace(fetchConfiguration.Set) == "" {
				return errMissingSetChoice
			}
			return app.runFetch(command.Context(), fetchConfiguration)
		},
	}
	addRemoteFlags(fetchCommand, &options)
	fetchCommand.Flags().StringVar(&options.destination, destinationFlagName, ".", destinationFlagDescription)
	return fetchCommand
}

func (app *application) runFetch(ctx context.Context, configuration config.FetchConfiguration) error {
	fetcher, err := app.newFetcher(configuration)
	if err != nil {
		return err
	}

	setNames, listErr := soundfont.FetchSetNames(ctx, fetcher, configuration.BaseURL)
	if listErr != nil {
		app.logger().Warn(logMessageSetListUnavailable, zap.Error(listErr))
	}
	setName, err := soundfont.Select(configuration.Set, setNames, listErr == nil)
	if err != nil {
		return err
	}

	destinationRoot, err := app.resolvePath(configuration.Destination)
	if err != nil {
		return err
	}
	batch, err := soundfont.SampleBatch(configuration.BaseURL, setName, destinationRoot)
	if err != nil {
		return err
	}

	renderer := output.NewFetchProgressRenderer(app.dependencies.Stdout, app.dependencies.Stderr, batch.Destination)
	var report fetch.Report
	producer := func(streamCtx context.Context, events chan<- stream.Event) error {
		streamReport, streamErr := stream.StreamFetch(streamCtx, fetcher, batch, events)
		report = streamReport
		return streamErr
	}
	dispatchErr := dispatchStream(ctx, producer, renderer.Handle)
	if err := renderer.Flush(report); err != nil {
		return err
	}

	app.logger().Info(logMessageFetchFinished,
		zap.String(logFieldSet, setName),
		zap.String(logFieldDestination, batch.Destination),
		zap.Int(logFieldSucceeded, report.Succeeded),
		zap.Int(logFieldSkipped, report.Skipped),
		zap.Int(logFieldFailed, report.Failed),
		zap.Int(logFieldNotAttempted, len(report.NotAttempted)),
	)
	if report.Failed > 0 {
		failedNames := make([]string, 0, report.Failed)
		for _, failure := range report.Failures() {
			failedNames = append(failedNames, failure.Name)
		}
		app.logger().Warn(logMessageFetchFailures, zap.Strings(logFieldFailedNames, failedNames))
	}
	return dispatchErr
}

// dispatchStream runs produce and consume concurrently, joined by an errgroup.
// Cancellation is not reported as an error.
func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
