package output

import (
	"fmt"
	"io"

	"github.com/temirov/sdmap/internal/fetch"
	"github.com/temirov/sdmap/internal/services/stream"
	"github.com/temirov/sdmap/internal/utils"
)

const (
	startLineFormat     = "Fetching %d files from %s\n"
	skippedLineFormat   = "Skipping (already exists): %s\n"
	downloadLineFormat  = "Downloading %s ... %s\n"
	downloadedFormat    = "Downloading %s ... %s (%s)\n"
	failureDetailFormat = "  %v\n"
	statusOK            = "OK"
	statusFailed        = "FAILED"
	reportSummaryFormat = "Download complete: %d downloaded, %d skipped, %d failed. Files saved to %s\n"
	reportStoppedFormat = "Download stopped: %d not attempted.\n"
)

// ProgressRenderer prints fetch events as they arrive and the batch summary at the end.
type ProgressRenderer interface {
	Handle(event stream.Event) error
	Flush(report fetch.Report) error
}

type fetchProgressRenderer struct {
	stdout      io.Writer
	stderr      io.Writer
	destination string
}

// NewFetchProgressRenderer writes progress lines to stdout and failure details to stderr.
func NewFetchProgressRenderer(stdout, stderr io.Writer, destination string) ProgressRenderer {
	return &fetchProgressRenderer{stdout: stdout, stderr: stderr, destination: destination}
}

func (renderer *fetchProgressRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindStart:
		if event.Start == nil {
			return nil
		}
		_, err := fmt.Fprintf(renderer.stdout, startLineFormat, event.Start.Total, event.Start.BaseURL)
		return err
	case stream.EventKindResult:
		if event.Result == nil {
			return nil
		}
		return renderer.handleResult(*event.Result)
	}
	return nil
}

func (renderer *fetchProgressRenderer) handleResult(result fetch.Result) error {
	var err error
	switch result.Outcome {
	case fetch.OutcomeSkipped:
		_, err = fmt.Fprintf(renderer.stdout, skippedLineFormat, result.Name)
	case fetch.OutcomeSucceeded:
		_, err = fmt.Fprintf(renderer.stdout, downloadedFormat, result.Name, statusOK, utils.FormatFileSize(result.Bytes))
	case fetch.OutcomeFailed:
		_, err = fmt.Fprintf(renderer.stdout, downloadLineFormat, result.Name, statusFailed)
		if err == nil && result.Err != nil && renderer.stderr != nil {
			_, err = fmt.Fprintf(renderer.stderr, failureDetailFormat, result.Err)
		}
	}
	return err
}

func (renderer *fetchProgressRenderer) Flush(report fetch.Report) error {
	if len(report.NotAttempted) > 0 {
		if _, err := fmt.Fprintf(renderer.stdout, reportStoppedFormat, len(report.NotAttempted)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(renderer.stdout, reportSummaryFormat, report.Succeeded, report.Skipped, report.Failed, renderer.destination)
	return err
}
