package fetch

import (
	"errors"
	"fmt"
)

// Outcome classifies the handling of one batch item.
type Outcome string

const (
	// OutcomeSkipped marks a name whose destination file already existed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSucceeded marks a name that was downloaded and stored.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed marks a name whose download failed; no file was left behind.
	OutcomeFailed Outcome = "failed"
)

const (
	errorFetchStatusFormat = "fetch %s from %s: unexpected status %d"
	errorFetchFormat       = "fetch %s from %s: %v"
)

// ErrUnexpectedStatus is wrapped by failures caused by a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// FetchError describes why a single item could not be fetched.
type FetchError struct {
	Name       string
	URL        string
	StatusCode int
	Err        error
}

func (fetchError *FetchError) Error() string {
	if fetchError.StatusCode != 0 {
		return fmt.Sprintf(errorFetchStatusFormat, fetchError.Name, fetchError.URL, fetchError.StatusCode)
	}
	return fmt.Sprintf(errorFetchFormat, fetchError.Name, fetchError.URL, fetchError.Err)
}

func (fetchError *FetchError) Unwrap() error {
	return fetchError.Err
}

// Result is the typed outcome of one batch item.
type Result struct {
	Name    string
	URL     string
	Path    string
	Outcome Outcome
	Bytes   int64
	Err     *FetchError
}

// Report aggregates the results of a batch in input order.
type Report struct {
	Results   []Result
	Skipped   int
	Succeeded int
	Failed    int
	// NotAttempted lists names left untouched because the batch stopped early.
	NotAttempted []string
}

// Total is the number of names the batch was asked to handle.
func (report Report) Total() int {
	return len(report.Results) + len(report.NotAttempted)
}

// Failures returns the failed results in input order.
func (report Report) Failures() []Result {
	var failures []Result
	for _, result := range report.Results {
		if result.Outcome == OutcomeFailed {
			failures = append(failures, result)
		}
	}
	return failures
}

func (report *Report) record(result Result) {
	report.Results = append(report.Results, result)
	switch result.Outcome {
	case OutcomeSkipped:
		report.Skipped++
	case OutcomeSucceeded:
		report.Succeeded++
	case OutcomeFailed:
		report.Failed++
	}
}
