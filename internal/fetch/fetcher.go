// Package fetch downloads a list of named files from a base URL into a destination
// directory, one file at a time, skipping files that are already present.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/sdmap/internal/utils"
)

const (
	// DefaultTimeout bounds each individual request.
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = utils.ApplicationName + "-fetcher"
	headerUserAgent  = "User-Agent"

	errorBuildURLFormat     = "build URL for %s: %w"
	errorBuildRequestFormat = "build request for %s: %w"
	errorStoreFormat        = "store %s: %w"
	errorGetJSONFormat      = "get %s: %w"
	errorGetJSONStatus      = "get %s: %w %d"
	errorDecodeJSONFormat   = "decode %s: %w"

	logMessageSkipped   = "fetch skipped, file exists"
	logMessageSucceeded = "fetch succeeded"
	logMessageFailed    = "fetch failed"
	logFieldName        = "name"
	logFieldURL         = "url"
	logFieldPath        = "path"
	logFieldBytes       = "bytes"
)

var (
	errMissingBaseURL     = errors.New("base URL is required")
	errMissingDestination = errors.New("destination directory is required")
)

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Batch names the files to fetch. Each name is resolved against BaseURL and stored
// under Destination with the same name.
type Batch struct {
	BaseURL     string
	Names       []string
	Destination string
}

// Observer receives each result as soon as it is known. A non-nil error stops the batch.
type Observer func(Result) error

// Fetcher performs sequential fetch-or-skip batches.
type Fetcher struct {
	client    httpClient
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

// NewFetcher returns a Fetcher using client, or http.DefaultClient when client is nil.
func NewFetcher(client httpClient) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return Fetcher{
		client:    client,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
}

// WithTimeout sets the per-request timeout. Non-positive durations are ignored.
func (fetcher Fetcher) WithTimeout(duration time.Duration) Fetcher {
	if duration <= 0 {
		return fetcher
	}
	fetcher.timeout = duration
	return fetcher
}

func (fetcher Fetcher) WithUserAgent(agent string) Fetcher {
	if strings.TrimSpace(agent) == "" {
		return fetcher
	}
	fetcher.userAgent = agent
	return fetcher
}

func (fetcher Fetcher) WithLogger(logger *zap.Logger) Fetcher {
	fetcher.logger = utils.LoggerOrNop(logger)
	return fetcher
}

// Run handles every name of batch in order. A failed item is recorded and the batch
// continues. When ctx is cancelled, or observe returns an error, the remaining names are
// reported as not attempted and the cause is returned alongside the partial report.
func (fetcher Fetcher) Run(ctx context.Context, batch Batch, observe Observer) (Report, error) {
	if strings.TrimSpace(batch.BaseURL) == "" {
		return Report{}, errMissingBaseURL
	}
	if strings.TrimSpace(batch.Destination) == "" {
		return Report{}, errMissingDestination
	}

	var report Report
	for nameIndex, name := range batch.Names {
		if err := ctx.Err(); err != nil {
			report.NotAttempted = append([]string(nil), batch.Names[nameIndex:]...)
			return report, err
		}
		result := fetcher.fetchOne(ctx, batch, name)
		report.record(result)
		if observe == nil {
			continue
		}
		if err := observe(result); err != nil {
			report.NotAttempted = append([]string(nil), batch.Names[nameIndex+1:]...)
			return report, err
		}
	}
	return report, nil
}

func (fetcher Fetcher) fetchOne(ctx context.Context, batch Batch, name string) Result {
	result := Result{Name: name, Path: filepath.Join(batch.Destination, name)}
	resourceURL, joinError := url.JoinPath(batch.BaseURL, name)
	if joinError != nil {
		return fetcher.fail(result, 0, fmt.Errorf(errorBuildURLFormat, name, joinError))
	}
	result.URL = resourceURL

	if utils.FileExists(result.Path) {
		result.Outcome = OutcomeSkipped
		fetcher.logger.Debug(logMessageSkipped, zap.String(logFieldName, name), zap.String(logFieldPath, result.Path))
		return result
	}

	requestContext, cancel := context.WithTimeout(ctx, fetcher.timeout)
	defer cancel()
	request, requestError := fetcher.buildRequest(requestContext, resourceURL)
	if requestError != nil {
		return fetcher.fail(result, 0, requestError)
	}
	response, responseError := fetcher.client.Do(request)
	if responseError != nil {
		return fetcher.fail(result, 0, responseError)
	}
	defer response.Body.Close()
	if !isSuccessStatus(response.StatusCode) {
		return fetcher.fail(result, response.StatusCode, ErrUnexpectedStatus)
	}

	writtenBytes, storeError := utils.WriteFileAtomically(result.Path, response.Body)
	if storeError != nil {
		return fetcher.fail(result, 0, fmt.Errorf(errorStoreFormat, result.Path, storeError))
	}
	result.Outcome = OutcomeSucceeded
	result.Bytes = writtenBytes
	fetcher.logger.Debug(logMessageSucceeded,
		zap.String(logFieldName, name),
		zap.String(logFieldPath, result.Path),
		zap.Int64(logFieldBytes, writtenBytes),
	)
	return result
}

func (fetcher Fetcher) fail(result Result, statusCode int, cause error) Result {
	result.Outcome = OutcomeFailed
	result.Err = &FetchError{Name: result.Name, URL: result.URL, StatusCode: statusCode, Err: cause}
	fetcher.logger.Warn(logMessageFailed,
		zap.String(logFieldName, result.Name),
		zap.String(logFieldURL, result.URL),
		zap.Error(result.Err),
	)
	return result
}

// GetJSON decodes the JSON body served at resourceURL into target.
func (fetcher Fetcher) GetJSON(ctx context.Context, resourceURL string, target any) error {
	requestContext, cancel := context.WithTimeout(ctx, fetcher.timeout)
	defer cancel()
	request, requestError := fetcher.buildRequest(requestContext, resourceURL)
	if requestError != nil {
		return requestError
	}
	response, responseError := fetcher.client.Do(request)
	if responseError != nil {
		return fmt.Errorf(errorGetJSONFormat, resourceURL, responseError)
	}
	defer response.Body.Close()
	if !isSuccessStatus(response.StatusCode) {
		return fmt.Errorf(errorGetJSONStatus, resourceURL, ErrUnexpectedStatus, response.StatusCode)
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf(errorDecodeJSONFormat, resourceURL, err)
	}
	return nil
}

func (fetcher Fetcher) buildRequest(ctx context.Context, resourceURL string) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf(errorBuildRequestFormat, resourceURL, err)
	}
	request.Header.Set(headerUserAgent, fetcher.userAgent)
	return request, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
