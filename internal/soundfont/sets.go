package soundfont

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/temirov/sdmap/internal/fetch"
)

const (
	// DefaultBaseURL hosts the published sample sets and their list.
	DefaultBaseURL = "https://gleitz.github.io/midi-js-soundfonts/FatBoy/"
	// SetListFileName is the JSON array of set names published under the base URL.
	SetListFileName = "names.json"
	// SetDirectorySuffix is appended to a set name to form its directory.
	SetDirectorySuffix = "-mp3"

	errorSetListURLFormat = "build set list URL from %s: %w"
	errorSetURLFormat     = "build URL of set %s: %w"
	errorFetchSetsFormat  = "fetch sample set list: %w"

	errorInvalidSetNameFormat = "invalid set name %q: it must not contain a path separator"
)

// JSONGetter decodes the JSON document served at a URL.
type JSONGetter interface {
	GetJSON(ctx context.Context, resourceURL string, target any) error
}

// SetDirectory returns the directory name of a set, both remote and local.
func SetDirectory(setName string) string {
	return setName + SetDirectorySuffix
}

// SetListURL returns the location of the published set list.
func SetListURL(baseURL string) (string, error) {
	listURL, err := url.JoinPath(baseURL, SetListFileName)
	if err != nil {
		return "", fmt.Errorf(errorSetListURLFormat, baseURL, err)
	}
	return listURL, nil
}

// SetURL returns the directory URL of a set, with a trailing slash.
func SetURL(baseURL string, setName string) (string, error) {
	setURL, err := url.JoinPath(baseURL, SetDirectory(setName)+"/")
	if err != nil {
		return "", fmt.Errorf(errorSetURLFormat, setName, err)
	}
	return setURL, nil
}

// FetchSetNames downloads the published list of set names.
func FetchSetNames(ctx context.Context, getter JSONGetter, baseURL string) ([]string, error) {
	listURL, urlError := SetListURL(baseURL)
	if urlError != nil {
		return nil, urlError
	}
	var setNames []string
	if err := getter.GetJSON(ctx, listURL, &setNames); err != nil {
		return nil, fmt.Errorf(errorFetchSetsFormat, err)
	}
	return setNames, nil
}

// SampleBatch describes the download of every sample of setName into
// <destinationRoot>/<set>-mp3.
func SampleBatch(baseURL string, setName string, destinationRoot string) (fetch.Batch, error) {
	if !IsValidSetName(setName) {
		return fetch.Batch{}, fmt.Errorf(errorInvalidSetNameFormat, setName)
	}
	setURL, err := SetURL(baseURL, setName)
	if err != nil {
		return fetch.Batch{}, err
	}
	if strings.TrimSpace(destinationRoot) == "" {
		destinationRoot = "."
	}
	return fetch.Batch{
		BaseURL:     setURL,
		Names:       SampleNames(),
		Destination: filepath.Join(destinationRoot, SetDirectory(setName)),
	}, nil
}
