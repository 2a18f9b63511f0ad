package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type requestRecorder struct {
	mutex sync.Mutex
	paths []string
}

func (recorder *requestRecorder) record(path string) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.paths = append(recorder.paths, path)
}

func (recorder *requestRecorder) snapshot() []string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]string(nil), recorder.paths...)
}

func newSampleServer(t *testing.T, recorder *requestRecorder, missing ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorder.record(request.URL.Path)
		for _, missingName := range missing {
			if strings.HasSuffix(request.URL.Path, "/"+missingName) {
				http.NotFound(writer, request)
				return
			}
		}
		_, _ = writer.Write([]byte("sample:" + filepath.Base(request.URL.Path)))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunDownloadsEveryName(t *testing.T) {
	recorder := &requestRecorder{}
	server := newSampleServer(t, recorder)
	destination := filepath.Join(t.TempDir(), "piano-mp3")

	batch := Batch{BaseURL: server.URL + "/FatBoy/piano-mp3/", Names: []string{"C0.mp3", "Db0.mp3"}, Destination: destination}
	report, err := NewFetcher(server.Client()).Run(context.Background(), batch, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", report)
	}
	expectedPaths := []string{"/FatBoy/piano-mp3/C0.mp3", "/FatBoy/piano-mp3/Db0.mp3"}
	if paths := recorder.snapshot(); !reflect.DeepEqual(paths, expectedPaths) {
		t.Fatalf("expected requests %v, got %v", expectedPaths, paths)
	}
	content, readError := os.ReadFile(filepath.Join(destination, "Db0.mp3"))
	if readError != nil {
		t.Fatalf("read sample: %v", readError)
	}
	if string(content) != "sample:Db0.mp3" {
		t.Fatalf("unexpected content %q", string(content))
	}
	if report.Results[1].Bytes != int64(len(content)) {
		t.Fatalf("expected %d bytes reported, got %d", len(content), report.Results[1].Bytes)
	}
}

func TestRunSkipsExistingFilesWithoutRequests(t *testing.T) {
	recorder := &requestRecorder{}
	server := newSampleServer(t, recorder)
	destination := t.TempDir()
	existingPath := filepath.Join(destination, "C0.mp3")
	if err := os.WriteFile(existingPath, []byte("local"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	batch := Batch{BaseURL: server.URL, Names: []string{"C0.mp3", "D0.mp3"}, Destination: destination}
	report, err := NewFetcher(server.Client()).Run(context.Background(), batch, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Skipped != 1 || report.Succeeded != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.Results[0].Outcome != OutcomeSkipped {
		t.Fatalf("expected first item skipped, got %s", report.Results[0].Outcome)
	}
	if paths := recorder.snapshot(); !reflect.DeepEqual(paths, []string{"/D0.mp3"}) {
		t.Fatalf("expected only D0.mp3 requested, got %v", paths)
	}
	content, _ := os.ReadFile(existingPath)
	if string(content) != "local" {
		t.Fatalf("expected existing file untouched, got %q", string(content))
	}
}

func TestRunContinuesAfterFailures(t *testing.T) {
	recorder := &requestRecorder{}
	server := newSampleServer(t, recorder, "E0.mp3")
	destination := t.TempDir()

	batch := Batch{BaseURL: server.URL, Names: []string{"D0.mp3", "E0.mp3", "F0.mp3"}, Destination: destination}
	report, err := NewFetcher(server.Client()).Run(context.Background(), batch, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Name != "E0.mp3" {
		t.Fatalf("unexpected failures %+v", failures)
	}
	var fetchError *FetchError
	if !errors.As(failures[0].Err, &fetchError) || fetchError.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 FetchError, got %v", failures[0].Err)
	}
	if !errors.Is(failures[0].Err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", failures[0].Err)
	}
	if _, statError := os.Stat(filepath.Join(destination, "E0.mp3")); !os.IsNotExist(statError) {
		t.Fatalf("expected no file for failed fetch, got %v", statError)
	}
	if _, statError := os.Stat(filepath.Join(destination, "F0.mp3")); statError != nil {
		t.Fatalf("expected F0.mp3 fetched after failure: %v", statError)
	}
}

func TestRunAppliesPerItemTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if strings.HasSuffix(request.URL.Path, "slow.mp3") {
			select {
			case <-request.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = writer.Write([]byte("fast"))
	}))
	t.Cleanup(server.Close)
	destination := t.TempDir()

	fetcher := NewFetcher(server.Client()).WithTimeout(50 * time.Millisecond)
	batch := Batch{BaseURL: server.URL, Names: []string{"slow.mp3", "fast.mp3"}, Destination: destination}
	report, err := fetcher.Run(context.Background(), batch, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Results[0].Outcome != OutcomeFailed {
		t.Fatalf("expected slow item to fail, got %s", report.Results[0].Outcome)
	}
	if !errors.Is(report.Results[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", report.Results[0].Err)
	}
	if report.Results[1].Outcome != OutcomeSucceeded {
		t.Fatalf("expected fast item to succeed, got %s", report.Results[1].Outcome)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	recorder := &requestRecorder{}
	server := newSampleServer(t, recorder)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batch := Batch{BaseURL: server.URL, Names: []string{"A0.mp3", "B0.mp3", "C1.mp3"}, Destination: t.TempDir()}
	observed := 0
	report, err := NewFetcher(server.Client()).Run(ctx, batch, func(result Result) error {
		observed++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if observed != 1 {
		t.Fatalf("expected one observed result, got %d", observed)
	}
	if !reflect.DeepEqual(report.NotAttempted, []string{"B0.mp3", "C1.mp3"}) {
		t.Fatalf("unexpected not attempted %v", report.NotAttempted)
	}
	if report.Total() != 3 {
		t.Fatalf("expected total of 3, got %d", report.Total())
	}
}

func TestRunStopsWhenObserverFails(t *testing.T) {
	recorder := &requestRecorder{}
	server := newSampleServer(t, recorder)
	observerError := errors.New("render failed")

	batch := Batch{BaseURL: server.URL, Names: []string{"A0.mp3", "B0.mp3"}, Destination: t.TempDir()}
	report, err := NewFetcher(server.Client()).Run(context.Background(), batch, func(Result) error {
		return observerError
	})
	if !errors.Is(err, observerError) {
		t.Fatalf("expected observer error, got %v", err)
	}
	if !reflect.DeepEqual(report.NotAttempted, []string{"B0.mp3"}) {
		t.Fatalf("unexpected not attempted %v", report.NotAttempted)
	}
}

func TestRunValidatesBatch(t *testing.T) {
	testCases := []struct {
		name     string
		batch    Batch
		expected error
	}{
		{name: "missing base", batch: Batch{Destination: "out"}, expected: errMissingBaseURL},
		{name: "missing destination", batch: Batch{BaseURL: "http://example.com"}, expected: errMissingDestination},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewFetcher(nil).Run(context.Background(), testCase.batch, nil)
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestFetcherSendsUserAgent(t *testing.T) {
	var receivedAgent string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedAgent = request.Header.Get(headerUserAgent)
		_, _ = writer.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	var names []string
	if err := NewFetcher(server.Client()).WithUserAgent("custom-agent").GetJSON(context.Background(), server.URL, &names); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if receivedAgent != "custom-agent" {
		t.Fatalf("expected custom user agent, got %q", receivedAgent)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/names.json":
			_, _ = writer.Write([]byte(`["accordion","acoustic_bass"]`))
		case "/broken.json":
			_, _ = writer.Write([]byte(`{`))
		default:
			http.Error(writer, "gone", http.StatusGone)
		}
	}))
	t.Cleanup(server.Close)
	fetcher := NewFetcher(server.Client())

	var names []string
	if err := fetcher.GetJSON(context.Background(), server.URL+"/names.json", &names); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"accordion", "acoustic_bass"}) {
		t.Fatalf("unexpected names %v", names)
	}
	if err := fetcher.GetJSON(context.Background(), server.URL+"/missing.json", &names); !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	if err := fetcher.GetJSON(context.Background(), server.URL+"/broken.json", &names); err == nil {
		t.Fatalf("expected decode error")
	}
}
