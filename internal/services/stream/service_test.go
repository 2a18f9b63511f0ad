package stream

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/temirov/sdmap/internal/fetch"
)

type stubRunner struct {
	results []fetch.Result
}

func (runner stubRunner) Run(ctx context.Context, batch fetch.Batch, observe fetch.Observer) (fetch.Report, error) {
	var report fetch.Report
	for index, result := range runner.results {
		report.Results = append(report.Results, result)
		if result.Outcome == fetch.OutcomeSucceeded {
			report.Succeeded++
		}
		if result.Outcome == fetch.OutcomeSkipped {
			report.Skipped++
		}
		if err := observe(result); err != nil {
			report.NotAttempted = append([]string(nil), batch.Names[index+1:]...)
			return report, err
		}
	}
	return report, nil
}

func collectEvents(t *testing.T, runner BatchRunner, batch fetch.Batch) ([]Event, fetch.Report, error) {
	t.Helper()
	events := make(chan Event, 16)
	report, err := StreamFetch(context.Background(), runner, batch, events)
	close(events)
	var collected []Event
	for event := range events {
		collected = append(collected, event)
	}
	return collected, report, err
}

func TestStreamFetchEmitsStartResultsAndDone(t *testing.T) {
	runner := stubRunner{results: []fetch.Result{
		{Name: "C0.mp3", Outcome: fetch.OutcomeSkipped},
		{Name: "Db0.mp3", Outcome: fetch.OutcomeSucceeded},
	}}
	batch := fetch.Batch{BaseURL: "http://example.com/", Names: []string{"C0.mp3", "Db0.mp3"}, Destination: "out"}

	events, report, err := collectEvents(t, runner, batch)
	if err != nil {
		t.Fatalf("StreamFetch error: %v", err)
	}
	var kinds []EventKind
	for _, event := range events {
		kinds = append(kinds, event.Kind)
		if event.Version != SchemaVersion || event.Command != "fetch" || event.EmittedAt.IsZero() {
			t.Fatalf("event metadata not populated: %+v", event)
		}
	}
	expectedKinds := []EventKind{EventKindStart, EventKindResult, EventKindResult, EventKindDone}
	if !reflect.DeepEqual(kinds, expectedKinds) {
		t.Fatalf("expected kinds %v, got %v", expectedKinds, kinds)
	}
	if events[0].Start.Total != 2 {
		t.Fatalf("expected total 2, got %d", events[0].Start.Total)
	}
	if events[2].Result.Name != "Db0.mp3" {
		t.Fatalf("unexpected result order: %s", events[2].Result.Name)
	}
	if events[3].Done.Succeeded != 1 || events[3].Done.Skipped != 1 || report.Succeeded != 1 {
		t.Fatalf("unexpected done counts %+v", events[3].Done)
	}
}

func TestStreamFetchStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := stubRunner{results: []fetch.Result{{Name: "C0.mp3", Outcome: fetch.OutcomeSucceeded}}}
	batch := fetch.Batch{BaseURL: "http://example.com/", Names: []string{"C0.mp3"}, Destination: "out"}

	report, err := StreamFetch(ctx, runner, batch, make(chan Event))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !reflect.DeepEqual(report.NotAttempted, []string{"C0.mp3"}) {
		t.Fatalf("expected every name not attempted, got %v", report.NotAttempted)
	}
}

func TestStreamFetchRejectsNilChannel(t *testing.T) {
	_, err := StreamFetch(context.Background(), stubRunner{}, fetch.Batch{}, nil)
	if !errors.Is(err, errNilChannel) {
		t.Fatalf("expected nil channel error, got %v", err)
	}
}
