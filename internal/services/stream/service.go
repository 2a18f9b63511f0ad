package stream

import (
	"context"
	"errors"
	"time"

	"github.com/temirov/sdmap/internal/fetch"
	"github.com/temirov/sdmap/internal/types"
)

var errNilChannel = errors.New("stream: event channel is nil")

// BatchRunner runs a fetch batch, reporting each result to observe.
type BatchRunner interface {
	Run(ctx context.Context, batch fetch.Batch, observe fetch.Observer) (fetch.Report, error)
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return errNilChannel
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

// StreamFetch runs batch with runner and emits a start event, one result event per
// handled name and a done event. The report is returned even when the batch stops
// early, so callers can summarize partial work.
func StreamFetch(ctx context.Context, runner BatchRunner, batch fetch.Batch, out chan<- Event) (fetch.Report, error) {
	emitter := newEmitter(ctx, out, types.CommandFetch)
	if err := emitter.send(Event{
		Kind:  EventKindStart,
		Path:  batch.Destination,
		Start: &StartEvent{BaseURL: batch.BaseURL, Destination: batch.Destination, Total: len(batch.Names)},
	}); err != nil {
		return fetch.Report{NotAttempted: append([]string(nil), batch.Names...)}, err
	}

	report, runErr := runner.Run(ctx, batch, func(result fetch.Result) error {
		return emitter.send(Event{Kind: EventKindResult, Path: result.Path, Result: &result})
	})
	if runErr != nil {
		return report, runErr
	}

	doneErr := emitter.send(Event{
		Kind: EventKindDone,
		Path: batch.Destination,
		Done: &DoneEvent{
			Skipped:      report.Skipped,
			Succeeded:    report.Succeeded,
			Failed:       report.Failed,
			NotAttempted: len(report.NotAttempted),
		},
	})
	return report, doneErr
}
