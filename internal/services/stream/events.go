// Package stream turns a fetch batch into a channel of progress events so rendering can
// run alongside the sequential downloads.
package stream

import (
	"time"

	"github.com/temirov/sdmap/internal/fetch"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart  EventKind = "start"
	EventKindResult EventKind = "result"
	EventKindDone   EventKind = "done"
)

type Event struct {
	Version   int       `json:"version"`
	Kind      EventKind `json:"kind"`
	Command   string    `json:"command,omitempty"`
	Path      string    `json:"path,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty"`

	Start  *StartEvent   `json:"start,omitempty"`
	Result *fetch.Result `json:"result,omitempty"`
	Done   *DoneEvent    `json:"done,omitempty"`
}

type StartEvent struct {
	BaseURL     string `json:"baseUrl"`
	Destination string `json:"destination"`
	Total       int    `json:"total"`
}

type DoneEvent struct {
	Skipped      int `json:"skipped"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	NotAttempted int `json:"notAttempted"`
}
