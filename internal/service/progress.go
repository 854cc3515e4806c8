package service

// Event is one progress notification emitted while a sync pass runs.
// The final event of a pass carries End with no data.
type Event struct {
	Object string `json:"object"`
	Type   string `json:"type,omitempty"`
	Data   any    `json:"data,omitempty"`
	End    bool   `json:"end,omitempty"`
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use; sync units report from parallel goroutines.
type Reporter interface {
	Report(event Event)
}

// NopReporter discards every event. Used by the HTTP handlers, where
// progress has nowhere to go.
type NopReporter struct{}

func (NopReporter) Report(Event) {}

func created(object string, data any) Event {
	return Event{Object: object, Type: "create", Data: data}
}

func finished(object string) Event {
	return Event{Object: object, End: true}
}
