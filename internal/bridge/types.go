package bridge

// Message is one unit of data handed from a sending worker to any number of
// readers sharing the same bridge. It is written once and never modified.
type Message struct {
	// Sender is the agent kind that wrote the message.
	Sender string `json:"sender"`

	// Type classifies the payload (e.g. "specification", "code", "result").
	Type string `json:"type"`

	// Timestamp is fractional seconds since the Unix epoch, with
	// microsecond resolution.
	Timestamp float64 `json:"timestamp"`

	// Data is the free-form payload.
	Data any `json:"data"`
}
