package models

// StreamCommand is a client request on the streaming socket.
type StreamCommand struct {
	Action   string   `json:"action"`
	Symbols  []string `json:"symbols"`
	Interval int      `json:"interval,omitempty"` // seconds, clamped server-side
}

// StreamAck confirms a subscribe/unsubscribe command.
type StreamAck struct {
	Type     string   `json:"type"`
	Symbols  []string `json:"symbols"`
	Interval int      `json:"interval,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// StreamUpdate is pushed to subscribers when a symbol's observed
// (price, change_percent) pair changes.
type StreamUpdate struct {
	Type          string  `json:"type"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"`
}
