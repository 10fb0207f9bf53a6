package types

// ------------------------
// Logging
// ------------------------

// LogMode selects how emitted lines are delivered.
type LogMode string

const (
	LogBuffered LogMode = "buffered" // ring, drained by serial/tcp/http
	LogDirect   LogMode = "direct"   // synchronous serial + raw socket only
)

// LogConfig is supplied on topic "config/log". Zero-valued optional fields
// leave the current setting untouched.
type LogConfig struct {
	Level    *int     `json:"level,omitempty"`
	Features *uint32  `json:"features,omitempty"`
	Mode     LogMode  `json:"mode,omitempty"`
	DelayMS  *int     `json:"delay_ms,omitempty"`
	Enable   []int    `json:"enable,omitempty"`  // feature indices to switch on
	Disable  []int    `json:"disable,omitempty"` // feature indices to switch off
	Commands []string `json:"commands,omitempty"`
}

// LogCommand is a text configuration command sent on "log/control/exec",
// e.g. "loglevel 4" or "logtype direct".
type LogCommand struct {
	Line string `json:"line"`
}

type LogCommandReply struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// LogState is published retained on "log/state".
type LogState struct {
	Status   string   `json:"status"` // "running", "stopped", "error"
	Level    int      `json:"level"`
	Features string   `json:"features"` // hex mask
	Mode     LogMode  `json:"mode"`
	DelayMS  int      `json:"delay_ms"`
	Stats    LogStats `json:"stats"`
	Error    string   `json:"error,omitempty"`
	TsMs     int64    `json:"ts_ms"`
}

type LogStats struct {
	Written      uint64 `json:"written"`   // lines that reached the ring or the direct sinks
	Filtered     uint64 `json:"filtered"`  // lines rejected by level/feature
	Dropped      uint64 `json:"dropped"`   // lines lost to lock timeouts
	RingHead     uint64 `json:"ring_head"` // total bytes ever written to the ring
	SerialLost   uint64 `json:"serial_lost"`
	HTTPLost     uint64 `json:"http_lost"`
	TCPClients   int    `json:"tcp_clients"`
	TCPRejected  uint64 `json:"tcp_rejected"`
	SinkFailures uint64 `json:"sink_failures"`
}
