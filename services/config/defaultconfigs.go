package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgRelay = `{
  "log": {
      "level": 3,
      "mode": "buffered",
      "delay_ms": 0,
      "disable": [9]
  },
  "heartbeat": {
      "interval": 10
  }
}`

var embeddedConfigs = map[string][]byte{
	"relay": []byte(cfgRelay),
}
