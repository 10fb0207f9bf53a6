// services/logging/service.go
package logging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"relaycode-go/bus"
	"relaycode-go/errcode"
	"relaycode-go/types"
	"relaycode-go/x/timex"
)

var (
	TopicConfig = bus.Topic{"config", "log"}
	TopicExec   = bus.Topic{"log", "control", "exec"}
	TopicState  = bus.Topic{"log", "state"}
)

// StateEvery is how often Run republishes log/state so counters stay fresh.
const StateEvery = 5 * time.Second

// Run exposes eng on the bus until ctx ends: settings arrive on config/log,
// text commands on log/control/exec, and the current state is kept retained
// on log/state.
func Run(ctx context.Context, conn *bus.Connection, eng *Engine) {
	cfgSub := conn.Subscribe(TopicConfig)
	defer conn.Unsubscribe(cfgSub)
	execSub := conn.Subscribe(TopicExec)
	defer conn.Unsubscribe(execSub)

	publishState(conn, eng, "running", nil)

	tick := time.NewTicker(StateEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			publishState(conn, eng, "stopped", nil)
			return
		case <-tick.C:
			publishState(conn, eng, "running", nil)
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				publishState(conn, eng, "error", errors.New("config subscription closed"))
				return
			}
			if err := eng.ApplyConfig(msg.Payload); err != nil {
				eng.Warn(FeatureCFG, "log config rejected: %v", err)
				publishState(conn, eng, "error", err)
				continue
			}
			publishState(conn, eng, "running", nil)
		case msg, ok := <-execSub.Channel():
			if !ok {
				publishState(conn, eng, "error", errors.New("exec subscription closed"))
				return
			}
			reply := execReply(eng, msg.Payload)
			conn.Reply(msg, reply, false)
			if reply.OK {
				publishState(conn, eng, "running", nil)
			}
		}
	}
}

// ApplyConfig decodes a types.LogConfig payload (JSON bytes or string, a
// decoded map, or the struct itself), applies its settings and then runs
// its commands in order. Every part is attempted; the first failure is
// returned.
func (e *Engine) ApplyConfig(p any) error {
	cfg, err := decodeConfig(p)
	if err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "config", err.Error(), err)
	}
	var first error
	if !e.settings.Restore(cfg) {
		first = errcode.Wrap(errcode.InvalidParams, "config", "invalid field", nil)
	}
	for _, line := range cfg.Commands {
		if err := e.Exec(line); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func execReply(eng *Engine, p any) types.LogCommandReply {
	var line string
	switch v := p.(type) {
	case types.LogCommand:
		line = v.Line
	case *types.LogCommand:
		if v != nil {
			line = v.Line
		}
	case string:
		line = v
	default:
		err := errcode.Wrap(errcode.InvalidPayload, "exec", fmt.Sprintf("%T", p), nil)
		return types.LogCommandReply{Code: string(errcode.InvalidPayload), Error: err.Error()}
	}
	if err := eng.Exec(line); err != nil {
		return types.LogCommandReply{Code: string(errcode.Of(err)), Error: err.Error()}
	}
	return types.LogCommandReply{OK: true, Code: string(errcode.OK)}
}

func decodeConfig(p any) (types.LogConfig, error) {
	var cfg types.LogConfig
	switch v := p.(type) {
	case types.LogConfig:
		return v, nil
	case *types.LogConfig:
		if v == nil {
			return cfg, errors.New("nil config")
		}
		return *v, nil
	case []byte:
		if err := json.Unmarshal(v, &cfg); err != nil {
			return cfg, err
		}
	case string:
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return cfg, err
		}
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config payload type: %T", p)
	}
	return cfg, nil
}

// State reports the current settings and counters.
func (e *Engine) State() types.LogState {
	s := e.settings
	rs := e.ring.Stats()
	st := types.LogState{
		Level:    int(s.Level()),
		Features: s.FeaturesHex(),
		Mode:     s.Mode(),
		DelayMS:  s.Delay(),
		Stats: types.LogStats{
			Written:      e.stats.written.Load(),
			Filtered:     e.stats.filtered.Load(),
			Dropped:      e.stats.dropped.Load(),
			RingHead:     rs.Head,
			SerialLost:   rs.Cursors[cursorSerial].Lost,
			HTTPLost:     rs.Cursors[cursorHTTP].Lost,
			TCPClients:   e.TCPClients(),
			TCPRejected:  e.stats.tcpRejected.Load(),
			SinkFailures: e.stats.sinkFailures.Load(),
		},
		TsMs: timex.NowMs(),
	}
	return st
}

func publishState(conn *bus.Connection, eng *Engine, status string, err error) {
	st := eng.State()
	st.Status = status
	if err != nil {
		st.Error = err.Error()
	}
	conn.Publish(conn.NewMessage(TopicState, st, true))
}
