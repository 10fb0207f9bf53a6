package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaycode-go/bus"
	"relaycode-go/errcode"
	"relaycode-go/types"
)

func recvWithin(t *testing.T, sub *bus.Subscription, d time.Duration) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(d):
		t.Fatalf("no message on %v within %v", sub.Topic(), d)
		return nil
	}
}

// waitState returns the first published state that satisfies ok.
func waitState(t *testing.T, sub *bus.Subscription, ok func(types.LogState) bool) types.LogState {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m := recvWithin(t, sub, time.Second)
		st, isState := m.Payload.(types.LogState)
		require.True(t, isState, "payload %T", m.Payload)
		if ok(st) {
			return st
		}
	}
	t.Fatal("state never matched")
	return types.LogState{}
}

func TestRun_ConfigExecAndState(t *testing.T) {
	e := newTestEngine(t, nil)
	b := bus.NewBus(16)
	svc := b.NewConnection("logging")
	client := b.NewConnection("client")
	states := client.Subscribe(TopicState)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, svc, e)
	}()

	st := waitState(t, states, func(s types.LogState) bool { return s.Status == "running" })
	assert.Equal(t, int(DefaultLevel), st.Level)
	assert.Equal(t, "0x01FFFDFF", st.Features)
	assert.Equal(t, types.LogBuffered, st.Mode)

	client.Publish(client.NewMessage(TopicConfig, map[string]any{
		"level":    4,
		"mode":     "direct",
		"enable":   []int{int(FeatureLFS)},
		"commands": []string{"logdelay 7"},
	}, true))
	st = waitState(t, states, func(s types.LogState) bool { return s.Level == 4 })
	assert.Equal(t, types.LogDirect, st.Mode)
	assert.Equal(t, 7, st.DelayMS)
	assert.Equal(t, "0x01FFFFFF", st.Features)

	ctxReq, cancelReq := context.WithTimeout(context.Background(), time.Second)
	defer cancelReq()
	reply, err := client.RequestWait(ctxReq, client.NewMessage(TopicExec, types.LogCommand{Line: "loglevel 12"}, false))
	require.NoError(t, err)
	r, ok := reply.Payload.(types.LogCommandReply)
	require.True(t, ok)
	assert.False(t, r.OK)
	assert.Equal(t, string(errcode.OutOfRange), r.Code)

	reply, err = client.RequestWait(ctxReq, client.NewMessage(TopicExec, "logtype buffered", false))
	require.NoError(t, err)
	r = reply.Payload.(types.LogCommandReply)
	assert.True(t, r.OK)
	waitState(t, states, func(s types.LogState) bool { return s.Mode == types.LogBuffered })

	reply, err = client.RequestWait(ctxReq, client.NewMessage(TopicExec, 42, false))
	require.NoError(t, err)
	assert.Equal(t, string(errcode.InvalidPayload), reply.Payload.(types.LogCommandReply).Code)

	cancel()
	<-done
	waitState(t, states, func(s types.LogState) bool { return s.Status == "stopped" })
}

func TestRun_BadConfigPublishesError(t *testing.T) {
	e := newTestEngine(t, nil)
	b := bus.NewBus(16)
	svc := b.NewConnection("logging")
	client := b.NewConnection("client")
	states := client.Subscribe(TopicState)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, svc, e)

	client.Publish(client.NewMessage(TopicConfig, []byte(`{"level":`), false))
	st := waitState(t, states, func(s types.LogState) bool { return s.Status == "error" })
	assert.Contains(t, st.Error, string(errcode.InvalidPayload))

	client.Publish(client.NewMessage(TopicConfig, `{"level": 11}`, false))
	st = waitState(t, states, func(s types.LogState) bool { return s.Status == "error" })
	assert.Contains(t, st.Error, string(errcode.InvalidParams))
	assert.Equal(t, int(DefaultLevel), st.Level)
}

func TestApplyConfig_Payloads(t *testing.T) {
	lvl := 5
	for name, p := range map[string]any{
		"struct":  types.LogConfig{Level: &lvl},
		"pointer": &types.LogConfig{Level: &lvl},
		"bytes":   []byte(`{"level":5}`),
		"string":  `{"level":5}`,
		"map":     map[string]any{"level": 5.0},
	} {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			require.NoError(t, e.ApplyConfig(p))
			assert.Equal(t, LevelExtraDebug, e.Settings().Level())
		})
	}

	e := newTestEngine(t, nil)
	assert.Equal(t, errcode.InvalidPayload, errcode.Of(e.ApplyConfig(3.14)))
	assert.Equal(t, errcode.Unsupported, errcode.Of(e.ApplyConfig(types.LogConfig{Commands: []string{"nope"}})))
}
