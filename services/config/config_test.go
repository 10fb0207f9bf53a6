// config/config_test.go
package config

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaycode-go/bus"
	"relaycode-go/services/logging"
)

func quietEngine() *logging.Engine {
	opts := logging.DefaultOptions()
	opts.TCPAddr = ""
	opts.Serial = io.Discard
	opts.Diag = io.Discard
	return logging.New(opts)
}

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "relay" {
			return nil, false
		}
		return []byte(`{
			"log": {"level": 4, "mode": "direct"},
			"heartbeat": {"interval": 2},
			"debug": true
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(quietEngine())

	svc.Start(WithDevice(context.Background(), "relay"), conn)

	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			require.Len(t, m.Topic, 2)
			assert.Equal(t, configPrefix, m.Topic[0])
			key, ok := m.Topic[1].(string)
			require.True(t, ok, "topic[1] type %T", m.Topic[1])
			assert.True(t, m.Retained)
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.Len(t, got, 3)

	logCfg, ok := got["log"].(map[string]any)
	require.True(t, ok, "log payload %T", got["log"])
	assert.Equal(t, "direct", logCfg["mode"])
	assert.Equal(t, float64(4), logCfg["level"])

	hb, ok := got["heartbeat"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), hb["interval"])
	assert.Equal(t, true, got["debug"])
}

func TestConfig_EmbeddedRelayConfigAppliesToEngine(t *testing.T) {
	raw, ok := EmbeddedConfigLookup("relay")
	require.True(t, ok)

	b := bus.NewBus(8)
	conn := b.NewConnection("test-relay")
	svc := NewConfigService(nil)
	require.NoError(t, svc.publishConfig(WithDevice(context.Background(), "relay"), conn))
	require.NotEmpty(t, raw)

	sub := conn.Subscribe(bus.Topic{configPrefix, "log"})
	select {
	case m := <-sub.Channel():
		eng := quietEngine()
		require.NoError(t, eng.ApplyConfig(m.Payload))
		assert.Equal(t, logging.LevelInfo, eng.Settings().Level())
		assert.Zero(t, eng.Settings().Features()&logging.FeatureLFS.Bit())
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no retained config/log")
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService(nil)

	assert.Error(t, svc.publishConfig(context.Background(), conn))
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService(nil)

	assert.Error(t, svc.publishConfig(WithDevice(context.Background(), "unknown-device"), conn))
}

func TestConfig_PublishConfig_NotAnObject(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return []byte(`[1,2]`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-array")
	svc := NewConfigService(nil)

	assert.Error(t, svc.publishConfig(WithDevice(context.Background(), "relay"), conn))
}
