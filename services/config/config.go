package config

import (
	"context"
	"encoding/json"
	"errors"

	"relaycode-go/bus"
	"relaycode-go/services/logging"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey struct{}

// CtxDeviceKey is the context key carrying the device ID.
var CtxDeviceKey = ctxKey{}

// WithDevice returns ctx carrying the device ID used to pick the embedded config.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, CtxDeviceKey, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// ConfigService publishes the device's embedded JSON config, one retained
// message per top-level key on config/<key>.
type ConfigService struct {
	Name string
	Log  *logging.Engine // optional
}

func NewConfigService(log *logging.Engine) *ConfigService {
	return &ConfigService{Name: serviceName, Log: log}
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	if s.Log != nil {
		s.Log.Info(logging.FeatureCFG, "published %d config sections for %s", len(m), device)
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil && s.Log != nil {
			s.Log.Error(logging.FeatureCFG, "config not published: %v", err)
		}
	}()
}
