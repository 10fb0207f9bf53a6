package heartbeat

import (
	"context"
	"time"

	"relaycode-go/bus"
	"relaycode-go/services/logging"
)

var topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}

const DefaultInterval = time.Second

// Service logs a periodic MAIN line so every sink shows the device is alive.
// The interval (seconds) can be changed on config/heartbeat.
type Service struct {
	Log *logging.Engine
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(DefaultInterval)
	defer tick.Stop()

	var beats uint64
	for {
		select {
		case <-ctx.Done():
			s.Log.Info(logging.FeatureMain, "heartbeat service stopping")
			return
		case <-tick.C:
			beats++
			st := s.Log.State().Stats
			s.Log.Info(logging.FeatureMain, "heartbeat %d written=%d dropped=%d tcp=%d",
				beats, st.Written, st.Dropped, st.TCPClients)
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			if iv, ok := interval(msg.Payload); ok {
				tick.Reset(iv)
				s.Log.Info(logging.FeatureMain, "heartbeat interval set to %v", iv)
			} else {
				s.Log.Warn(logging.FeatureMain, "heartbeat config ignored: %v", msg.Payload)
			}
		}
	}
}

// interval reads {"interval": seconds} from a decoded JSON object.
func interval(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m["interval"].(float64)
	if !ok || v <= 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Log == nil {
		s.Log = logging.Default()
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
