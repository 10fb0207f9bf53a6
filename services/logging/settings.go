// services/logging/settings.go
package logging

import (
	"io"
	"math"
	"sync/atomic"

	"relaycode-go/types"
	"relaycode-go/x/conv"
	"relaycode-go/x/mathx"
)

// Settings is the runtime-mutable part of the engine. Every field is read
// without a lock on the emit path; a concurrent change can at worst affect
// one line.
type Settings struct {
	level    atomic.Int32
	features atomic.Uint32
	direct   atomic.Bool
	delayMS  atomic.Int32
	raw      atomic.Pointer[rawSink]
}

type rawSink struct{ w io.Writer }

func newSettings() *Settings {
	s := &Settings{}
	s.level.Store(int32(DefaultLevel))
	s.features.Store(DefaultFeatures)
	return s
}

func (s *Settings) Level() Level { return Level(s.level.Load()) }

// SetLevel accepts 0..MaxThreshold and reports whether l was applied.
func (s *Settings) SetLevel(l Level) bool {
	if l < LevelNone || l > MaxThreshold {
		return false
	}
	s.level.Store(int32(l))
	return true
}

func (s *Settings) Features() uint32 { return s.features.Load() }

func (s *Settings) SetFeatures(mask uint32) { s.features.Store(mask) }

// SetFeature switches one feature bit and returns the resulting mask.
func (s *Settings) SetFeature(f Feature, on bool) (uint32, bool) {
	if f < 0 || f >= FeatureMax {
		return s.Features(), false
	}
	bit := f.Bit()
	for {
		old := s.features.Load()
		next := old &^ bit
		if on {
			next |= bit
		}
		if s.features.CompareAndSwap(old, next) {
			return next, true
		}
	}
}

// FeaturesHex renders the mask as 0xXXXXXXXX.
func (s *Settings) FeaturesHex() string {
	var b [10]byte
	return string(conv.Hex32(b[:], s.Features()))
}

func (s *Settings) Direct() bool { return s.direct.Load() }

func (s *Settings) SetDirect(on bool) { s.direct.Store(on) }

func (s *Settings) Mode() types.LogMode {
	if s.Direct() {
		return types.LogDirect
	}
	return types.LogBuffered
}

// Delay is the post-emit pause in ms; negative means "derive from line
// length at the serial budget".
func (s *Settings) Delay() int { return int(s.delayMS.Load()) }

// SetDelay stores ms clamped to the int32 range.
func (s *Settings) SetDelay(ms int) {
	s.delayMS.Store(int32(mathx.Clamp(ms, math.MinInt32, math.MaxInt32)))
}

// RawSink is the ad hoc live-tail writer, nil when unset.
func (s *Settings) RawSink() io.Writer {
	if r := s.raw.Load(); r != nil {
		return r.w
	}
	return nil
}

// SetRawSink installs w as the raw sink. nil clears it.
func (s *Settings) SetRawSink(w io.Writer) {
	if w == nil {
		s.raw.Store(nil)
		return
	}
	s.raw.Store(&rawSink{w: w})
}

// Snapshot captures the configurable fields so they can be restored later.
func (s *Settings) Snapshot() types.LogConfig {
	lvl := int(s.Level())
	feat := s.Features()
	delay := s.Delay()
	return types.LogConfig{
		Level:    &lvl,
		Features: &feat,
		Mode:     s.Mode(),
		DelayMS:  &delay,
	}
}

// Restore applies every field present in cfg. Fields are applied in order
// level, features, enable/disable, mode, delay; an invalid level is skipped
// and reported, the remaining fields still apply.
func (s *Settings) Restore(cfg types.LogConfig) bool {
	ok := true
	if cfg.Level != nil && (!validLevel(*cfg.Level) || !s.SetLevel(Level(*cfg.Level))) {
		ok = false
	}
	if cfg.Features != nil {
		s.SetFeatures(*cfg.Features)
	}
	for _, f := range cfg.Enable {
		if !validFeature(f) {
			ok = false
			continue
		}
		s.SetFeature(Feature(f), true)
	}
	for _, f := range cfg.Disable {
		if !validFeature(f) {
			ok = false
			continue
		}
		s.SetFeature(Feature(f), false)
	}
	switch cfg.Mode {
	case types.LogDirect:
		s.SetDirect(true)
	case types.LogBuffered:
		s.SetDirect(false)
	case "":
	default:
		ok = false
	}
	if cfg.DelayMS != nil {
		s.SetDelay(*cfg.DelayMS)
	}
	return ok
}

// validLevel and validFeature check plain ints before they are narrowed
// to the 32-bit Level and Feature types.
func validLevel(v int) bool { return mathx.Between(v, int(LevelNone), int(MaxThreshold)) }

func validFeature(v int) bool { return mathx.Between(v, 0, int(FeatureMax)-1) }
