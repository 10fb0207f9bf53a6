// services/logging/levels.go
package logging

import "relaycode-go/x/conv"

// Level is the severity of a line. A line is admitted when its level is
// <= the configured threshold, so ALL and anything above admits everything.
type Level int32

const (
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelExtraDebug
	LevelAll
)

// MaxThreshold is the highest threshold accepted by the loglevel command.
const MaxThreshold Level = 9

// Prefix strings. Order must match the Level constants.
var levelNames = [...]string{
	LevelNone:       "NONE:",
	LevelError:      "Error:",
	LevelWarn:       "Warn:",
	LevelInfo:       "Info:",
	LevelDebug:      "Debug:",
	LevelExtraDebug: "ExtraDebug:",
	LevelAll:        "All:",
}

// Prefix returns the rendered prefix, or "" outside the table.
func (l Level) Prefix() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return ""
}

func (l Level) String() string {
	if p := l.Prefix(); p != "" {
		return p[:len(p)-1]
	}
	return "Level(" + itoa(int(l)) + ")"
}

// Feature tags a line with the subsystem that produced it. Each feature is
// one bit in the feature mask.
type Feature int32

const (
	FeatureHTTP Feature = iota
	FeatureMQTT
	FeatureCFG
	FeatureHTTPClient
	FeatureOTA
	FeaturePins
	FeatureMain
	FeatureGen
	FeatureAPI
	FeatureLFS
	FeatureCmd
	FeatureNTP
	FeatureTuyaMCU
	FeatureI2C
	FeatureEnergyMeter
	FeatureEvent
	FeatureDGR
	FeatureDDP
	FeatureRaw // no prefix at all
	FeatureHASS
	FeatureIR
	FeatureMax
)

var featureNames = [...]string{
	FeatureHTTP:        "HTTP:",
	FeatureMQTT:        "MQTT:",
	FeatureCFG:         "CFG:",
	FeatureHTTPClient:  "HTTP_CLIENT:",
	FeatureOTA:         "OTA:",
	FeaturePins:        "PINS:",
	FeatureMain:        "MAIN:",
	FeatureGen:         "GEN:",
	FeatureAPI:         "API:",
	FeatureLFS:         "LFS:",
	FeatureCmd:         "CMD:",
	FeatureNTP:         "NTP:",
	FeatureTuyaMCU:     "TuyaMCU:",
	FeatureI2C:         "I2C:",
	FeatureEnergyMeter: "EnergyMeter:",
	FeatureEvent:       "EVENT:",
	FeatureDGR:         "DGR:",
	FeatureDDP:         "DDP:",
	FeatureRaw:         "RAW:",
	FeatureHASS:        "HASS:",
	FeatureIR:          "IR:",
}

// Prefix returns the rendered prefix, or "" for unknown features.
func (f Feature) Prefix() string {
	if f >= 0 && int(f) < len(featureNames) {
		return featureNames[f]
	}
	return ""
}

func (f Feature) String() string {
	if p := f.Prefix(); p != "" {
		return p[:len(p)-1]
	}
	return "Feature(" + itoa(int(f)) + ")"
}

// Bit is the mask bit for f, 0 when f cannot be represented.
func (f Feature) Bit() uint32 {
	if f < 0 || f >= 32 {
		return 0
	}
	return 1 << uint(f)
}

// DefaultFeatures enables bits 0..24 except the filesystem feature.
const DefaultFeatures uint32 = (1<<25 - 1) &^ (1 << FeatureLFS)

const DefaultLevel = LevelInfo

func itoa(i int) string {
	var b [20]byte
	return string(conv.Itoa(b[:], int64(i)))
}
