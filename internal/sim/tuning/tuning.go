// Package tuning loads runtime knobs from configs/tuning.yaml.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickSeconds        float64 `yaml:"tick_seconds"`
	StartMinuteOfDay   int     `yaml:"start_minute_of_day"`
	SnapshotEveryTicks int     `yaml:"snapshot_every_ticks"`

	Path  PathTuning  `yaml:"path"`
	Queue QueueTuning `yaml:"queue"`
}

type PathTuning struct {
	CacheMax      int  `yaml:"cache_max"`
	MaxSearch     int  `yaml:"max_search"`
	AllowDiagonal bool `yaml:"allow_diagonal"`
	EnableJPS     bool `yaml:"enable_jps"`
	Smoothing     bool `yaml:"smoothing"`
	CrossCorners  bool `yaml:"cross_corners"`
}

type QueueTuning struct {
	SampleK int `yaml:"sample_k"`
}

// Defaults mirrors configs/tuning.yaml as shipped.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1",
		TickSeconds:        0.1,
		StartMinuteOfDay:   8 * 60,
		SnapshotEveryTicks: 600,
		Path: PathTuning{
			CacheMax:      4096,
			MaxSearch:     20000,
			AllowDiagonal: true,
			EnableJPS:     true,
			Smoothing:     true,
			CrossCorners:  false,
		},
		Queue: QueueTuning{SampleK: 12},
	}
}

// Load reads path over Defaults, so a partial file only overrides what it
// names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.TickSeconds <= 0 {
		return t, fmt.Errorf("tuning.yaml: tick_seconds must be positive, got %v", t.TickSeconds)
	}
	if t.Queue.SampleK <= 0 {
		return t, fmt.Errorf("tuning.yaml: queue.sample_k must be positive, got %d", t.Queue.SampleK)
	}
	return t, nil
}
