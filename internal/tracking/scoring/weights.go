package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultChannelMultipliers returns the built-in per-channel weights.
// Channels with heavier intent (the scanner tool, the quote builder) weigh
// above the neutral contact form; passive capture weighs below it.
func defaultChannelMultipliers() map[string]float64 {
	return map[string]float64{
		"truth_engine":   1.2,
		"quote_builder":  1.1,
		"contact_form":   1.0,
		"booking_widget": 1.0,
		"exit_intent":    0.8,
		"newsletter":     0.7,
	}
}

// weightsFile is the YAML shape of a channel multiplier override file.
type weightsFile struct {
	ChannelMultipliers map[string]float64 `yaml:"channelMultipliers"`
}

// NewEngineFromFile creates an Engine whose channel multipliers are
// overridden from a YAML file. Channels absent from the file keep their
// defaults. An empty path yields the default engine.
func NewEngineFromFile(path string) (*Engine, error) {
	engine := NewEngine()
	if path == "" {
		return engine, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring weights: %w", err)
	}

	var file weightsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scoring weights: %w", err)
	}

	for channel, multiplier := range file.ChannelMultipliers {
		if multiplier <= 0 {
			return nil, fmt.Errorf("scoring weights: channel %q multiplier must be positive", channel)
		}
		engine.multipliers[channel] = multiplier
	}

	return engine, nil
}
