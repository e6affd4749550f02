package config

import (
	"github.com/fsnotify/fsnotify"

	"atscore/internal/aggregator"
	"atscore/internal/errors"
)

// WeightsListener receives validated aggregation weights after a config file change
type WeightsListener func(weights map[string]float64) error

// WatchWeights re-reads scoring.weights whenever the config file changes
// and hands valid ones to apply. Invalid edits are logged and ignored, so the
// running weights stay in effect. It is a no-op without a config file.
func (c *Config) WatchWeights(logger *errors.Logger, apply WeightsListener) bool {
	logger = errors.OrNop(logger)
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		logger.Warn("Config watch requested but no config file is in use")
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		c.reloadWeights(e.Name, logger, apply)
	})
	c.v.WatchConfig()
	logger.Info("Watching config file for weight changes", "file", c.v.ConfigFileUsed())
	return true
}

func (c *Config) reloadWeights(file string, logger *errors.Logger, apply WeightsListener) {
	var weights WeightsConfig
	if err := c.v.UnmarshalKey("scoring.weights", &weights); err != nil {
		logger.LogError(errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to decode weights", err),
			"Ignoring config change", "file", file)
		return
	}

	m := weights.Map()
	if err := aggregator.ValidateWeights(m); err != nil {
		logger.LogError(err, "Ignoring invalid weights from config change", "file", file)
		return
	}
	if err := apply(m); err != nil {
		logger.LogError(err, "Failed to apply reloaded weights", "file", file)
		return
	}
	c.Scoring.Weights = weights
}
