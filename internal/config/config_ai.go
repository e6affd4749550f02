package config

// applyOperationDefaults fills unset operation values from the global AI configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
	if opCfg.CustomPrompts.SystemPrompt == "" {
		opCfg.CustomPrompts.SystemPrompt = c.AI.CustomPrompts.SystemPrompt
	}
	if opCfg.CustomPrompts.UserPrompt == "" {
		opCfg.CustomPrompts.UserPrompt = c.AI.CustomPrompts.UserPrompt
	}
}

// GetSuggestConfig returns the AI configuration for enhanced feedback with fallback to global config
func (c *Config) GetSuggestConfig() OperationAIConfig {
	config := c.AI.Suggest
	c.applyOperationDefaults(&config)
	return config
}

// GetSimilarityConfig returns the AI configuration for embedding similarity with fallback to global config
func (c *Config) GetSimilarityConfig() OperationAIConfig {
	config := c.AI.Similarity
	c.applyOperationDefaults(&config)
	return config
}

// LLMFeedbackAvailable reports whether enhanced feedback can be served
// without a per-request key
func (c *Config) LLMFeedbackAvailable() bool {
	return c.GetSuggestConfig().APIKey != ""
}
