package config

// applyOperationDefaults applies global defaults to operation-specific configuration
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
	if opCfg.MaxOutputTokens == nil {
		opCfg.MaxOutputTokens = &c.AI.MaxOutputTokens
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

func (c *Config) operationConfig(op OperationAIConfig) OperationAIConfig {
	c.applyOperationDefaults(&op)
	return op
}

// GetIngestConfig returns the AI configuration for resume analysis with fallback to global config
func (c *Config) GetIngestConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Ingest)
}

// GetInterviewConfig returns the AI configuration for interview feedback
func (c *Config) GetInterviewConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Interview)
}

// GetChatConfig returns the AI configuration for the career assistant
func (c *Config) GetChatConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Chat)
}

// GetGapConfig returns the AI configuration for skill gap analysis
func (c *Config) GetGapConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Gap)
}

// GetOperationConfig resolves an operation by name. Unknown names get the global settings.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	switch operation {
	case "ingest":
		return c.GetIngestConfig()
	case "interview":
		return c.GetInterviewConfig()
	case "chat":
		return c.GetChatConfig()
	case "gap":
		return c.GetGapConfig()
	default:
		return c.operationConfig(OperationAIConfig{})
	}
}
