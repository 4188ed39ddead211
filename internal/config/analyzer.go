package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// agentEnv maps per-tier environment variable names onto a go-agents AgentConfig.
type agentEnv struct {
	ProviderName string
	BaseURL      string
	Token        string
	Deployment   string
	APIVersion   string
	AuthType     string
	ModelName    string
}

var proEnv = &agentEnv{
	ProviderName: "DFS_AGENT_PRO_PROVIDER_NAME",
	BaseURL:      "DFS_AGENT_PRO_BASE_URL",
	Token:        "DFS_AGENT_PRO_TOKEN",
	Deployment:   "DFS_AGENT_PRO_DEPLOYMENT",
	APIVersion:   "DFS_AGENT_PRO_API_VERSION",
	AuthType:     "DFS_AGENT_PRO_AUTH_TYPE",
	ModelName:    "DFS_AGENT_PRO_MODEL_NAME",
}

var flashEnv = &agentEnv{
	ProviderName: "DFS_AGENT_FLASH_PROVIDER_NAME",
	BaseURL:      "DFS_AGENT_FLASH_BASE_URL",
	Token:        "DFS_AGENT_FLASH_TOKEN",
	Deployment:   "DFS_AGENT_FLASH_DEPLOYMENT",
	APIVersion:   "DFS_AGENT_FLASH_API_VERSION",
	AuthType:     "DFS_AGENT_FLASH_AUTH_TYPE",
	ModelName:    "DFS_AGENT_FLASH_MODEL_NAME",
}

const (
	EnvAnalyzerMaxRetries  = "DFS_ANALYZER_MAX_RETRIES"
	EnvAnalyzerBackoffBase = "DFS_ANALYZER_BACKOFF_BASE"
)

// AnalyzerConfig holds the vision agent configuration for both model tiers
// plus the retry parameters for analysis invocations. The "pro" tier is the
// primary model; "flash" is the fallback once quota pressure forces a
// downgrade.
type AnalyzerConfig struct {
	Pro         gaconfig.AgentConfig `toml:"pro"`
	Flash       gaconfig.AgentConfig `toml:"flash"`
	MaxRetries  int                  `toml:"max_retries"`
	BackoffBase string               `toml:"backoff_base"`
}

// BackoffBaseDuration returns BackoffBase as a time.Duration.
func (c *AnalyzerConfig) BackoffBaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackoffBase)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// to both agent tiers and the retry parameters.
func (c *AnalyzerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := finalizeAgent(&c.Pro, proEnv); err != nil {
		return fmt.Errorf("pro agent: %w", err)
	}
	if err := finalizeAgent(&c.Flash, flashEnv); err != nil {
		return fmt.Errorf("flash agent: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalyzerConfig) Merge(overlay *AnalyzerConfig) {
	c.Pro.Merge(&overlay.Pro)
	c.Flash.Merge(&overlay.Flash)

	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.BackoffBase != "" {
		c.BackoffBase = overlay.BackoffBase
	}
}

func (c *AnalyzerConfig) loadDefaults() {
	if c.Pro.Name == "" {
		c.Pro.Name = "sentinel-pro"
	}
	if c.Flash.Name == "" {
		c.Flash.Name = "sentinel-flash"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.BackoffBase == "" {
		c.BackoffBase = "500ms"
	}
}

func (c *AnalyzerConfig) loadEnv() {
	if v := os.Getenv(EnvAnalyzerMaxRetries); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = retries
		}
	}
	if v := os.Getenv(EnvAnalyzerBackoffBase); v != "" {
		c.BackoffBase = v
	}
}

func (c *AnalyzerConfig) validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries: %d", c.MaxRetries)
	}
	if _, err := time.ParseDuration(c.BackoffBase); err != nil {
		return fmt.Errorf("invalid backoff_base: %w", err)
	}
	return nil
}

// finalizeAgent applies the three-phase finalize pattern to a go-agents
// AgentConfig: defaults from go-agents DefaultAgentConfig, environment
// variable overrides, and validation.
func finalizeAgent(c *gaconfig.AgentConfig, env *agentEnv) error {
	loadAgentDefaults(c)
	loadAgentEnv(c, env)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig, env *agentEnv) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(env.ProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(env.BaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(env.ModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(env.Token, "token")
	setOption(env.Deployment, "deployment")
	setOption(env.APIVersion, "api_version")
	setOption(env.AuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
