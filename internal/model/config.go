package model

// Config is the application configuration, resolved by the CLI from
// flags, LABELGUARD_* environment variables, and the config file.
type Config struct {
	Dictionary  DictionaryConfig  `yaml:"dictionary" mapstructure:"dictionary"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Semantic    SemanticConfig    `yaml:"semantic" mapstructure:"semantic"`
}

// DictionaryConfig locates the rule dictionary
type DictionaryConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`           // Path to the patterns YAML
	CacheTTL int    `yaml:"cache_ttl" mapstructure:"cache_ttl"` // Seconds a validated dictionary stays cached (batch runs)
}

// OutputConfig controls result rendering
type OutputConfig struct {
	Pretty bool `yaml:"pretty" mapstructure:"pretty"` // Indented JSON output
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// SemanticConfig configures the optional SemanticRiskDetector client.
// The deterministic core never reads this; only the CLI wires it in.
type SemanticConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "" disables, "openai" enables
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"` // Prefer OPENAI_API_KEY env
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Dictionary: DictionaryConfig{
			Path:     "dicts/patterns_v1.yaml",
			CacheTTL: 300,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		Semantic: SemanticConfig{
			Provider:          "",
			Model:             "gpt-4o-mini",
			TimeoutSeconds:    30,
			RequestsPerSecond: 1,
			MaxTokens:         2000,
		},
	}
}
