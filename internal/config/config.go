package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrConfig marks configuration that must stop a run before it begins.
var ErrConfig = errors.New("invalid configuration")

// Thresholds controls the tiered merge decision. The ordering invariant
// AutoMerge > AIDecision > Similarity is enforced by Validate.
type Thresholds struct {
	Similarity float64 `toml:"similarity"`  // corpus-level candidate cutoff
	AIDecision float64 `toml:"ai_decision"` // at or above: ask the advisory LLM
	AutoMerge  float64 `toml:"auto_merge"`  // at or above: merge without asking
}

type Paths struct {
	QuarantineDir string `toml:"quarantine_dir"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type ScrubConfig struct {
	NoteKeywords []string `toml:"note_keywords"` // notes containing one of these survive
	EmailDomains []string `toml:"email_domains"` // emails under these domains are dropped
}

type Config struct {
	Thresholds Thresholds  `toml:"thresholds"`
	Paths      Paths       `toml:"paths"`
	LLM        LLMConfig   `toml:"llm"`
	Scrub      ScrubConfig `toml:"scrub"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			Similarity: 0.7,
			AIDecision: 0.8,
			AutoMerge:  0.95,
		},
		Paths: Paths{
			QuarantineDir: "merged_vcards",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Scrub: ScrubConfig{
			EmailDomains: []string{"facebook.com"},
		},
	}
}

// Load reads a TOML config file, layering it over the defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the threshold ordering and required settings.
func (c *Config) Validate() error {
	t := c.Thresholds
	for name, v := range map[string]float64{
		"similarity":  t.Similarity,
		"ai_decision": t.AIDecision,
		"auto_merge":  t.AutoMerge,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%w: threshold %s = %v, want a value in (0, 1)", ErrConfig, name, v)
		}
	}
	if !(t.AutoMerge > t.AIDecision && t.AIDecision > t.Similarity) {
		return fmt.Errorf("%w: thresholds must satisfy auto_merge > ai_decision > similarity, got %v > %v > %v",
			ErrConfig, t.AutoMerge, t.AIDecision, t.Similarity)
	}
	if c.Paths.QuarantineDir == "" {
		return fmt.Errorf("%w: paths.quarantine_dir is required", ErrConfig)
	}
	return nil
}
