// Package config loads a search configuration file and builds the components it describes.
//
// Components are written as records: a map whose "type" key selects a factory and whose
// other keys are that factory's parameters.
//
//	start_model: decomp
//	models:
//	  decomp: {type: decomp_control, decomp_model: gen, qa_model: qa}
//	early_stopping:
//	  - {type: max_search_depth, max_search_depth: 20}
//	store: {type: file, path: .recoma/results}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is a component description: {type: <name>, ...params}.
type Record = map[string]any

// Config is the on-disk configuration of a search.
type Config struct {
	StartModel    string            `yaml:"start_model" json:"start_model" validate:"required"`
	Models        map[string]Record `yaml:"models" json:"models" validate:"required,min=1,dive,required"`
	Search        Search            `yaml:"search" json:"search"`
	EarlyStopping []Record          `yaml:"early_stopping" json:"early_stopping,omitempty" validate:"dive,required"`
	Answerer      Record            `yaml:"answerer" json:"answerer,omitempty"`
	Renderers     []Record          `yaml:"renderers" json:"renderers,omitempty" validate:"dive,required"`
	Reader        Record            `yaml:"reader" json:"reader,omitempty"`
	Store         Store             `yaml:"store" json:"store"`
	Tools         Tools             `yaml:"tools" json:"tools"`
	Workers       int               `yaml:"workers" json:"workers,omitempty" validate:"gte=0"`
	RateLimit     float64           `yaml:"rate_limit" json:"rate_limit,omitempty" validate:"gte=0"`
}

// Search holds loop-level settings.
type Search struct {
	// MaxSearchIters is the hard iteration cap. Zero keeps the engine default.
	MaxSearchIters int `yaml:"max_search_iters" json:"max_search_iters,omitempty" validate:"gte=0"`
}

// Store selects where results are persisted. An empty Type disables persistence.
type Store struct {
	Type     string `yaml:"type" json:"type,omitempty" validate:"omitempty,oneof=memory file redis badger"`
	Path     string `yaml:"path" json:"path,omitempty"`
	Address  string `yaml:"address" json:"address,omitempty" validate:"required_if=Type redis"`
	Password string `yaml:"password" json:"password,omitempty"`
	DB       int    `yaml:"db" json:"db,omitempty" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix,omitempty"`
	TTL      string `yaml:"ttl" json:"ttl,omitempty"`
	InMemory bool   `yaml:"in_memory" json:"in_memory,omitempty"`

	// EncryptionKeyEnv names an environment variable holding a base64 AES-256 key.
	// When set, results are stored encrypted.
	EncryptionKeyEnv string `yaml:"encryption_key_env" json:"encryption_key_env,omitempty"`
	// FallbackKeyEnvs name older keys still accepted for decryption.
	FallbackKeyEnvs []string `yaml:"fallback_key_envs" json:"fallback_key_envs,omitempty"`
	// Redact masks Task.Extra values whose keys match these expressions.
	Redact []string `yaml:"redact" json:"redact,omitempty"`
}

// Tools configures external generator processes.
type Tools struct {
	// File lists allow-listed commands (see the process adapter).
	File        string `yaml:"file" json:"file,omitempty"`
	AllowInline bool   `yaml:"allow_inline" json:"allow_inline,omitempty"`
	Timeout     string `yaml:"timeout" json:"timeout,omitempty"`
	// Dir is the working directory of every process.
	Dir string `yaml:"dir" json:"dir,omitempty"`
}

// referenceKeys name record parameters that point at another model.
var referenceKeys = []string{"next_model", "decomp_model", "qa_model", "l2m_decomp_model", "l2m_qa_model"}

var validate = validator.New()

// Load reads a YAML or JSON file, chosen by extension, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg *Config
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		cfg, err = ParseJSON(data)
	} else {
		cfg, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// ParseYAML decodes and validates a YAML document.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return &cfg, cfg.Validate()
}

// ParseJSON decodes and validates a JSON document.
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks field constraints and that every model reference resolves.
// Component types are checked later, by Build.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	var missing []string
	if _, ok := c.Models[c.StartModel]; !ok {
		missing = append(missing, fmt.Sprintf("start_model -> %s", c.StartModel))
	}
	for _, ref := range c.References() {
		if _, ok := c.Models[ref.Target]; !ok {
			missing = append(missing, fmt.Sprintf("%s.%s -> %s", ref.Model, ref.Key, ref.Target))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid config: unknown models referenced: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Reference is one model pointing at another.
type Reference struct {
	Model  string
	Key    string
	Target string
}

// References lists every static model-to-model edge, sorted by model then key.
// Router targets are chosen at run time and are not included.
func (c *Config) References() []Reference {
	var refs []Reference
	for name, record := range c.Models {
		for _, key := range referenceKeys {
			if target, ok := record[key].(string); ok && target != "" {
				refs = append(refs, Reference{Model: name, Key: key, Target: target})
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Model != refs[j].Model {
			return refs[i].Model < refs[j].Model
		}
		return refs[i].Key < refs[j].Key
	})
	return refs
}

// Marshal encodes the configuration as indented JSON, e.g. for source_config.json.
func (c *Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
