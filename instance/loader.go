package instance

import (
	"fmt"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader hydrates instance configuration with env > file > default
// precedence. Files may be YAML or JSON, chosen by extension.
type Loader struct {
	envPrefix string
	files     []string
}

// NewLoader prepares a loader over the given files. envPrefix, when
// non-empty, enables environment overrides: SPARQLKIT_INSTANCES__WIKIDATA__ENDPOINT=...
// with double underscores marking nesting. Env keys are lowercased
// wholesale, so only instances with all-lowercase ids can be targeted
// by an override.
func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{envPrefix: envPrefix, files: files}
}

// Load assembles the effective configuration, applies per-instance
// defaults, and validates the result.
func (l *Loader) Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{"instances": map[string]any{}}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("instance: load defaults: %w", err)
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("instance: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		transform := func(s string) string {
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("instance: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("instance: unmarshal: %w", err)
	}

	for id, in := range cfg.Instances {
		in.ID = id
		cfg.Instances[id] = in.Normalize()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	default:
		return nil, fmt.Errorf("instance: unsupported config format %q", filepath.Ext(path))
	}
}
