package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces evolv's environment variable overrides.
const envPrefix = "EVOLV_"

// Load reads configPath (if non-empty) as YAML, overlays EVOLV_-prefixed
// environment variables, and unmarshals onto Default — so every field
// a config file or the environment doesn't set keeps its documented
// default. Precedence: env > file > defaults (CLI flags are applied by
// the caller after Load returns, making them the final, highest layer).
func Load(configPath string) (Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", configPath, err)
		}
	}

	// EVOLV_RUN__N -> run.n, EVOLV_SME__GUARDS__PRESET -> sme.guards.preset
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	out := Default()
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	v := validator.New()
	if err := v.Struct(&out); err != nil {
		return Config{}, fmt.Errorf("config: validation failed: %w", err)
	}
	if err := out.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validation failed: %w", err)
	}

	return out, nil
}
