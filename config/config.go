// Package config loads the assembler's CONFIG file: a TOML document
// naming the toolchain to delegate to (config_name, as_cmd) and a
// preprocess flag. Load decodes the flag, but cmd/mipsasm does not
// consult it: it always preprocesses the input before delegating.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the CONFIG file schema.
type Config struct {
	ConfigName string   `toml:"config_name"`
	AsCmd      []string `toml:"as_cmd"`
	Preprocess bool     `toml:"preprocess"`
}

// Load reads and parses the CONFIG file at path. {INPUT_AS} and
// {OUTPUT_AS} are substituted in the raw text before TOML parsing, per
// the template rules for the config file.
func Load(path, inputAs, outputAs string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- CLI-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	text := string(raw)
	text = strings.ReplaceAll(text, "{INPUT_AS}", inputAs)
	text = strings.ReplaceAll(text, "{OUTPUT_AS}", outputAs)

	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ExpandCommand substitutes {PREPROCESSED_AS} in template with
// preprocessedPath, for one entry of AsCmd.
func ExpandCommand(template, preprocessedPath string) string {
	return strings.ReplaceAll(template, "{PREPROCESSED_AS}", preprocessedPath)
}

// Delegates reports whether this config wants the assembler to hand off
// to an external toolchain instead of running its own encoder.
func (c *Config) Delegates() bool {
	return len(c.AsCmd) > 0
}
