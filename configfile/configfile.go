// Package configfile defines the on-disk TOML configuration for the
// pipeline engine process: cache location, compile flags, execution mode,
// emission options, and embedded logging configuration. It is distinct
// from (and has no knowledge of) any external pipeline-definition format;
// parsing pipeline definitions themselves stays out of scope.
package configfile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/influxdata/pipelinejit/logger"
)

// Mode selects how the manager executes pipelines.
type Mode string

const (
	ModeInterpreter Mode = "interpreter"
	ModeJIT         Mode = "jit"
	ModeAuto        Mode = "auto"
)

// Config is the top-level on-disk configuration.
type Config struct {
	Mode     Mode         `toml:"mode"`
	CacheDir string       `toml:"cache-dir"`
	Compile  CompileConfig `toml:"compile"`
	Emit     EmitConfig    `toml:"emit"`
	Logging  logger.Config `toml:"logging"`
}

// CompileConfig mirrors nativecompiler.Options in TOML-tagged form.
type CompileConfig struct {
	CXX         string   `toml:"cxx"`
	Std         string   `toml:"std"`
	OptLevel    string   `toml:"opt-level"`
	MArch       string   `toml:"march"`
	IncludeDirs []string `toml:"include-dirs"`
	ExtraFlags  []string `toml:"extra-flags"`
}

// EmitConfig mirrors codegen.Options in TOML-tagged form.
type EmitConfig struct {
	Inline     bool     `toml:"inline"`
	Vectorize  bool     `toml:"vectorize"`
	FastMath   bool     `toml:"fast-math"`
	ExtraFlags []string `toml:"extra-flags"`
	HeaderPath string   `toml:"header-path"`
	Verbose    bool     `toml:"verbose"`
}

// NewConfig returns a Config populated with the same defaults a fresh
// process should start from when no file is present.
func NewConfig() Config {
	return Config{
		Mode:     ModeAuto,
		CacheDir: "pipeline-cache",
		Compile: CompileConfig{
			CXX:      "c++",
			Std:      "c++17",
			OptLevel: "3",
			MArch:    "native",
		},
		Logging: logger.NewConfig(),
	}
}

// Load reads and decodes the TOML file at path, applying NewConfig's
// defaults to anything the file leaves unset by decoding over top of them.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configfile: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("configfile: decode %s: %w", path, err)
	}
	return &cfg, nil
}
