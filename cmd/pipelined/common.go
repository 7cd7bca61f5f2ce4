package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/influxdata/pipelinejit/logger"
	"github.com/influxdata/pipelinejit/pipeline"
	"go.uber.org/zap/zapcore"
)

// loadPipelineConfig reads a JSON-encoded pipeline.Config from path. The
// pipeline definition language spec.md scopes out lives upstream of this
// process; pipelined itself only consumes the already-lowered IR.
func loadPipelineConfig(path string) (*pipeline.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file %s: %w", path, err)
	}
	var cfg pipeline.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode pipeline file %s: %w", path, err)
	}
	return &cfg, nil
}

// loadInputLiterals reads a JSON object mapping input field names to their
// literal text form from path, e.g. {"price": "12.5", "ticker": "ACME"}.
func loadInputLiterals(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", path, err)
	}
	var vals map[string]string
	if err := json.Unmarshal(data, &vals); err != nil {
		return nil, fmt.Errorf("decode input file %s: %w", path, err)
	}
	return vals, nil
}

func newProcessLogger(level zapcore.Level, format string) *logger.Config {
	cfg := logger.NewConfig()
	cfg.Format = format
	cfg.Level = level
	return &cfg
}
