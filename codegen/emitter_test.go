package codegen

import (
	"strings"
	"testing"

	"github.com/influxdata/pipelinejit/pipeline"
)

func demoConfig() *pipeline.Config {
	return &pipeline.Config{
		Name:        "demo",
		Fingerprint: "abc123",
		Inputs: []pipeline.Field{
			{Name: "price", Type: pipeline.TypeF64},
			{Name: "volume", Type: pipeline.TypeI64},
		},
		Steps: []pipeline.OpCall{
			{OpName: "abs", OutputVar: "abs_price", Args: []pipeline.Argument{pipeline.Var("price", pipeline.TypeF64)}},
			{OpName: "get_sign", OutputVar: "sign", Args: []pipeline.Argument{pipeline.Var("price", pipeline.TypeF64)}},
		},
		Outputs: []pipeline.Field{
			{Name: "abs_price", Type: pipeline.TypeF64},
			{Name: "sign", Type: pipeline.TypeI32},
		},
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	cfg := demoConfig()
	a := Emit(cfg, Options{})
	b := Emit(cfg, Options{})
	if a != b {
		t.Error("Emit is not deterministic for identical input")
	}
}

func TestEmitEntrySymbolIsSanitized(t *testing.T) {
	cfg := demoConfig()
	cfg.Fingerprint = "123abc"
	src := Emit(cfg, Options{})
	if !strings.Contains(src, "pipeline_execute_p_123abc") {
		t.Error("emitted source does not export the sanitized entry symbol")
	}
}

func TestEmitContainsContextFields(t *testing.T) {
	src := Emit(demoConfig(), Options{})
	for _, want := range []string{
		"double price;",
		"int64_t volume;",
		"double abs_price;",
		"int32_t sign;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("emitted source missing context field declaration %q", want)
		}
	}
}

func TestEmitDefaultHeaderPath(t *testing.T) {
	src := Emit(demoConfig(), Options{})
	if !strings.Contains(src, `#include "`+DefaultHeaderPath+`"`) {
		t.Error("emitted source does not include the default operator header")
	}
}

func TestEmitCustomHeaderPath(t *testing.T) {
	src := Emit(demoConfig(), Options{HeaderPath: "custom_ops.hpp"})
	if !strings.Contains(src, `#include "custom_ops.hpp"`) {
		t.Error("emitted source does not honor a custom HeaderPath")
	}
}

func TestEmitUnknownOperatorFallsBackToBareCall(t *testing.T) {
	cfg := &pipeline.Config{
		Name: "unknown-op",
		Steps: []pipeline.OpCall{
			{OpName: "totally_made_up", OutputVar: "y", Args: []pipeline.Argument{pipeline.Lit("1", pipeline.TypeI32)}},
		},
		Outputs: []pipeline.Field{{Name: "y", Type: pipeline.TypeI32}},
	}
	src := Emit(cfg, Options{})
	if !strings.Contains(src, "ops::totally_made_up(1)") {
		t.Errorf("expected a bare fallback call for an unknown operator, got:\n%s", src)
	}
}

func TestEmitReusesOutputVarCollidingWithExistingField(t *testing.T) {
	cfg := &pipeline.Config{
		Name:      "reuse",
		Inputs:    []pipeline.Field{{Name: "x", Type: pipeline.TypeF64}},
		Variables: []pipeline.Field{{Name: "x", Type: pipeline.TypeF64}},
		Steps: []pipeline.OpCall{
			{OpName: "abs", OutputVar: "x", Args: []pipeline.Argument{pipeline.Var("x", pipeline.TypeF64)}},
		},
		Outputs: []pipeline.Field{{Name: "x", Type: pipeline.TypeF64}},
	}
	src := Emit(cfg, Options{})
	if strings.Count(src, "double x;") != 1 {
		t.Errorf("expected exactly one declaration of ctx.x, got source:\n%s", src)
	}
}

func TestEmitInlineOption(t *testing.T) {
	src := Emit(demoConfig(), Options{Inline: true})
	if !strings.Contains(src, "inline bool execute_internal") {
		t.Error("Inline option did not mark execute_internal inline")
	}
}
