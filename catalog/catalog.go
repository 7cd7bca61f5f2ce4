// Package catalog is the static registry mapping each declarative operator
// name to the concrete function symbol, return type, arity, and scalar-
// parameterization rule the code emitter and interpreter must agree on.
package catalog

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/influxdata/pipelinejit/pipeline"
)

// Descriptor is the internal, catalog-side record for one external
// operator name.
type Descriptor struct {
	// Symbol is the C++ function name under the operator-library
	// namespace.
	Symbol string
	// ReturnType is the operator's return type, independent of its
	// argument types.
	ReturnType pipeline.Type
	// Arity is the number of positional arguments the operator takes.
	Arity int
	// NeedsScalarParam is true when the emitter must substitute a scalar
	// type into the call site, e.g. add<double>(...).
	NeedsScalarParam bool
	// DefaultScalarParam is used when NeedsScalarParam is true and no
	// stronger signal (the return type) is available.
	DefaultScalarParam pipeline.Type
}

// entries is the fixed table from §6 of the specification. It is the
// single source of truth for the emitter, the interpreter's semantic
// cross-check, and the validator.
var entries = map[string]Descriptor{
	"get_sign":                 {Symbol: "get_sign", ReturnType: pipeline.TypeI32, Arity: 1},
	"price_diff":               {Symbol: "price_diff", ReturnType: pipeline.TypeF64, Arity: 2},
	"avg_avg_log":              {Symbol: "avg_avg_log", ReturnType: pipeline.TypeI64, Arity: 5},
	"direct_output_int32":      {Symbol: "direct_output_int32", ReturnType: pipeline.TypeI32, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeI32},
	"direct_output_int64":      {Symbol: "direct_output_int64", ReturnType: pipeline.TypeI64, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeI64},
	"direct_output_double":     {Symbol: "direct_output_double", ReturnType: pipeline.TypeF64, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"direct_output_string":     {Symbol: "direct_output_string", ReturnType: pipeline.TypeStr, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeStr},
	"len":                      {Symbol: "len", ReturnType: pipeline.TypeI64, Arity: 1},
	"list_to_string":           {Symbol: "list_to_string", ReturnType: pipeline.TypeStr, Arity: 2},
	"catein_list_cross":        {Symbol: "catein_list_cross", ReturnType: pipeline.TypeI32, Arity: 2},
	"catein_list_cross_count":  {Symbol: "catein_list_cross_count", ReturnType: pipeline.TypeI32, Arity: 2},
	"add":                      {Symbol: "add_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"sub":                      {Symbol: "sub_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"mul":                      {Symbol: "mul_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"div":                      {Symbol: "div_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"if_else":                  {Symbol: "if_else", ReturnType: pipeline.TypeF64, Arity: 3},
	"max":                      {Symbol: "max_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"min":                      {Symbol: "min_op", ReturnType: pipeline.TypeF64, Arity: 2, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"abs":                      {Symbol: "abs_op", ReturnType: pipeline.TypeF64, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"square":                   {Symbol: "square_op", ReturnType: pipeline.TypeF64, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"sqrt":                     {Symbol: "sqrt_op", ReturnType: pipeline.TypeF64, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeF64},
	"floor":                    {Symbol: "floor_op", ReturnType: pipeline.TypeI32, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeI32},
	"ceil":                     {Symbol: "ceil_op", ReturnType: pipeline.TypeI32, Arity: 1, NeedsScalarParam: true, DefaultScalarParam: pipeline.TypeI32},
	"percent":                  {Symbol: "percent_op", ReturnType: pipeline.TypeF64, Arity: 2},
	"moving_average":           {Symbol: "moving_average", ReturnType: pipeline.TypeF64, Arity: 2},
	"vector_sum":               {Symbol: "vector_sum", ReturnType: pipeline.TypeF64, Arity: 1},
	"vector_avg":               {Symbol: "vector_avg", ReturnType: pipeline.TypeF64, Arity: 1},
}

var revisionOnce sync.Once
var revision uint64

// Revision returns a fast, non-cryptographic digest of the catalog table,
// computed once and cached. It is folded into every pipeline's fingerprint
// (see pipeline.SetCatalogRevision) so that extending or editing the
// catalog invalidates every previously cached artifact without requiring
// callers to bump a version number by hand.
func Revision() uint64 {
	revisionOnce.Do(func() {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		h := xxhash.New()
		for _, name := range names {
			d := entries[name]
			h.WriteString(name)
			h.WriteString(d.Symbol)
			h.WriteString(string(d.ReturnType))
			h.WriteString(string(d.DefaultScalarParam))
			var flags byte
			if d.NeedsScalarParam {
				flags = 1
			}
			h.Write([]byte{flags, byte(d.Arity)})
		}
		revision = h.Sum64()
	})
	return revision
}

// Lookup returns the descriptor for an external operator name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := entries[name]
	return d, ok
}

// Names returns every registered operator name, for diagnostics and tests.
func Names() []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// asArityLookup adapts the catalog to pipeline.ArityLookup.
type asArityLookup struct{}

func (asArityLookup) Lookup(name string) (pipeline.Descriptor, bool) {
	d, ok := entries[name]
	if !ok {
		return pipeline.Descriptor{}, false
	}
	return pipeline.Descriptor{ReturnType: d.ReturnType, Arity: d.Arity}, true
}

// ArityLookup returns the catalog adapted to pipeline.ArityLookup, for use
// with pipeline.Config.Validate.
func ArityLookup() pipeline.ArityLookup { return asArityLookup{} }

func init() {
	pipeline.SetCatalogRevision(Revision())
}
