package codegen

import "github.com/influxdata/pipelinejit/pipeline"

// cppScalar maps an IR scalar type to its C++ spelling in the generated
// context struct and call sites.
func cppScalar(t pipeline.Type) string {
	switch t {
	case pipeline.TypeI32:
		return "int32_t"
	case pipeline.TypeI64:
		return "int64_t"
	case pipeline.TypeF32:
		return "float"
	case pipeline.TypeF64:
		return "double"
	case pipeline.TypeStr:
		return "std::string"
	case pipeline.TypeListI32:
		return "std::vector<int32_t>"
	case pipeline.TypeListI64:
		return "std::vector<int64_t>"
	case pipeline.TypeListF64:
		return "std::vector<double>"
	case pipeline.TypeListStr:
		return "std::vector<std::string>"
	default:
		return "double"
	}
}

// scalarFamily returns the array-view family a scalar type unpacks from /
// packs into at the entry boundary: "f64", "i64", "i32", or "str". List
// types have no array-view family; they never cross the entry boundary.
func scalarFamily(t pipeline.Type) string {
	switch t {
	case pipeline.TypeI32:
		return "i32"
	case pipeline.TypeI64:
		return "i64"
	case pipeline.TypeF32, pipeline.TypeF64:
		return "f64"
	case pipeline.TypeStr:
		return "str"
	default:
		return "f64"
	}
}

// cppArrayElem is the C element type of a scalar family's array view.
func cppArrayElem(family string) string {
	switch family {
	case "i32":
		return "int32_t"
	case "i64":
		return "int64_t"
	case "str":
		return "const char*"
	default:
		return "double"
	}
}
