package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ValueType describes an attribute value type name such as "int" or
// "token[]".
type ValueType struct {
	Name   string
	Scalar string
	Array  bool
	// GoType is the Go spelling of the value type in generated code.
	GoType string
}

// TokenType is the scalar name of the token value type.
const TokenType = "token"

var scalarGoTypes = map[string]string{
	"bool":    "bool",
	"int":     "int32",
	"uint":    "uint32",
	"int64":   "int64",
	"uint64":  "uint64",
	"half":    "float32",
	"float":   "float32",
	"double":  "float64",
	"string":  "string",
	"token":   "string",
	"asset":   "string",
	"uchar":   "uint8",
	"matrix":  "[16]float64",
	"color3f": "[3]float32",
	"float3":  "[3]float32",
	"double3": "[3]float64",
}

// LookupValueType resolves a value type name. Array types use a "[]" suffix.
func LookupValueType(name string) (ValueType, bool) {
	name = strings.TrimSpace(name)
	scalar, array := strings.CutSuffix(name, "[]")
	goType, ok := scalarGoTypes[scalar]
	if !ok {
		return ValueType{}, false
	}
	if array {
		goType = "[]" + goType
	}
	return ValueType{Name: name, Scalar: scalar, Array: array, GoType: goType}, true
}

// IsToken reports whether the value type is the scalar token type.
func (v ValueType) IsToken() bool {
	return v.Scalar == TokenType && !v.Array
}

// Coerce normalizes a decoded default value into the canonical Go
// representation for the type: int64, uint64, float64, bool, string, or []any
// of those.
func (v ValueType) Coerce(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if v.Array {
		items, ok := value.([]any)
		if !ok {
			if strs, isStrings := value.([]string); isStrings {
				items = make([]any, len(strs))
				for i, s := range strs {
					items[i] = s
				}
			} else {
				return nil, fmt.Errorf("schema: value type %s expects a list, got %T", v.Name, value)
			}
		}
		elem := ValueType{Name: v.Scalar, Scalar: v.Scalar, GoType: strings.TrimPrefix(v.GoType, "[]")}
		out := make([]any, len(items))
		for i, item := range items {
			coerced, err := elem.Coerce(item)
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil
	}

	switch v.Scalar {
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("schema: value type bool expects a boolean, got %T", value)
		}
		return b, nil
	case "int", "int64", "uchar":
		n, err := toInt(v.Name, value)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "uint", "uint64":
		n, err := toInt(v.Name, value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("schema: value type %s cannot hold %d", v.Name, n)
		}
		return uint64(n), nil
	case "half", "float", "double":
		f, err := toFloat(v.Name, value)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "string", "token", "asset":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("schema: value type %s expects a string, got %T", v.Name, value)
		}
		return s, nil
	default:
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("schema: value type %s expects a tuple, got %T", v.Name, value)
		}
		out := make([]any, len(items))
		for i, item := range items {
			f, err := toFloat(v.Name, item)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
}

func toInt(typeName string, value any) (int64, error) {
	switch n := value.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("schema: value %d overflows %s", n, typeName)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("schema: value type %s expects an integer, got %v", typeName, n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("schema: value type %s expects an integer, got %T", typeName, value)
	}
}

func toFloat(typeName string, value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("schema: value type %s expects a number, got %T", typeName, value)
	}
}
