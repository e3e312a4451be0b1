package emit

import (
	"fmt"
	"strconv"
	"strings"
)

// GoLiteral spells a fallback value as a Go expression of goType. Values are
// the canonical forms produced by schema.ValueType.Coerce. A nil value is
// spelled "nil".
func GoLiteral(goType string, v any) (string, error) {
	if v == nil {
		return "nil", nil
	}
	if strings.HasPrefix(goType, "[") {
		items, ok := v.([]any)
		if !ok {
			return "", fmt.Errorf("emit: %s literal needs a list, got %T", goType, v)
		}
		elemType := goType[strings.IndexByte(goType, ']')+1:]
		parts := make([]string, len(items))
		for i, item := range items {
			lit, err := untypedLiteral(elemType, item)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return goType + "{" + strings.Join(parts, ", ") + "}", nil
	}

	lit, err := untypedLiteral(goType, v)
	if err != nil {
		return "", err
	}
	switch goType {
	case "string", "bool":
		return lit, nil
	default:
		return goType + "(" + lit + ")", nil
	}
}

func untypedLiteral(goType string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		if goType != "string" {
			return "", fmt.Errorf("emit: cannot spell string as %s", goType)
		}
		return strconv.Quote(val), nil
	case bool:
		if goType != "bool" {
			return "", fmt.Errorf("emit: cannot spell bool as %s", goType)
		}
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if strings.HasPrefix(goType, "int") || strings.HasPrefix(goType, "uint") {
			return "", fmt.Errorf("emit: cannot spell %s as %s", s, goType)
		}
		return s, nil
	default:
		return "", fmt.Errorf("emit: unsupported literal %T", v)
	}
}
