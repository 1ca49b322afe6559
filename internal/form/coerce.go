package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/schema"
)

var errWholeNumber = errors.New("must be a whole number")

// Parse converts operator input into a value of the field's declared type.
// Lists are separated by commas or newlines.
func Parse(n *schema.Node, raw string) (any, error) {
	if n == nil {
		return raw, nil
	}
	switch n.Kind {
	case schema.KindArray:
		var out []any
		for _, elem := range splitList(raw) {
			v, err := Parse(n.Items, elem)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", elem, err)
			}
			out = append(out, v)
		}
		return out, nil
	case schema.KindObject:
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "{") {
			var m map[string]any
			if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
				return m, nil
			}
		}
		return raw, nil
	}

	var v any
	switch n.Type {
	case model.TypeBoolean:
		b, err := parseBool(raw)
		if err != nil {
			return nil, err
		}
		v = b
	case model.TypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, errWholeNumber
		}
		v = i
	case model.TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		v = f
	default:
		v = raw
	}
	return v, checkEnum(n, v)
}

// Coerce checks a structured value against the field's declared type,
// converting numeric and textual representations where they are exact.
func Coerce(n *schema.Node, v any) (any, error) {
	if n == nil {
		return v, nil
	}
	if s, ok := v.(string); ok && n.Type != model.TypeString && n.Kind != schema.KindObject {
		return Parse(n, s)
	}
	switch n.Kind {
	case schema.KindArray:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", v)
		}
		out := make([]any, 0, len(list))
		for i, elem := range list {
			c, err := Coerce(n.Items, elem)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	case schema.KindObject:
		return v, nil
	}

	var out any
	switch n.Type {
	case model.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		out = s
	case model.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", v)
		}
		out = b
	case model.TypeInteger:
		i, err := toInt(v)
		if err != nil {
			return nil, err
		}
		out = i
	case model.TypeNumber:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		out = f
	default:
		out = v
	}
	return out, checkEnum(n, out)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	}
	return false, errors.New("must be true or false")
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// math.MaxInt64 rounds up to 2^63 as a float64.
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, errWholeNumber
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errWholeNumber
		}
		return i, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func checkEnum(n *schema.Node, v any) error {
	if len(n.Enum) == 0 {
		return nil
	}
	want := fmt.Sprint(v)
	for _, e := range n.Enum {
		if fmt.Sprint(e) == want {
			return nil
		}
	}
	return fmt.Errorf("%v is not one of %s", v, EnumList(n.Enum))
}

// EnumList renders enum values for messages and prompts.
func EnumList(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, ", ")
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
