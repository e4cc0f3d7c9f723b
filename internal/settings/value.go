package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts a value into one of the shapes a Store holds: string,
// int, bool, float64 or []string. Decoders hand back int64, []any and
// friends; those are folded into the canonical shapes here.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case string, bool, int, float64:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = String(Normalize(e))
		}
		return out
	case []int:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = strconv.Itoa(e)
		}
		return out
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func clone(v any) any {
	if l, ok := v.([]string); ok {
		out := make([]string, len(l))
		copy(out, l)
		return out
	}
	return v
}

// String renders a value as text. Lists are joined with ",".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ",")
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Int coerces a value to an int, returning def when it cannot.
func Int(v any, def int) int {
	switch x := Normalize(v).(type) {
	case int:
		return x
	case float64:
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return def
}

// Bool coerces a value to a bool, returning def when it cannot.
func Bool(v any, def bool) bool {
	switch x := Normalize(v).(type) {
	case bool:
		return x
	case int:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return def
}

// Strings coerces a value to a list. A scalar becomes a single element
// list; an empty string becomes an empty list.
func Strings(v any) []string {
	switch x := Normalize(v).(type) {
	case []string:
		return x
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	default:
		return []string{String(x)}
	}
}
