package component

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Config is a merged widget configuration as seen by a Renderer. Accessors
// tolerate the loose value shapes that reach it from JSON and bound records.
type Config map[string]any

// String returns key as a string, formatting numbers and booleans.
func (c Config) String(key, fallback string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fallback
}

// Number returns key as a float64, parsing numeric strings.
func (c Config) Number(key string, fallback float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

// Bool returns key as a bool. "true"/"1" and non-zero numbers are true.
func (c Config) Bool(key string, fallback bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true
		case "false", "0", "":
			return false
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	}
	return fallback
}

// List returns key as a slice, or nil.
func (c Config) List(key string) []any {
	switch v := c[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	return nil
}

// Map returns key as a nested config, or nil.
func (c Config) Map(key string) Config {
	if m, ok := c[key].(map[string]any); ok {
		return Config(m)
	}
	return nil
}
