package capability

import "math"

// Parameters is the opaque per-node parameter mapping.
type Parameters map[string]interface{}

// String returns the non-empty string value of key, or def.
func (p Parameters) String(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Float returns the numeric value of key, or nil when absent or not a number.
func (p Parameters) Float(key string) *float64 {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil
	}
	return &f
}

// Int returns the integer value of key, or 0.
func (p Parameters) Int(key string) int {
	if f := p.Float(key); f != nil && *f > 0 && *f < math.MaxInt32 {
		return int(*f)
	}
	return 0
}
