package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector is a pgvector column encoded in its text form "[1,2,3]".
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return FormatVector(v), nil
}

func (v *Vector) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		return v.parse(t)
	case []byte:
		return v.parse(string(t))
	default:
		return fmt.Errorf("vector: unsupported scan type %T", src)
	}
}

func (v *Vector) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if strings.TrimSpace(raw) == "" {
		*v = nil
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("vector: parse component %q: %w", p, err)
		}
		out = append(out, float32(f))
	}
	*v = out
	return nil
}

// FormatVector renders values in pgvector's text input format.
func FormatVector(values []float32) string {
	var b strings.Builder
	b.Grow(len(values)*8 + 2)
	b.WriteByte('[')
	for i, f := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
