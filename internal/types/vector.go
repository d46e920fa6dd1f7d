package types

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// EmbeddingDim is the fixed dimensionality of the embedding provider
// (text-embedding-3-small). Every stored embedding has this length.
const EmbeddingDim = 1536

// Vector maps a pgvector column to []float32 using the textual
// representation "[f1,f2,...]" on both read and write.
type Vector []float32

func (Vector) GormDataType() string {
	return fmt.Sprintf("vector(%d)", EmbeddingDim)
}

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	var raw string
	switch t := src.(type) {
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		*v = Vector{}
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("invalid vector element %q: %w", p, err)
		}
		out = append(out, float32(f))
	}
	*v = out
	return nil
}
