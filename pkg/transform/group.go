package transform

import (
	"encoding/json"
	"maps"

	"github.com/spf13/cast"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

// Group folds records sharing the same value of key into one row. Numeric
// fields of a row are the sums over its members; every other field keeps the
// first member's value. Rows come out in the order their group first appears.
// Records without the key are passed through on their own.
func Group(records []model.Record, key string) []model.Record {
	out := make([]model.Record, 0, len(records))
	index := make(map[string]int)
	for _, rec := range records {
		v, ok := rec[key]
		if !ok || v == nil {
			out = append(out, maps.Clone(rec))
			continue
		}
		gk := cast.ToString(v)
		i, seen := index[gk]
		if !seen {
			index[gk] = len(out)
			out = append(out, maps.Clone(rec))
			continue
		}
		merge(out[i], rec, key)
	}
	return out
}

func merge(dst, src model.Record, groupKey string) {
	for k, v := range src {
		if k == groupKey {
			continue
		}
		n, ok := numeric(v)
		if !ok {
			continue
		}
		cur, exists := dst[k]
		if !exists || cur == nil {
			dst[k] = n
			continue
		}
		if c, ok := numeric(cur); ok {
			dst[k] = c + n
		}
	}
}

// numeric reports Go numeric values only; numeric-looking strings are text.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return cast.ToFloat64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
