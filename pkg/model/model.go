package model

import (
	"encoding/json"
	"time"
)

// Record is a single row of a tabular resource as decoded from the node API.
type Record = map[string]any

// ValueType is the value category of a column. It drives which filter
// comparators apply to the column.
type ValueType string

// Supported column value types
const (
	ValueString  ValueType = "string"
	ValueNumber  ValueType = "number"
	ValueBoolean ValueType = "boolean"
	ValueDate    ValueType = "date"
	ValueArray   ValueType = "array"
	ValueLink    ValueType = "link"
)

// ColumnMetaData describes one column of a resource's column catalog.
type ColumnMetaData struct {
	Key       string    `json:"key"`
	Heading   string    `json:"heading"`
	Type      string    `json:"type,omitempty"` // rendering hint, e.g. "NumericCell"
	ValueType ValueType `json:"valueType"`
	Locked    bool      `json:"locked,omitempty"`
	Width     int       `json:"width,omitempty"`
	Key2      string    `json:"key2,omitempty"`   // secondary value for dual-value columns
	Suffix    string    `json:"suffix,omitempty"` // unit shown after the value, e.g. "ppm"
}

// Direction is a sort direction.
type Direction string

// Supported sort directions
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// SortBy is one key of a multi-key sort.
type SortBy struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// UnmarshalJSON also accepts the older {"value": key, "direction": dir}
// entry shape.
func (s *SortBy) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key       string    `json:"key"`
		Value     string    `json:"value"`
		Direction Direction `json:"direction"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Key = raw.Key
	if s.Key == "" {
		s.Key = raw.Value
	}
	s.Direction = raw.Direction
	return nil
}

// SortSpec is an ordered multi-key sort; the first entry is the primary key.
type SortSpec []SortBy

// Keys returns the sort keys in order.
func (s SortSpec) Keys() []string {
	keys := make([]string, len(s))
	for i, sb := range s {
		keys[i] = sb.Key
	}
	return keys
}

// ViewOrder is one entry of a reorder request.
type ViewOrder struct {
	ID        int64 `json:"id"`
	ViewOrder int   `json:"view_order"`
}

// RecordQuery selects records of a resource from the node API.
type RecordQuery struct {
	Page   string    `json:"page"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"` // inclusive day
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// RecordPage is one page of fetched records.
type RecordPage struct {
	Records []Record `json:"data"`
	Total   *int     `json:"total,omitempty"` // nil when the source does not paginate
}
