package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
)

// Document is the JSON form of a predicate tree. Type is "and", "or" or a
// leaf category. Composite documents carry Children; leaf documents carry
// Key, FuncName and Parameter.
//
// Decoding accepts the older {"$and":[...]} / {"$or":[...]} /
// {"$filter":{...}} shape as well. Objects in neither shape are kept
// verbatim and re-encoded unchanged, and attributes this version does not
// know are carried along on recognised documents, so a filter written by a
// newer client survives being loaded and saved by this one.
type Document struct {
	Type      string      `json:"type"`
	ID        string      `json:"id,omitempty"`
	Key       string      `json:"key,omitempty"`
	FuncName  string      `json:"funcName,omitempty"`
	Parameter any         `json:"parameter,omitempty"`
	Children  []*Document `json:"children,omitempty"`

	raw   json.RawMessage
	extra map[string]json.RawMessage
}

var documentKeys = map[string]bool{
	"type": true, "id": true, "key": true, "funcName": true, "parameter": true, "children": true,
}

// Preserved reports whether the document was kept verbatim because its shape
// was not recognised.
func (d *Document) Preserved() bool {
	return d != nil && d.raw != nil
}

// plainDocument has Document's fields without its JSON methods.
type plainDocument Document

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	if len(d.extra) == 0 {
		return json.Marshal(plainDocument(d))
	}
	known, err := json.Marshal(plainDocument(d))
	if err != nil {
		return nil, err
	}
	fields := maps.Clone(d.extra)
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Extra returns the attributes of a recognised document that this version
// does not interpret.
func (d *Document) Extra() map[string]json.RawMessage {
	if d == nil {
		return nil
	}
	return maps.Clone(d.extra)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Parameter = cloneValue(d.Parameter)
	out.raw = bytes.Clone(d.raw)
	if d.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(d.extra))
		for k, v := range d.extra {
			out.extra[k] = bytes.Clone(v)
		}
	}
	if d.Children != nil {
		out.Children = make([]*Document, len(d.Children))
		for i, c := range d.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// UnmarshalJSON implements json.Unmarshaler. It only fails on invalid JSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return errors.New("filter document is not valid JSON")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err == nil {
		if _, ok := top["type"]; ok {
			var p plainDocument
			if err := json.Unmarshal(data, &p); err == nil {
				*d = Document(p)
				for k, v := range top {
					if !documentKeys[k] {
						if d.extra == nil {
							d.extra = make(map[string]json.RawMessage)
						}
						d.extra[k] = bytes.Clone(v)
					}
				}
				return nil
			}
		} else if legacy, ok := fromLegacy(top); ok {
			*d = *legacy
			return nil
		}
	}
	*d = Document{raw: bytes.Clone(data)}
	return nil
}

type legacyLeaf struct {
	Key       string `json:"key"`
	Category  string `json:"category"`
	FuncName  string `json:"funcName"`
	Parameter any    `json:"parameter"`
}

func fromLegacy(top map[string]json.RawMessage) (*Document, bool) {
	for op, typ := range map[string]string{"$and": TypeAnd, "$or": TypeOr} {
		raw, ok := top[op]
		if !ok {
			continue
		}
		var children []*Document
		if err := json.Unmarshal(raw, &children); err != nil {
			return nil, false
		}
		return &Document{Type: typ, Children: children}, true
	}
	if raw, ok := top["$filter"]; ok {
		var leaf legacyLeaf
		if err := json.Unmarshal(raw, &leaf); err != nil || leaf.Category == "" {
			return nil, false
		}
		return &Document{
			Type:      leaf.Category,
			Key:       leaf.Key,
			FuncName:  leaf.FuncName,
			Parameter: leaf.Parameter,
		}, true
	}
	return nil, false
}
