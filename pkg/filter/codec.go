package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxDepth bounds the nesting of decoded documents.
const DefaultMaxDepth = 32

// Codec converts between predicate trees and Documents.
type Codec struct {
	registry *Registry
	maxDepth int
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithMaxDepth sets the maximum composite nesting accepted by Deserialize.
func WithMaxDepth(n int) CodecOption {
	return func(c *Codec) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// NewCodec returns a codec that validates leaves against reg (Default when
// nil).
func NewCodec(reg *Registry, opts ...CodecOption) *Codec {
	if reg == nil {
		reg = Default
	}
	c := &Codec{registry: reg, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec(Default)

// Serialize converts a tree to its document form. A nil clause yields nil.
func Serialize(c Clause) *Document {
	return serialize(c, "")
}

// Deserialize converts a document to a tree using the default registry. A nil
// document yields a nil clause, which matches everything.
func Deserialize(doc *Document) (Clause, error) {
	return defaultCodec.Deserialize(doc)
}

// Marshal encodes a tree as JSON.
func Marshal(c Clause) ([]byte, error) {
	return defaultCodec.Marshal(c)
}

// Unmarshal decodes JSON into a tree using the default registry.
func Unmarshal(data []byte) (Clause, error) {
	return defaultCodec.Unmarshal(data)
}

// Serialize converts a tree to its document form.
func (c *Codec) Serialize(cl Clause) *Document {
	return serialize(cl, "")
}

// Marshal encodes a tree as JSON.
func (c *Codec) Marshal(cl Clause) ([]byte, error) {
	return json.Marshal(serialize(cl, ""))
}

// Unmarshal decodes JSON into a tree.
func (c *Codec) Unmarshal(data []byte) (Clause, error) {
	var doc *Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed("", "%v", err)
	}
	return c.Deserialize(doc)
}

// Deserialize converts a document to a tree. Any structural problem yields a
// *MalformedFilterError.
func (c *Codec) Deserialize(doc *Document) (Clause, error) {
	if doc == nil {
		return nil, nil
	}
	return c.decode(doc, "", 0)
}

func (c *Codec) decode(doc *Document, path string, depth int) (Clause, error) {
	if depth > c.maxDepth {
		return nil, malformed(path, "nesting exceeds maximum depth %d", c.maxDepth)
	}
	if doc.Preserved() {
		return nil, malformed(path, "unrecognised document shape")
	}

	switch doc.Type {
	case "":
		return nil, malformed(path, "missing type")
	case TypeAnd, TypeOr:
		var (
			node Clause
			g    *group
		)
		if doc.Type == TypeAnd {
			a := &And{}
			node, g = a, &a.group
		} else {
			o := &Or{}
			node, g = o, &o.group
		}
		for i, childDoc := range doc.Children {
			childPath := join(path, fmt.Sprintf("children[%d]", i))
			if childDoc == nil {
				return nil, malformed(childPath, "child is null")
			}
			child, err := c.decode(childDoc, childPath, depth+1)
			if err != nil {
				return nil, err
			}
			id := childDoc.ID
			if id == "" {
				id = uuid.NewString()
			}
			if err := g.insert(node, id, child); err != nil {
				if errors.Is(err, ErrDuplicateChild) {
					return nil, malformed(childPath, "duplicate child id %q", id)
				}
				return nil, malformed(childPath, "%v", err)
			}
		}
		return node, nil
	}

	category := Category(doc.Type)
	if !c.registry.HasCategory(category) {
		return nil, malformed(join(path, "type"), "unknown type %q", doc.Type)
	}
	leaf, err := c.registry.NewLeaf(doc.Key, category, doc.FuncName, doc.Parameter)
	if err != nil {
		var mf *MalformedFilterError
		if errors.As(err, &mf) {
			return nil, malformed(join(path, mf.Path), "%s", mf.Reason)
		}
		return nil, malformed(path, "%v", err)
	}
	return leaf, nil
}

func serialize(c Clause, id string) *Document {
	if isNil(c) {
		return nil
	}
	switch n := c.(type) {
	case *Leaf:
		return &Document{
			Type:      string(n.Category),
			ID:        id,
			Key:       n.Key,
			FuncName:  n.FuncName,
			Parameter: encodeParameter(n.Parameter),
		}
	case *And:
		return &Document{Type: TypeAnd, ID: id, Children: serializeChildren(n.children)}
	case *Or:
		return &Document{Type: TypeOr, ID: id, Children: serializeChildren(n.children)}
	}
	return nil
}

func serializeChildren(children []Child) []*Document {
	out := make([]*Document, 0, len(children))
	for _, ch := range children {
		out = append(out, serialize(ch.Clause, ch.ID))
	}
	return out
}

// encodeParameter maps canonical parameter values to JSON-native values.
func encodeParameter(p any) any {
	switch v := p.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case RelativeDate:
		return map[string]any{"last": v.String()}
	case []string:
		return slices.Clone(v)
	}
	return p
}

func join(path, elem string) string {
	switch {
	case path == "":
		return elem
	case elem == "":
		return path
	}
	return path + "." + elem
}
