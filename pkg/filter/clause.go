package filter

import (
	"slices"

	"github.com/google/uuid"
)

// Category is the value category a leaf compares in. It doubles as the
// discriminator of leaf documents.
type Category string

// Builtin categories
const (
	CategoryNumber  Category = "number"
	CategoryString  Category = "string"
	CategoryBoolean Category = "boolean"
	CategoryDate    Category = "date"
	CategoryArray   Category = "array"
)

// Composite discriminators
const (
	TypeAnd = "and"
	TypeOr  = "or"
)

// Clause is a node of a predicate tree. The concrete types are *Leaf, *And
// and *Or; the set is closed.
type Clause interface {
	isClause()
}

// Leaf compares record[Key] against Parameter with the comparator registered
// for (Category, FuncName).
type Leaf struct {
	Key       string
	Category  Category
	FuncName  string
	Parameter any
}

// NewLeaf builds a leaf with its parameter normalised by the default registry.
func NewLeaf(key string, category Category, funcName string, parameter any) (*Leaf, error) {
	return Default.NewLeaf(key, category, funcName, parameter)
}

// Child is a composite member together with its stable id.
type Child struct {
	ID     string
	Clause Clause
}

// And matches when every child matches. An empty And matches everything.
type And struct {
	group
}

// Or matches when any child matches. An empty Or matches nothing.
type Or struct {
	group
}

// NewAnd returns an And over children, each given a fresh id. Nil children
// are skipped.
func NewAnd(children ...Clause) *And {
	a := &And{}
	for _, c := range children {
		_, _ = a.AddChild(c)
	}
	return a
}

// NewOr returns an Or over children, each given a fresh id. Nil children are
// skipped.
func NewOr(children ...Clause) *Or {
	o := &Or{}
	for _, c := range children {
		_, _ = o.AddChild(c)
	}
	return o
}

func (*Leaf) isClause() {}
func (*And) isClause()  {}
func (*Or) isClause()   {}

// AddChild appends c and returns its new id.
func (a *And) AddChild(c Clause) (string, error) {
	id := uuid.NewString()
	return id, a.insert(a, id, c)
}

// ReplaceChild swaps the child with the given id for c, keeping its position
// and id.
func (a *And) ReplaceChild(id string, c Clause) error {
	return a.replace(a, id, c)
}

// AddChild appends c and returns its new id.
func (o *Or) AddChild(c Clause) (string, error) {
	id := uuid.NewString()
	return id, o.insert(o, id, c)
}

// ReplaceChild swaps the child with the given id for c, keeping its position
// and id.
func (o *Or) ReplaceChild(id string, c Clause) error {
	return o.replace(o, id, c)
}

type group struct {
	children []Child
}

// Children returns a copy of the ordered child list.
func (g *group) Children() []Child {
	return slices.Clone(g.children)
}

// Len returns the number of children.
func (g *group) Len() int {
	return len(g.children)
}

// Child returns the child clause with the given id.
func (g *group) Child(id string) (Clause, bool) {
	i := g.index(id)
	if i < 0 {
		return nil, false
	}
	return g.children[i].Clause, true
}

// RemoveChild deletes the child with the given id and reports whether it
// existed.
func (g *group) RemoveChild(id string) bool {
	i := g.index(id)
	if i < 0 {
		return false
	}
	g.children = slices.Delete(g.children, i, i+1)
	return true
}

func (g *group) index(id string) int {
	return slices.IndexFunc(g.children, func(c Child) bool { return c.ID == id })
}

func (g *group) insert(self Clause, id string, c Clause) error {
	if isNil(c) {
		return ErrNilClause
	}
	if g.index(id) >= 0 {
		return ErrDuplicateChild
	}
	if Contains(c, self) {
		return ErrCycle
	}
	g.children = append(g.children, Child{ID: id, Clause: c})
	return nil
}

func (g *group) replace(self Clause, id string, c Clause) error {
	if isNil(c) {
		return ErrNilClause
	}
	i := g.index(id)
	if i < 0 {
		return ErrChildNotFound
	}
	if Contains(c, self) {
		return ErrCycle
	}
	g.children[i].Clause = c
	return nil
}

// Walk visits c and its descendants depth first. Returning false from fn
// stops the walk below the current node.
func Walk(c Clause, fn func(Clause) bool) {
	if isNil(c) || !fn(c) {
		return
	}
	for _, child := range children(c) {
		Walk(child.Clause, fn)
	}
}

// Contains reports whether target is root or one of its descendants.
func Contains(root, target Clause) bool {
	found := false
	Walk(root, func(c Clause) bool {
		if c == target {
			found = true
		}
		return !found
	})
	return found
}

func children(c Clause) []Child {
	switch n := c.(type) {
	case *And:
		return n.children
	case *Or:
		return n.children
	}
	return nil
}

func isNil(c Clause) bool {
	switch n := c.(type) {
	case nil:
		return true
	case *Leaf:
		return n == nil
	case *And:
		return n == nil
	case *Or:
		return n == nil
	}
	return false
}
