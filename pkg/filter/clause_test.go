package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

func mustLeaf(t *testing.T, key string, cat Category, fn string, param any) *Leaf {
	t.Helper()
	l, err := NewLeaf(key, cat, fn, param)
	require.NoError(t, err)
	return l
}

func TestEmptyComposites(t *testing.T) {
	records := []model.Record{
		{},
		{"capacity": 10.0},
		{"alias": "node", "active": true},
	}
	for _, rec := range records {
		assert.True(t, Evaluate(&And{}, rec), "empty and matches %v", rec)
		assert.False(t, Evaluate(&Or{}, rec), "empty or matches nothing %v", rec)
	}
	assert.True(t, Evaluate(nil, model.Record{"x": 1}), "nil clause matches everything")
}

func TestCompositeFolding(t *testing.T) {
	big := mustLeaf(t, "capacity", CategoryNumber, FuncGte, 1_000_000)
	active := mustLeaf(t, "active", CategoryBoolean, FuncEq, true)

	tests := []struct {
		name   string
		clause Clause
		rec    model.Record
		want   bool
	}{
		{"and both true", NewAnd(big, active), model.Record{"capacity": 2e6, "active": true}, true},
		{"and one false", NewAnd(big, active), model.Record{"capacity": 2e6, "active": false}, false},
		{"or one true", NewOr(big, active), model.Record{"capacity": 10.0, "active": true}, true},
		{"or none true", NewOr(big, active), model.Record{"capacity": 10.0, "active": false}, false},
		{"nested", NewOr(NewAnd(big, active), &And{}), model.Record{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.clause, tt.rec))
		})
	}
}

func TestShortCircuit(t *testing.T) {
	reg := DefaultRegistry()
	calls := 0
	reg.Register("counting", "hit", func(field, param any) bool {
		calls++
		return param.(bool)
	})
	ev := NewEvaluator(reg)
	yes := &Leaf{Key: "k", Category: "counting", FuncName: "hit", Parameter: true}
	no := &Leaf{Key: "k", Category: "counting", FuncName: "hit", Parameter: false}

	assert.False(t, ev.Evaluate(NewAnd(no, yes, yes), model.Record{}))
	assert.Equal(t, 1, calls)

	calls = 0
	assert.True(t, ev.Evaluate(NewOr(yes, no, no), model.Record{}))
	assert.Equal(t, 1, calls)
}

func TestChildMutationByID(t *testing.T) {
	a := &And{}
	first := mustLeaf(t, "alias", CategoryString, FuncLike, "acme")
	second := mustLeaf(t, "capacity", CategoryNumber, FuncGt, 5)

	id1, err := a.AddChild(first)
	require.NoError(t, err)
	id2, err := a.AddChild(second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, a.Len())

	replacement := mustLeaf(t, "capacity", CategoryNumber, FuncLt, 5)
	require.NoError(t, a.ReplaceChild(id2, replacement))
	got, ok := a.Child(id2)
	require.True(t, ok)
	assert.Same(t, replacement, got)

	assert.True(t, a.RemoveChild(id1))
	assert.False(t, a.RemoveChild(id1))
	children := a.Children()
	require.Len(t, children, 1)
	assert.Equal(t, id2, children[0].ID)

	assert.ErrorIs(t, a.ReplaceChild("missing", first), ErrChildNotFound)
}

func TestChildMutationErrors(t *testing.T) {
	outer := &Or{}
	inner := &And{}
	_, err := outer.AddChild(inner)
	require.NoError(t, err)

	_, err = inner.AddChild(outer)
	assert.ErrorIs(t, err, ErrCycle)
	_, err = outer.AddChild(outer)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = outer.AddChild(nil)
	assert.ErrorIs(t, err, ErrNilClause)
	var nilLeaf *Leaf
	_, err = outer.AddChild(nilLeaf)
	assert.ErrorIs(t, err, ErrNilClause)
}

func TestChildrenReturnsCopy(t *testing.T) {
	a := NewAnd(mustLeaf(t, "x", CategoryNumber, FuncEq, 1))
	children := a.Children()
	children[0].ID = "changed"
	assert.NotEqual(t, "changed", a.Children()[0].ID)
}
