package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

func TestBuiltinCatalogsAreConsistent(t *testing.T) {
	for _, page := range Pages() {
		r, err := Lookup(page)
		require.NoError(t, err)
		t.Run(page, func(t *testing.T) {
			seen := map[string]bool{}
			for _, c := range r.Columns {
				assert.False(t, seen[c.Key], "duplicate column %q", c.Key)
				seen[c.Key] = true
				assert.NotEmpty(t, c.Heading)
			}
			for _, k := range r.DefaultColumns {
				assert.True(t, seen[k], "default column %q not in catalog", k)
			}
			for _, k := range r.SortableColumns {
				assert.True(t, seen[k], "sortable column %q not in catalog", k)
			}
			for _, k := range r.LockedColumns() {
				assert.Contains(t, r.DefaultColumns, k, "locked column %q missing from defaults", k)
			}
			_, err := filter.Deserialize(&r.FilterTemplate)
			assert.NoError(t, err)
		})
	}
}

func TestLookupUnknownPage(t *testing.T) {
	_, err := Lookup("onchain")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestResolveColumnsSkipsUnknownKeys(t *testing.T) {
	cols := Channels.ResolveColumns([]string{"capacity", "gone", "peerAlias"})
	require.Len(t, cols, 2)
	assert.Equal(t, "capacity", cols[0].Key)
	assert.Equal(t, "peerAlias", cols[1].Key)
	assert.True(t, cols[1].Locked)
}

func TestGroupKey(t *testing.T) {
	tests := []struct {
		groupBy string
		want    string
	}{
		{"", ""},
		{"channels", ""},
		{"peers", "pubKey"},
		{"channelPoint", "channelPoint"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Forwards.GroupKey(tt.groupBy), "groupBy %q", tt.groupBy)
	}
}

func TestFilterCategory(t *testing.T) {
	assert.Equal(t, filter.CategoryNumber, FilterCategory(model.ValueNumber))
	assert.Equal(t, filter.CategoryArray, FilterCategory(model.ValueArray))
	assert.Equal(t, filter.CategoryString, FilterCategory(model.ValueLink))
}

func TestSampleIsDeterministic(t *testing.T) {
	a := Sample(Invoices, 12, 42)
	b := Sample(Invoices, 12, 42)
	require.Len(t, a, 12)
	assert.Equal(t, a, b)

	for _, rec := range a {
		assert.Contains(t, Invoices.EnumOptions["invoiceState"], rec["invoiceState"])
		_, isNumber := rec["value"].(float64)
		assert.True(t, isNumber)
	}
}

func TestSampleSharesPeers(t *testing.T) {
	recs := Sample(Forwards, 30, 7)
	keys := map[any]bool{}
	for _, r := range recs {
		keys[r["pubKey"]] = true
	}
	assert.LessOrEqual(t, len(keys), 10)
}
