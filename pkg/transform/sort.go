package transform

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

// Sort returns a stably sorted copy of records. Keys are compared in spec
// order; records equal on every key keep their input order. Missing values
// sort last ascending and first descending.
func Sort(records []model.Record, spec model.SortSpec) []model.Record {
	out := slices.Clone(records)
	if len(spec) == 0 {
		return out
	}
	slices.SortStableFunc(out, func(a, b model.Record) int {
		for _, s := range spec {
			if c := compareField(a[s.Key], b[s.Key], s.Direction); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

func compareField(a, b any, dir model.Direction) int {
	am, bm := missing(a), missing(b)
	switch {
	case am && bm:
		return 0
	case am:
		if dir == model.Desc {
			return -1
		}
		return 1
	case bm:
		if dir == model.Desc {
			return 1
		}
		return -1
	}
	c := compareValues(a, b)
	if dir == model.Desc {
		return -c
	}
	return c
}

func missing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

const (
	rankBool = iota
	rankNumber
	rankTime
	rankString
	rankOther
)

func rank(v any) int {
	if _, ok := numeric(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	case string:
		return rankString
	}
	return rankOther
}

// compareValues orders values of the same kind naturally and values of
// different kinds by kind.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNumber:
		x, _ := numeric(a)
		y, _ := numeric(b)
		return cmp.Compare(x, y)
	case rankBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
