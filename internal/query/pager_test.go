package query

import (
	"math"
	"math/big"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestPaginateDefaultsOnNonPositive(t *testing.T) {
	p := Paginate(true, "0", "0")
	assert.Equal(t, Pager{Requested: true, PageNumber: 1, PageSize: 10}, p)
	assert.Equal(t, int64(0), p.Skip())
	assert.Equal(t, int64(10), p.Limit())
}

func TestPaginateThirdPage(t *testing.T) {
	p := Paginate(true, "3", "5")
	assert.Equal(t, int64(10), p.Skip())
	assert.Equal(t, int64(5), p.Limit())

	meta := p.Meta(23, 5)
	assert.Equal(t, int64(5), meta.NumberOfPages)
	assert.Equal(t, int64(3), meta.ActualPage)
	assert.Equal(t, int64(23), meta.TotalItems)
	assert.Equal(t, 5, meta.ItemsInPage)
}

func TestPaginateUnparsableAndAbsent(t *testing.T) {
	assert.Equal(t, Pager{Requested: true, PageNumber: 1, PageSize: 10}, Paginate(true, "two", nil))
	assert.Equal(t, Pager{Requested: true, PageNumber: 4, PageSize: 10}, Paginate(true, 4.0, "-3"))
	assert.Equal(t, Pager{}, Paginate(false, "3", "5"))
}

func TestPaginateNearMaxInt64(t *testing.T) {
	top := strconv.FormatInt(math.MaxInt64, 10)

	p := Paginate(true, top, "10")
	assert.Equal(t, int64(math.MaxInt64/10+1), p.PageNumber)
	assert.Equal(t, int64(math.MaxInt64/10*10), p.Skip())
	assert.Equal(t, p.PageNumber, p.Meta(0, 0).ActualPage)

	assert.Equal(t, int64(1), Paginate(true, "1", top).Meta(5, 5).NumberOfPages)
	assert.Equal(t, int64(1), Paginate(true, top, top).Meta(math.MaxInt64, 0).NumberOfPages)
	assert.Equal(t, int64(math.MaxInt64), Paginate(true, "1", "1").Meta(math.MaxInt64, 0).NumberOfPages)

	d := Descriptor{Pager: Paginate(true, top, "10")}
	skip, limit := d.Window()
	assert.Positive(t, skip)
	assert.Equal(t, int64(10), limit)
}

func TestPagerReport(t *testing.T) {
	assert.Equal(t, PagerDisabled, Pager{}.Report(10, 10))
	assert.Equal(t, Meta{TotalItems: 0, ItemsInPage: 0, NumberOfPages: 0, PageSize: 10, ActualPage: 1},
		Paginate(true, nil, nil).Report(0, 0))
}

func TestPaginateProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)

	properties.Property("page and size are always positive", prop.ForAll(
		func(n, s int64) bool {
			p := Paginate(true, strconv.FormatInt(n, 10), strconv.FormatInt(s, 10))
			return p.PageNumber >= 1 && p.PageSize >= 1
		},
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-1000, 1000),
	))

	properties.Property("skip = (page-1)*size", prop.ForAll(
		func(n, s int64) bool {
			p := Paginate(true, strconv.FormatInt(n, 10), strconv.FormatInt(s, 10))
			return p.Skip() == (n-1)*s && p.Limit() == s
		},
		gen.Int64Range(1, 10000),
		gen.Int64Range(1, 500),
	))

	properties.Property("pages cover the total exactly", prop.ForAll(
		func(total, s int64) bool {
			m := Paginate(true, "1", strconv.FormatInt(s, 10)).Meta(total, 0)
			return m.NumberOfPages*s >= total && (m.NumberOfPages-1)*s < total || total == 0 && m.NumberOfPages == 0
		},
		gen.Int64Range(0, 100000),
		gen.Int64Range(1, 500),
	))

	bigInts := gen.OneGenOf(
		gen.Int64Range(1, 1000),
		gen.Int64Range(math.MaxInt64-1000, math.MaxInt64),
		gen.Int64Range(1, math.MaxInt64),
	)

	properties.Property("skip never overflows", prop.ForAll(
		func(n, s int64) bool {
			p := Paginate(true, strconv.FormatInt(n, 10), strconv.FormatInt(s, 10))
			want := new(big.Int).Mul(big.NewInt(p.PageNumber-1), big.NewInt(p.PageSize))
			return p.Skip() >= 0 && want.IsInt64() && want.Int64() == p.Skip() &&
				p.PageNumber <= n
		},
		bigInts,
		bigInts,
	))

	properties.Property("pages = ceil(total/size) for any size", prop.ForAll(
		func(total, s int64) bool {
			m := Paginate(true, "1", strconv.FormatInt(s, 10)).Meta(total, 0)
			q, r := new(big.Int).QuoRem(big.NewInt(total), big.NewInt(s), new(big.Int))
			if r.Sign() != 0 {
				q.Add(q, big.NewInt(1))
			}
			return q.IsInt64() && q.Int64() == m.NumberOfPages
		},
		bigInts,
		bigInts,
	))

	properties.TestingRun(t)
}
