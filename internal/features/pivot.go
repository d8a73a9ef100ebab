package features

import (
	"sort"
	"time"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

// Row is one long-form sales observation for a store/item/day.
type Row struct {
	Date        time.Time
	StoreNbr    int
	ItemNbr     int
	UnitSales   float64
	OnPromotion bool
	Category    string
	ItemClass   int
	Perishable  bool
	ItemName    string
}

// Key identifies one (store, item) pair — one feature row.
type Key struct {
	StoreNbr int
	ItemNbr  int
}

// ItemAttrs carries the catalog attributes joined onto feature rows.
// Known is false for items with no attribute row; their feature columns
// stay null-equivalent and the row is never dropped.
type ItemAttrs struct {
	Category   string
	ItemClass  int
	Perishable bool
	Known      bool
}

// History holds the pivoted wide matrices: one row per (store, item) pair,
// one column per historical date. Missing cells are zero sales / no promo.
type History struct {
	keys   []Key
	dates  []time.Time
	dateIx map[int64]int
	sales  [][]float64
	promo  [][]float64
	attrs  map[int]ItemAttrs
}

func dayKey(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

// Pivot reshapes long-form rows into the wide sales and promotion matrices.
// Item attributes are deduplicated first-occurrence-wins by item number.
func Pivot(rows []Row) (*History, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.CodeNoData, "no sales rows to pivot")
	}

	keySet := map[Key]struct{}{}
	dateSet := map[int64]struct{}{}
	attrs := map[int]ItemAttrs{}

	for _, r := range rows {
		keySet[Key{StoreNbr: r.StoreNbr, ItemNbr: r.ItemNbr}] = struct{}{}
		dateSet[dayKey(r.Date)] = struct{}{}
		if _, seen := attrs[r.ItemNbr]; !seen {
			attrs[r.ItemNbr] = ItemAttrs{
				Category:   r.Category,
				ItemClass:  r.ItemClass,
				Perishable: r.Perishable,
				Known:      true,
			}
		}
	}

	keys := make([]Key, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StoreNbr != keys[j].StoreNbr {
			return keys[i].StoreNbr < keys[j].StoreNbr
		}
		return keys[i].ItemNbr < keys[j].ItemNbr
	})

	days := make([]int64, 0, len(dateSet))
	for d := range dateSet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	dates := make([]time.Time, len(days))
	dateIx := make(map[int64]int, len(days))
	for i, d := range days {
		dates[i] = time.Unix(d, 0).UTC()
		dateIx[d] = i
	}

	keyIx := make(map[Key]int, len(keys))
	for i, k := range keys {
		keyIx[k] = i
	}

	sales := make([][]float64, len(keys))
	promo := make([][]float64, len(keys))
	for i := range keys {
		sales[i] = make([]float64, len(dates))
		promo[i] = make([]float64, len(dates))
	}

	for _, r := range rows {
		row := keyIx[Key{StoreNbr: r.StoreNbr, ItemNbr: r.ItemNbr}]
		col := dateIx[dayKey(r.Date)]
		sales[row][col] = r.UnitSales
		if r.OnPromotion {
			promo[row][col] = 1
		}
	}

	return &History{
		keys:   keys,
		dates:  dates,
		dateIx: dateIx,
		sales:  sales,
		promo:  promo,
		attrs:  attrs,
	}, nil
}

// Keys returns the (store, item) pairs in row order.
func (h *History) Keys() []Key {
	return h.keys
}

// NumPairs is the pivoted row count.
func (h *History) NumPairs() int {
	return len(h.keys)
}

// Days is the number of distinct history dates.
func (h *History) Days() int {
	return len(h.dates)
}

// DateRange returns the earliest and latest history dates.
func (h *History) DateRange() (time.Time, time.Time, bool) {
	if len(h.dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return h.dates[0], h.dates[len(h.dates)-1], true
}

// Attrs looks up the deduplicated attribute row for an item.
func (h *History) Attrs(itemNbr int) ItemAttrs {
	return h.attrs[itemNbr]
}

// timespan returns the column indices of the dates in the requested span
// that actually exist in the history, in chronological order. The span
// starts at target - minusDays and takes periods steps of stepDays.
func (h *History) timespan(target time.Time, minusDays, periods, stepDays int) []int {
	cols := make([]int, 0, periods)
	start := target.AddDate(0, 0, -minusDays)
	for i := 0; i < periods; i++ {
		d := start.AddDate(0, 0, i*stepDays)
		if ix, ok := h.dateIx[dayKey(d)]; ok {
			cols = append(cols, ix)
		}
	}
	return cols
}

// salesAt gathers one pivot row's values at the given columns.
func (h *History) salesAt(row int, cols []int) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = h.sales[row][c]
	}
	return out
}

func (h *History) promoAt(row int, cols []int) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = h.promo[row][c]
	}
	return out
}
