package prediction

import (
	"fmt"
	"sort"

	"github.com/shelfwise-ai/shelfwise-backend/internal/catalog"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
)

// Heads of the diverse top list: a few global maxima first, then the best
// row per store, then the best row per item until the cap.
const (
	globalTopHead = 5
	storeTopHead  = 10

	defaultTopCap    = 1000
	defaultChartTopN = 10
)

func (o *Orchestrator) summarize(records []Record, horizon enums.Horizon) Summary {
	summary := Summary{Records: len(records)}
	if len(records) == 0 {
		return summary
	}

	items := map[int]struct{}{}
	stores := map[int]struct{}{}
	summary.MinPredicted = records[0].PredictedSales
	for _, rec := range records {
		summary.TotalPredicted += rec.PredictedSales
		if rec.PredictedSales > summary.MaxPredicted {
			summary.MaxPredicted = rec.PredictedSales
		}
		if rec.PredictedSales < summary.MinPredicted {
			summary.MinPredicted = rec.PredictedSales
		}
		items[rec.ItemNbr] = struct{}{}
		stores[rec.StoreNbr] = struct{}{}
	}
	summary.MeanPredicted = summary.TotalPredicted / float64(len(records))
	summary.UniqueItems = len(items)
	summary.UniqueStores = len(stores)

	summary.TopPredictions = o.topPredictions(records)
	summary.StoreTotals = rollupBy(records, func(r Record) string { return fmt.Sprintf("Store %d", r.StoreNbr) })
	summary.CategoryTotals = rollupBy(records, func(r Record) string { return r.CategoryName })

	if horizon == enums.Horizon7Days {
		summary.Daily = dailyBreakdown(records)
	}
	return summary
}

// topPredictions builds the capped diverse list: global maxima, then one
// best row per store not yet represented, then one best row per item not
// yet represented.
func (o *Orchestrator) topPredictions(records []Record) []TopPrediction {
	limit := o.cfg.TopPredictions
	if limit <= 0 {
		limit = defaultTopCap
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PredictedSales > sorted[j].PredictedSales
	})

	var out []TopPrediction
	seenStores := map[int]struct{}{}
	seenItems := map[int]struct{}{}
	add := func(rec Record) {
		out = append(out, TopPrediction{
			StoreNbr:       rec.StoreNbr,
			ItemNbr:        rec.ItemNbr,
			ItemName:       rec.ItemName,
			CategoryName:   rec.CategoryName,
			PredictedSales: rec.PredictedSales,
			DayName:        rec.DayName,
		})
		seenStores[rec.StoreNbr] = struct{}{}
		seenItems[rec.ItemNbr] = struct{}{}
	}

	for i := 0; i < len(sorted) && i < globalTopHead && len(out) < limit; i++ {
		add(sorted[i])
	}

	storeBest := bestBy(sorted, func(r Record) int { return r.StoreNbr })
	for i := 0; i < len(storeBest) && i < storeTopHead && len(out) < limit; i++ {
		if _, dup := seenStores[storeBest[i].StoreNbr]; dup {
			continue
		}
		add(storeBest[i])
	}

	itemBest := bestBy(sorted, func(r Record) int { return r.ItemNbr })
	for _, rec := range itemBest {
		if len(out) >= limit {
			break
		}
		if _, dup := seenItems[rec.ItemNbr]; dup {
			continue
		}
		add(rec)
	}
	return out
}

// bestBy keeps the highest-prediction row per key, preserving the input's
// descending order.
func bestBy(sortedDesc []Record, key func(Record) int) []Record {
	seen := map[int]struct{}{}
	var out []Record
	for _, rec := range sortedDesc {
		k := key(rec)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func rollupBy(records []Record, label func(Record) string) []Rollup {
	sums := map[string]*Rollup{}
	order := []string{}
	for _, rec := range records {
		l := label(rec)
		entry, ok := sums[l]
		if !ok {
			entry = &Rollup{Label: l}
			sums[l] = entry
			order = append(order, l)
		}
		entry.Sum += rec.PredictedSales
		entry.Count++
	}

	out := make([]Rollup, 0, len(order))
	for _, l := range order {
		entry := sums[l]
		entry.Mean = entry.Sum / float64(entry.Count)
		out = append(out, *entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sum > out[j].Sum })
	return out
}

func dailyBreakdown(records []Record) *DailyBreakdown {
	byDay := map[int]*DayTotal{}
	order := []int{}
	for _, rec := range records {
		entry, ok := byDay[rec.DayIndex]
		if !ok {
			entry = &DayTotal{Date: rec.PredictionDate, DayName: rec.DayName}
			byDay[rec.DayIndex] = entry
			order = append(order, rec.DayIndex)
		}
		entry.Total += rec.PredictedSales
		entry.Count++
	}
	sort.Ints(order)

	breakdown := &DailyBreakdown{Days: make([]DayTotal, 0, len(order))}
	for _, ix := range order {
		day := *byDay[ix]
		breakdown.Days = append(breakdown.Days, day)
		if day.Total > breakdown.PeakDay.Total || breakdown.PeakDay.DayName == "" {
			breakdown.PeakDay = day
		}
	}
	return breakdown
}

// chartData renders the rollups as chart series with cyclic palette colors.
// The item series aggregates every record, not the diverse top list, so an
// item selling across stores or days charts its full total.
func (o *Orchestrator) chartData(records []Record, summary Summary, horizon enums.Horizon) map[string]ChartData {
	topN := o.cfg.ChartTopN
	if topN <= 0 {
		topN = defaultChartTopN
	}
	itemCap := o.cfg.TopPredictions
	if itemCap <= 0 {
		itemCap = defaultTopCap
	}

	itemRollups := rollupBy(records, func(r Record) string { return r.ItemName })

	charts := map[string]ChartData{
		"by_category": chartFromRollups(summary.CategoryTotals, topN),
		"by_item":     chartFromRollups(itemRollups, itemCap),
		"by_store":    chartFromRollups(summary.StoreTotals, topN),
	}

	if horizon == enums.Horizon7Days && summary.Daily != nil {
		dayRollups := make([]Rollup, len(summary.Daily.Days))
		for i, day := range summary.Daily.Days {
			dayRollups[i] = Rollup{Label: day.DayName, Sum: day.Total, Count: day.Count}
		}
		sort.SliceStable(dayRollups, func(i, j int) bool { return dayRollups[i].Sum > dayRollups[j].Sum })
		charts["by_day"] = chartFromRollups(dayRollups, len(dayRollups))
	}
	return charts
}

// chartFromRollups truncates to the top-N groups but totals over every
// group, so slice percentages stay meaningful past the cutoff.
func chartFromRollups(rollups []Rollup, topN int) ChartData {
	if topN > len(rollups) {
		topN = len(rollups)
	}
	chart := ChartData{
		Labels: make([]string, topN),
		Values: make([]float64, topN),
		Colors: catalog.Colors(topN),
	}
	for i := range rollups {
		if i < topN {
			chart.Labels[i] = rollups[i].Label
			chart.Values[i] = rollups[i].Sum
		}
		chart.Total += rollups[i].Sum
	}
	return chart
}
