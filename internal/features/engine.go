package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
)

var baseWindows = []int{7, 14, 30, 60}

var extraWindows = []int{3, 5, 21, 90}

const minHistoryDays = 30

// Engine builds model-ready feature tables from pivoted sales history.
type Engine struct {
	log *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Build produces one feature row per (store, item) pair for the target
// date. Every window statistic falls back to 0 when the window has no
// available history columns.
func (e *Engine) Build(ctx context.Context, h *History, target time.Time) (*Frame, error) {
	if h.Days() < minHistoryDays && e.log != nil {
		e.log.Warn(ctx, fmt.Sprintf("only %d days of history; feature quality degraded below %d days", h.Days(), minHistoryDays))
	}

	n := h.NumPairs()
	frame := NewFrame(n)

	for _, period := range baseWindows {
		cols := h.timespan(target, period, period, 1)
		stats := map[string][]float64{
			"mean":          make([]float64, n),
			"median":        make([]float64, n),
			"std":           make([]float64, n),
			"max":           make([]float64, n),
			"min":           make([]float64, n),
			"sum":           make([]float64, n),
			"weighted_mean": make([]float64, n),
			"diff_mean":     make([]float64, n),
		}
		if len(cols) > 0 {
			for r := 0; r < n; r++ {
				values := h.salesAt(r, cols)
				stats["mean"][r] = mean(values)
				stats["median"][r] = median(values)
				stats["std"][r] = popStd(values)
				stats["max"][r] = maxOf(values)
				stats["min"][r] = minOf(values)
				stats["sum"][r] = sum(values)
				stats["weighted_mean"][r] = weightedMean(values)
				stats["diff_mean"][r] = diffMean(values)
			}
		}
		for _, name := range []string{"mean", "median", "std", "max", "min", "sum", "weighted_mean", "diff_mean"} {
			frame.AddNumeric(fmt.Sprintf("%s_%d", name, period), stats[name])
		}
	}

	for _, period := range baseWindows {
		cols := h.timespan(target, period, period, 1)
		sums := make([]float64, n)
		means := make([]float64, n)
		if len(cols) > 0 {
			for r := 0; r < n; r++ {
				values := h.promoAt(r, cols)
				sums[r] = sum(values)
				means[r] = mean(values)
			}
		}
		frame.AddNumeric(fmt.Sprintf("promo_sum_%d", period), sums)
		frame.AddNumeric(fmt.Sprintf("promo_mean_%d", period), means)
	}

	for lag := 1; lag <= 7; lag++ {
		values := make([]float64, n)
		if cols := h.timespan(target, lag, 1, 1); len(cols) > 0 {
			for r := 0; r < n; r++ {
				values[r] = h.sales[r][cols[0]]
			}
		}
		frame.AddNumeric(fmt.Sprintf("lag_%d", lag), values)
	}

	targetDow := weekdayIndex(target)
	for _, weeks := range []int{4, 8} {
		// Same weekday as target across the preceding weeks.
		values := make([]float64, n)
		if cols := h.timespan(target, weeks*7, weeks, 7); len(cols) > 0 {
			for r := 0; r < n; r++ {
				values[r] = mean(h.salesAt(r, cols))
			}
		}
		frame.AddNumeric(fmt.Sprintf("dow_mean_%dw", weeks), values)
	}

	stores := make([]float64, n)
	items := make([]float64, n)
	categories := make([]string, n)
	classes := make([]float64, n)
	perishables := make([]float64, n)
	for r, key := range h.Keys() {
		stores[r] = float64(key.StoreNbr)
		items[r] = float64(key.ItemNbr)
		attrs := h.Attrs(key.ItemNbr)
		if attrs.Known {
			categories[r] = attrs.Category
			classes[r] = float64(attrs.ItemClass)
			if attrs.Perishable {
				perishables[r] = 1
			}
		}
	}
	frame.AddNumeric("store_nbr", stores)
	frame.AddNumeric("item_nbr", items)
	frame.AddString("category", categories)
	frame.AddNumeric("item_class", classes)
	frame.AddNumeric("perishable", perishables)

	frame.AddNumeric("dayofweek", constant(n, float64(targetDow)))
	frame.AddNumeric("month", constant(n, float64(target.Month())))
	frame.AddNumeric("quarter", constant(n, float64((int(target.Month())-1)/3+1)))
	frame.AddNumeric("year", constant(n, float64(target.Year())))
	frame.AddNumeric("day", constant(n, float64(target.Day())))

	frame.Coerce()
	return frame, nil
}

// Align reconciles the frame against the model's expected column schema.
// A nil/empty schema passes the frame through untouched (flagged in logs).
func (e *Engine) Align(ctx context.Context, frame *Frame, h *History, target time.Time, expected []string) *Frame {
	if len(expected) == 0 {
		if e.log != nil {
			e.log.Warn(ctx, "no feature schema available; passing generated columns through as-is")
		}
		return frame
	}

	if isGenericSchema(expected) {
		if frame.Width() < len(expected) {
			e.addSupplementary(frame, h, target, len(expected)-frame.Width())
		}
		frame.Truncate(len(expected))
		frame.PadZeros(len(expected))
		frame.Rename(expected)
		return frame
	}

	frame.Select(expected)
	return frame
}

// isGenericSchema reports positional-only schemas (Column_0, Column_1, ...).
func isGenericSchema(expected []string) bool {
	for _, name := range expected {
		if !strings.HasPrefix(name, "Column_") {
			return false
		}
	}
	return len(expected) > 0
}

// addSupplementary extends the frame with the deterministic derived-feature
// series used to fill a positional schema: extra rolling windows, calendar
// and identifier interactions, a short/long ratio, a window range, squared
// terms, then zero columns.
func (e *Engine) addSupplementary(frame *Frame, h *History, target time.Time, needed int) {
	n := frame.Len()
	count := 0

	for _, period := range extraWindows {
		if count >= needed {
			break
		}
		cols := h.timespan(target, period, period, 1)
		means := make([]float64, n)
		stds := make([]float64, n)
		if len(cols) > 0 {
			for r := 0; r < n; r++ {
				values := h.salesAt(r, cols)
				means[r] = mean(values)
				stds[r] = popStd(values)
			}
		}
		frame.AddNumeric(fmt.Sprintf("mean_%d_extra", period), means)
		count++
		if count < needed {
			frame.AddNumeric(fmt.Sprintf("std_%d_extra", period), stds)
			count++
		}
	}

	if count < needed {
		if product, ok := columnProduct(frame, "store_nbr", "month"); ok {
			frame.AddNumeric("store_month_interaction", product)
			count++
		}
	}
	if count < needed {
		if product, ok := columnProduct(frame, "dayofweek", "quarter"); ok {
			frame.AddNumeric("dow_quarter_interaction", product)
			count++
		}
	}
	if count < needed {
		short, okShort := frame.Column("mean_7")
		long, okLong := frame.Column("mean_30")
		if okShort && okLong {
			ratio := make([]float64, n)
			for i := range ratio {
				ratio[i] = short[i] / (long[i] + 0.001)
			}
			frame.AddNumeric("ratio_7_30", ratio)
			count++
		}
	}
	if count < needed {
		high, okHigh := frame.Column("max_7")
		low, okLow := frame.Column("min_7")
		if okHigh && okLow {
			span := make([]float64, n)
			for i := range span {
				span[i] = high[i] - low[i]
			}
			frame.AddNumeric("range_7", span)
			count++
		}
	}

	for _, name := range []string{"store_nbr", "item_nbr", "dayofweek", "month"} {
		if count >= needed {
			break
		}
		if values, ok := frame.Column(name); ok {
			squared := make([]float64, n)
			for i, v := range values {
				squared[i] = v * v
			}
			frame.AddNumeric(name+"_squared", squared)
			count++
		}
	}

	for count < needed {
		frame.AddNumeric(fmt.Sprintf("zero_feature_%d", count), make([]float64, n))
		count++
	}
}

func columnProduct(frame *Frame, a, b string) ([]float64, bool) {
	left, okLeft := frame.Column(a)
	right, okRight := frame.Column(b)
	if !okLeft || !okRight {
		return nil, false
	}
	out := make([]float64, len(left))
	for i := range out {
		out[i] = left[i] * right[i]
	}
	return out, true
}

func constant(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// weekdayIndex maps Monday to 0 through Sunday to 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
