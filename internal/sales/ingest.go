package sales

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

// requiredColumns must all be present (after header normalization) before
// any row is ingested.
var requiredColumns = []string{
	"date",
	"store_nbr",
	"item_nbr",
	"unit_sales",
	"onpromotion",
	"category",
	"item_class",
	"perishable",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// parsedRow is one upload line after type coercion. Optional fields stay
// nil when the cell was blank.
type parsedRow struct {
	Date        time.Time
	StoreNbr    int
	ItemNbr     int
	UnitSales   float64
	OnPromotion bool
	Category    *string
	ItemClass   *int
	Perishable  bool
	UnitPrice   *decimal.Decimal
	UnitCost    *decimal.Decimal
}

// table is the format-independent shape both readers produce: normalized
// header names mapped to column positions, plus raw string cells.
type table struct {
	colIx   map[string]int
	records [][]string
}

func parseUpload(filename string, data []byte) (*table, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(data)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return parseXLSX(data)
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unsupported file format %q, expected .csv or .xlsx", filename))
	}
}

func parseCSV(data []byte) (*table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "parsing csv upload")
	}
	return newTable(rows)
}

func parseXLSX(data []byte) (*table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "parsing xlsx upload")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New(errors.CodeValidation, "xlsx upload has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "reading xlsx sheet")
	}
	return newTable(rows)
}

func newTable(rows [][]string) (*table, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.CodeValidation, "upload contains no rows")
	}

	colIx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		colIx[normalizeHeader(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("upload missing required columns: %s", strings.Join(missing, ", ")))
	}

	return &table{colIx: colIx, records: rows[1:]}, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (t *table) cell(record []string, column string) string {
	ix, ok := t.colIx[column]
	if !ok || ix >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[ix])
}

// parseRow coerces one record. Returns an error for malformed required
// fields; the caller counts those as skipped rows rather than failing the
// whole upload.
func (t *table) parseRow(record []string) (parsedRow, error) {
	var out parsedRow

	date, err := parseDate(t.cell(record, "date"))
	if err != nil {
		return out, err
	}
	out.Date = date

	if out.StoreNbr, err = strconv.Atoi(t.cell(record, "store_nbr")); err != nil {
		return out, fmt.Errorf("store_nbr: %w", err)
	}
	if out.ItemNbr, err = strconv.Atoi(t.cell(record, "item_nbr")); err != nil {
		return out, fmt.Errorf("item_nbr: %w", err)
	}
	if out.UnitSales, err = strconv.ParseFloat(t.cell(record, "unit_sales"), 64); err != nil {
		return out, fmt.Errorf("unit_sales: %w", err)
	}
	if out.UnitSales < 0 {
		return out, fmt.Errorf("unit_sales: negative value %v", out.UnitSales)
	}

	out.OnPromotion = parseFlag(t.cell(record, "onpromotion"))
	out.Perishable = parseFlag(t.cell(record, "perishable"))

	if category := t.cell(record, "category"); category != "" {
		out.Category = &category
	}
	if raw := t.cell(record, "item_class"); raw != "" {
		class, classErr := strconv.Atoi(raw)
		if classErr != nil {
			return out, fmt.Errorf("item_class: %w", classErr)
		}
		out.ItemClass = &class
	}

	out.UnitPrice = parseMoney(t.cell(record, "unit_price"), t.cell(record, "price"))
	out.UnitCost = parseMoney(t.cell(record, "unit_cost"), t.cell(record, "cost_price"))

	return out, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date: empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date: unrecognized value %q", raw)
}

// parseFlag treats blanks and zeros as false; "1", "true", "yes" as true.
func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

// parseMoney tries the canonical column first, then the legacy alias.
func parseMoney(values ...string) *decimal.Decimal {
	for _, raw := range values {
		if raw == "" {
			continue
		}
		if d, err := decimal.NewFromString(raw); err == nil {
			return &d
		}
	}
	return nil
}
