package prediction

import "time"

// Record is one enriched prediction for a store/item on a target date.
type Record struct {
	StoreNbr       int     `json:"store_nbr"`
	ItemNbr        int     `json:"item_nbr"`
	PredictionDate string  `json:"prediction_date"`
	PredictedSales float64 `json:"predicted_sales"`
	DayIndex       int     `json:"day_index,omitempty"`
	DayName        string  `json:"day_name,omitempty"`
	ItemName       string  `json:"item_name"`
	Category       string  `json:"category"`
	CategoryName   string  `json:"category_name"`
	ItemClass      int     `json:"item_class"`
	ClassName      string  `json:"class_name"`
	Perishable     bool    `json:"perishable"`
	ProductType    string  `json:"product_type"`

	date time.Time
}

// TopPrediction is one entry of the capped high-value list.
type TopPrediction struct {
	StoreNbr       int     `json:"store_nbr"`
	ItemNbr        int     `json:"item_nbr"`
	ItemName       string  `json:"item_name"`
	CategoryName   string  `json:"category_name"`
	PredictedSales float64 `json:"predicted_sales"`
	DayName        string  `json:"day_name,omitempty"`
}

// Rollup aggregates predictions under one label (a store, a category, a day).
type Rollup struct {
	Label string  `json:"label"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// DayTotal is one day of a 7-day run's breakdown.
type DayTotal struct {
	Date    string  `json:"date"`
	DayName string  `json:"day_name"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

// DailyBreakdown is produced for 7-day runs only.
type DailyBreakdown struct {
	Days    []DayTotal `json:"days"`
	PeakDay DayTotal   `json:"peak_day"`
}

// Summary carries the run-level aggregates.
type Summary struct {
	TotalPredicted float64         `json:"total_predicted"`
	MeanPredicted  float64         `json:"mean_predicted"`
	MaxPredicted   float64         `json:"max_predicted"`
	MinPredicted   float64         `json:"min_predicted"`
	Records        int             `json:"records"`
	UniqueItems    int             `json:"unique_items"`
	UniqueStores   int             `json:"unique_stores"`
	TopPredictions []TopPrediction `json:"top_predictions"`
	StoreTotals    []Rollup        `json:"store_totals"`
	CategoryTotals []Rollup        `json:"category_totals"`
	Daily          *DailyBreakdown `json:"daily,omitempty"`
}

// ChartData is one renderable series: labels/values descending with a
// cyclic color per slice.
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
	Total  float64   `json:"total"`
}

// DataInfo describes the history the run was built from.
type DataInfo struct {
	Records      int    `json:"records"`
	UniqueItems  int    `json:"unique_items"`
	UniqueStores int    `json:"unique_stores"`
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	HasItemNames bool   `json:"has_item_names"`
}

// Result is the full envelope returned for one prediction run.
type Result struct {
	PredictionType      string               `json:"prediction_type"`
	PredictionDates     []string             `json:"prediction_dates"`
	DataInfo            DataInfo             `json:"data_info"`
	Summary             Summary              `json:"summary"`
	DetailedPredictions []Record             `json:"detailed_predictions"`
	ChartData           map[string]ChartData `json:"chart_data"`
	GeneratedAt         time.Time            `json:"generated_at"`
	RowsPersisted       int                  `json:"rows_persisted"`
}
