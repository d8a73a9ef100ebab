package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise-ai/shelfwise-backend/internal/catalog"
	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/internal/forecasts"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

type fakePredictor struct {
	names    []string
	value    float64
	failures int
	calls    int
}

func (f *fakePredictor) FeatureNames() []string { return f.names }

func (f *fakePredictor) Format() enums.ModelFormat { return enums.ModelFormatJSON }

func (f *fakePredictor) Predict(matrix [][]float64) ([]float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New(errors.CodePrediction, "induced failure")
	}
	out := make([]float64, len(matrix))
	for i := range out {
		out[i] = f.value
	}
	return out, nil
}

type fakePersister struct {
	saved []forecasts.Record
	err   error
}

func (f *fakePersister) SaveBatch(_ context.Context, records []forecasts.Record) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, records...)
	return len(records), nil
}

func newOrchestrator(predictor Predictor, persister Persister) *Orchestrator {
	return NewOrchestrator(
		features.NewEngine(nil),
		predictor,
		catalog.New(),
		persister,
		nil,
		config.PredictionConfig{TopPredictions: 1000, ChartTopN: 10},
		nil,
	)
}

func historyRows(days int, names bool) []features.Row {
	reference := time.Date(2017, 8, 15, 0, 0, 0, 0, time.UTC)
	rows := make([]features.Row, 0, days)
	for i := days; i > 0; i-- {
		row := features.Row{
			Date:       reference.AddDate(0, 0, -i+1),
			StoreNbr:   1,
			ItemNbr:    100,
			UnitSales:  5,
			Category:   "SEAFOOD SPECIALS",
			ItemClass:  1040,
			Perishable: true,
		}
		if names {
			row.ItemName = "Fresh Tilapia"
		}
		rows = append(rows, row)
	}
	return rows
}

func baseRequest(horizon enums.Horizon, save bool) RunRequest {
	return RunRequest{
		UserID:      uuid.New(),
		StoreNbr:    1,
		Horizon:     horizon,
		Rows:        historyRows(10, true),
		Reference:   time.Date(2017, 8, 15, 0, 0, 0, 0, time.UTC),
		SaveResults: save,
	}
}

func TestRunTomorrowScenario(t *testing.T) {
	predictor := &fakePredictor{value: 5}
	orch := newOrchestrator(predictor, nil)

	result, err := orch.Run(context.Background(), baseRequest(enums.HorizonTomorrow, false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PredictionType != "tomorrow" {
		t.Fatalf("prediction_type = %s", result.PredictionType)
	}
	if len(result.PredictionDates) != 1 || result.PredictionDates[0] != "2017-08-16" {
		t.Fatalf("unexpected prediction dates %v", result.PredictionDates)
	}
	if len(result.DetailedPredictions) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.DetailedPredictions))
	}

	rec := result.DetailedPredictions[0]
	if rec.PredictedSales != 5 {
		t.Fatalf("predicted = %v", rec.PredictedSales)
	}
	if rec.ItemName != "Fresh Tilapia" {
		t.Fatalf("item name = %q, want learned source name", rec.ItemName)
	}
	if rec.CategoryName != "Seafood Specials" {
		t.Fatalf("category name = %q, want humanized fallback", rec.CategoryName)
	}
	if rec.ProductType != "Perishable" {
		t.Fatalf("product type = %q", rec.ProductType)
	}
	if !result.DataInfo.HasItemNames {
		t.Fatal("data_info should flag item names")
	}
}

func TestRunSevenDaysProducesSevenConsecutiveDates(t *testing.T) {
	orch := newOrchestrator(&fakePredictor{value: 2}, nil)

	result, err := orch.Run(context.Background(), baseRequest(enums.Horizon7Days, false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.PredictionDates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(result.PredictionDates))
	}
	for i, date := range result.PredictionDates {
		want := time.Date(2017, 8, 16+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if date != want {
			t.Fatalf("date[%d] = %s, want %s", i, date, want)
		}
	}
	if result.Summary.Daily == nil {
		t.Fatal("7days run must include a daily breakdown")
	}
	if len(result.Summary.Daily.Days) != 7 {
		t.Fatalf("daily breakdown has %d days", len(result.Summary.Daily.Days))
	}
	if result.Summary.Daily.PeakDay.Total != 2 {
		t.Fatalf("peak day total = %v", result.Summary.Daily.PeakDay.Total)
	}
	if _, ok := result.ChartData["by_day"]; !ok {
		t.Fatal("7days run must include the by_day chart")
	}
}

func TestRunSkipsFailingDatesAndContinues(t *testing.T) {
	predictor := &fakePredictor{value: 3, failures: 2}
	orch := newOrchestrator(predictor, nil)

	result, err := orch.Run(context.Background(), baseRequest(enums.Horizon7Days, false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.DetailedPredictions) != 5 {
		t.Fatalf("expected 5 surviving records, got %d", len(result.DetailedPredictions))
	}
}

func TestRunFatalWhenAllDatesFail(t *testing.T) {
	predictor := &fakePredictor{failures: 7}
	orch := newOrchestrator(predictor, nil)

	_, err := orch.Run(context.Background(), baseRequest(enums.Horizon7Days, false))
	if err == nil {
		t.Fatal("expected run-level fatal")
	}
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodePrediction {
		t.Fatalf("expected prediction error, got %v", err)
	}
}

func TestRunRejectsInvalidHorizon(t *testing.T) {
	orch := newOrchestrator(&fakePredictor{value: 1}, nil)
	req := baseRequest(enums.Horizon("monthly"), false)

	_, err := orch.Run(context.Background(), req)
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunFailsWithoutHistory(t *testing.T) {
	orch := newOrchestrator(&fakePredictor{value: 1}, nil)
	req := baseRequest(enums.HorizonToday, false)
	req.Rows = nil

	_, err := orch.Run(context.Background(), req)
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeNoData {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestRunPersistsEnrichedRecords(t *testing.T) {
	persister := &fakePersister{}
	orch := newOrchestrator(&fakePredictor{value: 4}, persister)
	req := baseRequest(enums.HorizonToday, true)
	req.SourceFile = "sales.csv"

	result, err := orch.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RowsPersisted != 1 {
		t.Fatalf("rows persisted = %d", result.RowsPersisted)
	}
	if len(persister.saved) != 1 {
		t.Fatalf("saved %d records", len(persister.saved))
	}
	saved := persister.saved[0]
	if saved.UserID != req.UserID {
		t.Fatal("persisted record lost its user")
	}
	if saved.ModelVersion != string(enums.ModelFormatJSON) {
		t.Fatalf("model version = %q", saved.ModelVersion)
	}
	if saved.Category != "SEAFOOD SPECIALS" {
		t.Fatalf("category = %q, want the raw source code, not the display name", saved.Category)
	}
	if saved.SourceFile != "sales.csv" {
		t.Fatalf("source file = %q", saved.SourceFile)
	}
	if saved.Horizon != enums.HorizonToday {
		t.Fatalf("horizon = %q", saved.Horizon)
	}
}

func TestRunReturnsResultAlongsidePersistenceFailure(t *testing.T) {
	persister := &fakePersister{err: errors.New(errors.CodePersistence, "induced")}
	orch := newOrchestrator(&fakePredictor{value: 4}, persister)

	result, err := orch.Run(context.Background(), baseRequest(enums.HorizonToday, true))
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if result == nil {
		t.Fatal("computed result must still be returned when persistence fails")
	}
	if result.RowsPersisted != 0 {
		t.Fatalf("rows persisted = %d, want 0", result.RowsPersisted)
	}
}

func TestReferenceOrAnchor(t *testing.T) {
	anchor := time.Date(2017, 8, 15, 0, 0, 0, 0, time.UTC)
	explicit := time.Date(2017, 8, 1, 0, 0, 0, 0, time.UTC)

	if got := ReferenceOrAnchor(config.PredictionConfig{}, explicit, anchor); got != explicit {
		t.Fatalf("explicit date must win, got %v", got)
	}
	if got := ReferenceOrAnchor(config.PredictionConfig{DemoDate: "2017-08-10"}, time.Time{}, anchor); !got.IsZero() {
		t.Fatalf("configured demo pin must defer to the run, got %v", got)
	}
	if got := ReferenceOrAnchor(config.PredictionConfig{}, time.Time{}, anchor); got != anchor {
		t.Fatalf("anchor must be the fallback, got %v", got)
	}
}

func TestRunResolvesConfiguredDemoDate(t *testing.T) {
	orch := NewOrchestrator(
		features.NewEngine(nil),
		&fakePredictor{value: 1},
		catalog.New(),
		nil,
		nil,
		config.PredictionConfig{DemoDate: "2017-08-15", TopPredictions: 1000, ChartTopN: 10},
		nil,
	)
	req := baseRequest(enums.HorizonTomorrow, false)
	req.Reference = time.Time{}

	result, err := orch.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.PredictionDates) != 1 || result.PredictionDates[0] != "2017-08-16" {
		t.Fatalf("demo pin not honored, dates %v", result.PredictionDates)
	}
}

func TestLearnNeverOverwritesExistingMapping(t *testing.T) {
	orch := newOrchestrator(&fakePredictor{value: 1}, nil)
	orch.catalog.SetItemName(100, "Curated Name")

	result, err := orch.Run(context.Background(), baseRequest(enums.HorizonToday, false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.DetailedPredictions[0].ItemName; got != "Fresh Tilapia" {
		// Source-carried names win for the run itself even when the
		// catalog keeps its curated entry.
		t.Fatalf("record item name = %q", got)
	}
	if name := orch.catalog.ItemName(100); name != "Curated Name" {
		t.Fatalf("catalog overwrote an existing mapping: %q", name)
	}
}

func TestRunWithoutSourceNamesFallsBackToCatalog(t *testing.T) {
	orch := newOrchestrator(&fakePredictor{value: 1}, nil)
	req := baseRequest(enums.HorizonToday, false)
	req.Rows = historyRows(10, false)

	result, err := orch.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := result.DetailedPredictions[0]
	if rec.ItemName == "" {
		t.Fatal("enrichment must always produce an item name")
	}
	if result.DataInfo.HasItemNames {
		t.Fatal("data_info should not flag item names")
	}
}
