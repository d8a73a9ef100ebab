package prediction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shelfwise-ai/shelfwise-backend/internal/catalog"
	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/internal/forecasts"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/metrics"
)

// Predictor is the model surface the orchestrator consumes.
type Predictor interface {
	FeatureNames() []string
	Format() enums.ModelFormat
	Predict(matrix [][]float64) ([]float64, error)
}

// Persister saves enriched predictions as forecast rows.
type Persister interface {
	SaveBatch(ctx context.Context, records []forecasts.Record) (int, error)
}

// RunRequest describes one prediction run.
type RunRequest struct {
	UserID   uuid.UUID
	StoreNbr int
	Horizon  enums.Horizon

	// Rows is the long-form history restricted to the user's store.
	Rows []features.Row

	// Reference pins "today". Zero means the configured demo date, then
	// wall clock UTC.
	Reference time.Time

	SaveResults bool
	SourceFile  string
}

type target struct {
	date     time.Time
	dayIndex int
	dayName  string
}

// Orchestrator drives one run end to end: features, predictions,
// enrichment, aggregation, persistence.
type Orchestrator struct {
	engine    *features.Engine
	predictor Predictor
	catalog   *catalog.Catalog
	persister Persister
	pipeline  *metrics.PipelineMetrics
	cfg       config.PredictionConfig
	log       *logger.Logger
}

func NewOrchestrator(
	engine *features.Engine,
	predictor Predictor,
	cat *catalog.Catalog,
	persister Persister,
	pipeline *metrics.PipelineMetrics,
	cfg config.PredictionConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:    engine,
		predictor: predictor,
		catalog:   cat,
		persister: persister,
		pipeline:  pipeline,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one prediction run. On a persistence failure the computed
// result is still returned alongside the error so callers can surface the
// summary while treating the rows as unsaved.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*Result, error) {
	started := time.Now()
	horizon := string(req.Horizon)

	result, err := o.run(ctx, req)
	o.pipeline.ObserveDuration(horizon, time.Since(started))
	if err != nil {
		o.pipeline.IncFailure(horizon)
		return result, err
	}
	o.pipeline.IncSuccess(horizon)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, req RunRequest) (*Result, error) {
	if !req.Horizon.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid horizon %q", req.Horizon))
	}

	reference, err := o.resolveReference(req.Reference)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "resolving reference date")
	}

	history, err := features.Pivot(req.Rows)
	if err != nil {
		return nil, err
	}

	ctx = o.withRunFields(ctx, req)
	targets := targetsFor(reference, req.Horizon)
	records, skipErr := o.predictTargets(ctx, history, targets, req.Horizon)
	if len(records) == 0 {
		return nil, errors.Wrap(errors.CodePrediction, skipErr, "every target date failed to produce predictions")
	}

	o.learnItemNames(ctx, req.Rows)
	hasItemNames := anyItemNames(req.Rows)
	sourceNames := itemNamesFrom(req.Rows)
	for i := range records {
		o.enrich(&records[i], history, sourceNames)
	}

	result := o.assemble(req, history, targets, records, hasItemNames)

	if req.SaveResults && o.persister != nil {
		saved, persistErr := o.persister.SaveBatch(ctx, o.toForecastRecords(req, records))
		if persistErr != nil {
			return result, persistErr
		}
		result.RowsPersisted = saved
		o.pipeline.AddPersisted(string(req.Horizon), saved)
	}

	if o.log != nil {
		o.log.Info(o.log.WithFields(ctx, map[string]any{
			"predictions":    len(records),
			"rows_persisted": result.RowsPersisted,
		}), "prediction run complete")
	}
	return result, nil
}

// ReferenceOrAnchor picks the run reference for DB-backed callers. An
// explicit date wins; a configured demo pin is left to the run by
// returning zero; otherwise the history anchor keeps frozen demo
// datasets producing stable dates.
func ReferenceOrAnchor(cfg config.PredictionConfig, explicit, anchor time.Time) time.Time {
	if !explicit.IsZero() {
		return explicit
	}
	if strings.TrimSpace(cfg.DemoDate) != "" {
		return time.Time{}
	}
	return anchor
}

// resolveReference prefers an explicit date, then the pinned demo date,
// then wall clock UTC.
func (o *Orchestrator) resolveReference(explicit time.Time) (time.Time, error) {
	if !explicit.IsZero() {
		return midnight(explicit), nil
	}
	pinned, ok, err := o.cfg.ReferenceDate()
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return midnight(pinned), nil
	}
	return midnight(time.Now().UTC()), nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func targetsFor(reference time.Time, horizon enums.Horizon) []target {
	switch horizon {
	case enums.HorizonTomorrow:
		next := reference.AddDate(0, 0, 1)
		return []target{{date: next, dayName: next.Weekday().String()}}
	case enums.Horizon7Days:
		out := make([]target, 7)
		for i := 0; i < 7; i++ {
			date := reference.AddDate(0, 0, i+1)
			out[i] = target{date: date, dayIndex: i + 1, dayName: date.Weekday().String()}
		}
		return out
	default:
		return []target{{date: reference, dayName: reference.Weekday().String()}}
	}
}

// predictTargets runs feature build + predict per target date, skipping
// dates that fail and collecting their errors.
func (o *Orchestrator) predictTargets(ctx context.Context, history *features.History, targets []target, horizon enums.Horizon) ([]Record, error) {
	var records []Record
	var failures error

	for _, tgt := range targets {
		if err := ctx.Err(); err != nil {
			failures = multierr.Append(failures, err)
			break
		}

		preds, err := o.predictOne(ctx, history, tgt.date)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", tgt.date.Format("2006-01-02"), err))
			o.pipeline.IncSkippedDate(string(horizon))
			if o.log != nil {
				o.log.Warn(o.log.WithField(ctx, "target_date", tgt.date.Format("2006-01-02")),
					"skipping target date after prediction failure")
			}
			continue
		}

		for i, key := range history.Keys() {
			records = append(records, Record{
				StoreNbr:       key.StoreNbr,
				ItemNbr:        key.ItemNbr,
				PredictionDate: tgt.date.Format("2006-01-02"),
				PredictedSales: preds[i],
				DayIndex:       tgt.dayIndex,
				DayName:        tgt.dayName,
				date:           tgt.date,
			})
		}
	}
	return records, failures
}

func (o *Orchestrator) predictOne(ctx context.Context, history *features.History, date time.Time) ([]float64, error) {
	frame, err := o.engine.Build(ctx, history, date)
	if err != nil {
		return nil, err
	}
	frame = o.engine.Align(ctx, frame, history, date, o.predictor.FeatureNames())

	matrix, err := frame.Matrix()
	if err != nil {
		return nil, err
	}
	return o.predictor.Predict(matrix)
}

// learnItemNames feeds source-carried names to the catalog before
// enrichment so a run can use names it just saw.
func (o *Orchestrator) learnItemNames(ctx context.Context, rows []features.Row) {
	var observations []catalog.Observation
	seen := map[int]struct{}{}
	for _, r := range rows {
		if r.ItemName == "" {
			continue
		}
		if _, dup := seen[r.ItemNbr]; dup {
			continue
		}
		seen[r.ItemNbr] = struct{}{}
		observations = append(observations, catalog.Observation{ItemNbr: r.ItemNbr, ItemName: r.ItemName})
	}
	if len(observations) == 0 {
		return
	}
	learned := o.catalog.Learn(observations)
	if learned > 0 && o.log != nil {
		o.log.Info(o.log.WithField(ctx, "learned_items", learned), "catalog learned item names from source data")
	}
}

func anyItemNames(rows []features.Row) bool {
	for _, r := range rows {
		if r.ItemName != "" {
			return true
		}
	}
	return false
}

func itemNamesFrom(rows []features.Row) map[int]string {
	names := map[int]string{}
	for _, r := range rows {
		if r.ItemName == "" {
			continue
		}
		if _, ok := names[r.ItemNbr]; !ok {
			names[r.ItemNbr] = r.ItemName
		}
	}
	return names
}

func (o *Orchestrator) enrich(rec *Record, history *features.History, sourceNames map[int]string) {
	attrs := history.Attrs(rec.ItemNbr)
	rec.Category = attrs.Category
	rec.ItemClass = attrs.ItemClass
	rec.Perishable = attrs.Perishable

	if name, ok := sourceNames[rec.ItemNbr]; ok {
		rec.ItemName = name
	} else {
		rec.ItemName = o.catalog.ItemName(rec.ItemNbr)
	}
	rec.CategoryName = o.catalog.CategoryName(rec.Category)
	rec.ClassName = o.catalog.ClassName(rec.ItemClass)
	if rec.Perishable {
		rec.ProductType = "Perishable"
	} else {
		rec.ProductType = "Non-Perishable"
	}
}

func (o *Orchestrator) assemble(req RunRequest, history *features.History, targets []target, records []Record, hasItemNames bool) *Result {
	dates := make([]string, len(targets))
	for i, tgt := range targets {
		dates[i] = tgt.date.Format("2006-01-02")
	}

	info := DataInfo{
		Records:      len(req.Rows),
		UniqueItems:  uniqueItems(req.Rows),
		UniqueStores: uniqueStores(req.Rows),
		HasItemNames: hasItemNames,
	}
	if start, end, ok := history.DateRange(); ok {
		info.DateStart = start.Format("2006-01-02")
		info.DateEnd = end.Format("2006-01-02")
	}

	summary := o.summarize(records, req.Horizon)

	return &Result{
		PredictionType:      string(req.Horizon),
		PredictionDates:     dates,
		DataInfo:            info,
		Summary:             summary,
		DetailedPredictions: records,
		ChartData:           o.chartData(records, summary, req.Horizon),
		GeneratedAt:         time.Now().UTC(),
	}
}

func (o *Orchestrator) toForecastRecords(req RunRequest, records []Record) []forecasts.Record {
	out := make([]forecasts.Record, len(records))
	version := string(o.predictor.Format())
	for i, rec := range records {
		out[i] = forecasts.Record{
			UserID:         req.UserID,
			StoreNbr:       rec.StoreNbr,
			ItemNbr:        rec.ItemNbr,
			PredictionDate: rec.date,
			PredictedSales: rec.PredictedSales,
			ItemName:       rec.ItemName,
			Category:       rec.Category,
			ItemClass:      rec.ItemClass,
			Perishable:     rec.Perishable,
			StoreName:      fmt.Sprintf("Store %d", rec.StoreNbr),
			Horizon:        req.Horizon,
			ModelVersion:   version,
			SourceFile:     req.SourceFile,
		}
	}
	return out
}

func (o *Orchestrator) withRunFields(ctx context.Context, req RunRequest) context.Context {
	if o.log == nil {
		return ctx
	}
	return o.log.WithFields(ctx, map[string]any{
		"user_id":   req.UserID.String(),
		"store_nbr": req.StoreNbr,
		"horizon":   string(req.Horizon),
	})
}

func uniqueItems(rows []features.Row) int {
	seen := map[int]struct{}{}
	for _, r := range rows {
		seen[r.ItemNbr] = struct{}{}
	}
	return len(seen)
}

func uniqueStores(rows []features.Row) int {
	seen := map[int]struct{}{}
	for _, r := range rows {
		seen[r.StoreNbr] = struct{}{}
	}
	return len(seen)
}
