package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
)

type candidate struct {
	filename string
	format   enums.ModelFormat
	load     func(path string) (*Ensemble, error)
}

// candidates is the fixed priority order for artifact probing. The first
// file that deserializes wins and its format becomes the provenance tag.
var candidates = []candidate{
	{"model_native.txt", enums.ModelFormatLightGBMText, loadLightGBMText},
	{"model.json", enums.ModelFormatJSON, loadJSONEnsemble},
	{"model.gob", enums.ModelFormatGob, loadGobEnsemble},
}

// searchPath is tried in order when no model directory is configured.
var searchPath = []string{
	"models",
	"my_saved_model_resaved",
	"my_saved_model",
}

const schemaFilename = "features.json"

type schemaDocument struct {
	FeatureColumns []string `json:"feature_columns"`
	NumFeatures    int      `json:"num_features"`
	Source         string   `json:"source,omitempty"`
}

// Adapter loads one opaque trained artifact and serves predictions from
// it. Load happens once; the loaded ensemble is read-only afterwards and
// safe for concurrent Predict calls.
type Adapter struct {
	log *logger.Logger

	dir         string
	originalDir string

	mu           sync.RWMutex
	ensemble     *Ensemble
	format       enums.ModelFormat
	featureNames []string
}

func NewAdapter(cfg config.ModelConfig, log *logger.Logger) *Adapter {
	return &Adapter{
		log:         log,
		dir:         cfg.Dir,
		originalDir: cfg.OriginalDir,
	}
}

// Load probes the candidate list and resolves the feature schema. It fails
// only when every candidate fails.
func (a *Adapter) Load(ctx context.Context) error {
	dir, err := a.resolveDir()
	if err != nil {
		return errors.Wrap(errors.CodeModelLoad, err, "resolving model directory")
	}

	var (
		ensemble *Ensemble
		format   enums.ModelFormat
		probeErr error
	)
	for _, c := range candidates {
		path := filepath.Join(dir, c.filename)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		loaded, loadErr := c.load(path)
		if loadErr != nil {
			probeErr = multierr.Append(probeErr, fmt.Errorf("%s: %w", c.filename, loadErr))
			continue
		}
		ensemble = loaded
		format = c.format
		break
	}
	if ensemble == nil {
		if probeErr == nil {
			probeErr = fmt.Errorf("no candidate files found in %s", dir)
		}
		return errors.Wrap(errors.CodeModelLoad, probeErr, "all model format candidates failed")
	}

	names := a.resolveSchema(ctx, dir, ensemble)

	a.mu.Lock()
	a.ensemble = ensemble
	a.format = format
	a.featureNames = names
	a.mu.Unlock()

	if a.log != nil {
		a.log.Info(a.log.WithFields(ctx, map[string]any{
			"model_format": string(format),
			"num_trees":    len(ensemble.Trees),
			"num_features": ensemble.NumFeatures(),
		}), "model artifact loaded")
	}
	return nil
}

// resolveSchema finds the expected feature names: the artifact's own names
// first, then the sibling schema document, then the original (un-resaved)
// directory. A nil result means no schema constraint.
func (a *Adapter) resolveSchema(ctx context.Context, dir string, ensemble *Ensemble) []string {
	if len(ensemble.FeatureNames) > 0 {
		return ensemble.FeatureNames
	}

	if names := readSchemaDocument(filepath.Join(dir, schemaFilename)); len(names) > 0 {
		return names
	}

	originalDir := a.originalDir
	if originalDir == "" {
		originalDir = strings.ReplaceAll(dir, "_resaved", "")
	}
	if originalDir != dir {
		if names := readSchemaDocument(filepath.Join(originalDir, schemaFilename)); len(names) > 0 {
			return names
		}
	}

	if a.log != nil {
		a.log.Warn(ctx, "no feature schema found for model artifact; predictions use generated columns as-is")
	}
	return nil
}

func readSchemaDocument(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc schemaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.FeatureColumns
}

func (a *Adapter) resolveDir() (string, error) {
	if a.dir != "" {
		if _, err := os.Stat(a.dir); err != nil {
			return "", fmt.Errorf("model directory %s: %w", a.dir, err)
		}
		return a.dir, nil
	}
	for _, dir := range searchPath {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no model directory found in search path %v", searchPath)
}

// Loaded reports whether an artifact is active.
func (a *Adapter) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ensemble != nil
}

// Format is the provenance tag of the winning candidate.
func (a *Adapter) Format() enums.ModelFormat {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.format
}

// FeatureNames returns the expected feature schema, or nil when none was
// resolved.
func (a *Adapter) FeatureNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.featureNames
}

// Predict returns one non-negative value per input row. Rows narrower than
// the artifact's expected width propagate as a prediction error.
func (a *Adapter) Predict(matrix [][]float64) ([]float64, error) {
	a.mu.RLock()
	ensemble := a.ensemble
	a.mu.RUnlock()
	if ensemble == nil {
		return nil, errors.New(errors.CodeModelLoad, "model artifact not loaded")
	}

	expected := ensemble.NumFeatures()
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) < expected {
			return nil, errors.New(errors.CodePrediction,
				fmt.Sprintf("feature row %d has %d columns, model expects %d", i, len(row), expected))
		}
		v := ensemble.Predict(row)
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out, nil
}
