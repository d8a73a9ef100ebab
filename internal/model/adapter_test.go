package model

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
)

const lightgbmFixture = `tree
version=v3
num_class=1
max_feature_idx=1
objective=regression
feature_names=mean_7 lag_1

Tree=0
num_leaves=2
split_feature=0
threshold=2.5
left_child=-1
right_child=-2
leaf_value=1.0 3.0

end of trees
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func sampleEnsemble() Ensemble {
	return Ensemble{
		FeatureNames: []string{"mean_7", "lag_1"},
		Trees: []Tree{{
			SplitFeature: []int{0},
			Threshold:    []float64{2.5},
			LeftChild:    []int{-1},
			RightChild:   []int{-2},
			LeafValue:    []float64{1.0, 3.0},
		}},
	}
}

func TestLoadLightGBMTextWinsPriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model_native.txt", lightgbmFixture)

	payload, err := json.Marshal(sampleEnsemble())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if adapter.Format() != enums.ModelFormatLightGBMText {
		t.Fatalf("expected native text to win priority, got %s", adapter.Format())
	}
	names := adapter.FeatureNames()
	if len(names) != 2 || names[0] != "mean_7" || names[1] != "lag_1" {
		t.Fatalf("unexpected schema %v", names)
	}
}

func TestLoadFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model_native.txt", "not a model at all")
	payload, err := json.Marshal(sampleEnsemble())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if adapter.Format() != enums.ModelFormatJSON {
		t.Fatalf("expected json fallback, got %s", adapter.Format())
	}
}

func TestLoadGobEnsemble(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "model.gob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ensemble := sampleEnsemble()
	if err := gob.NewEncoder(f).Encode(&ensemble); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if adapter.Format() != enums.ModelFormatGob {
		t.Fatalf("expected gob format, got %s", adapter.Format())
	}
}

func TestLoadFailsWhenAllCandidatesFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model_native.txt", "garbage")
	writeFile(t, dir, "model.json", "{not json")

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err == nil {
		t.Fatal("expected fatal load error")
	}
	if adapter.Loaded() {
		t.Fatal("adapter should not report loaded after failure")
	}
}

func TestSchemaFallsBackToDocument(t *testing.T) {
	dir := t.TempDir()
	ensemble := sampleEnsemble()
	ensemble.FeatureNames = nil
	payload, err := json.Marshal(ensemble)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))
	writeFile(t, dir, "features.json", `{"feature_columns":["Column_0","Column_1"],"num_features":2}`)

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := adapter.FeatureNames()
	if len(names) != 2 || names[0] != "Column_0" {
		t.Fatalf("expected schema from document, got %v", names)
	}
}

func TestSchemaFallsBackToOriginalDir(t *testing.T) {
	dir := t.TempDir()
	originalDir := t.TempDir()

	ensemble := sampleEnsemble()
	ensemble.FeatureNames = nil
	payload, err := json.Marshal(ensemble)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))
	writeFile(t, originalDir, "features.json", `{"feature_columns":["a","b"]}`)

	adapter := NewAdapter(config.ModelConfig{Dir: dir, OriginalDir: originalDir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := adapter.FeatureNames()
	if len(names) != 2 || names[0] != "a" {
		t.Fatalf("expected schema from original directory, got %v", names)
	}
}

func TestPredictEvaluatesAndClamps(t *testing.T) {
	dir := t.TempDir()
	ensemble := Ensemble{
		FeatureNames: []string{"f0"},
		Trees: []Tree{{
			SplitFeature: []int{0},
			Threshold:    []float64{1.0},
			LeftChild:    []int{-1},
			RightChild:   []int{-2},
			LeafValue:    []float64{-5.0, 2.0},
		}},
	}
	payload, err := json.Marshal(ensemble)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	out, err := adapter.Predict([][]float64{{0.5}, {3.0}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(out))
	}
	if out[0] != 0 {
		t.Fatalf("negative raw output must clamp to 0, got %v", out[0])
	}
	if out[1] != 2.0 {
		t.Fatalf("expected 2.0, got %v", out[1])
	}
}

func TestPredictRejectsNarrowRows(t *testing.T) {
	dir := t.TempDir()
	payload, err := json.Marshal(sampleEnsemble())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, dir, "model.json", string(payload))

	adapter := NewAdapter(config.ModelConfig{Dir: dir}, nil)
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := adapter.Predict([][]float64{{1.0}}); err == nil {
		t.Fatal("expected error for row narrower than schema")
	}
}

func TestLightGBMTextParser(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model_native.txt", lightgbmFixture)

	ensemble, err := loadLightGBMText(filepath.Join(dir, "model_native.txt"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ensemble.Trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(ensemble.Trees))
	}
	if got := ensemble.Predict([]float64{1.0, 0}); got != 1.0 {
		t.Fatalf("left branch = %v, want 1.0", got)
	}
	if got := ensemble.Predict([]float64{5.0, 0}); got != 3.0 {
		t.Fatalf("right branch = %v, want 3.0", got)
	}
}
