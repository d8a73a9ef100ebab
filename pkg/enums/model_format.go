package enums

import "fmt"

// ModelFormat identifies which artifact encoding a model was loaded from.
// It doubles as the provenance string recorded on persisted forecasts.
type ModelFormat string

const (
	ModelFormatLightGBMText ModelFormat = "lightgbm_text"
	ModelFormatJSON         ModelFormat = "json_ensemble"
	ModelFormatGob          ModelFormat = "gob_ensemble"
)

var validModelFormats = []ModelFormat{
	ModelFormatLightGBMText,
	ModelFormatJSON,
	ModelFormatGob,
}

// IsValid reports whether the value matches the canonical model format enum.
func (m ModelFormat) IsValid() bool {
	for _, candidate := range validModelFormats {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModelFormat converts the raw string to ModelFormat.
func ParseModelFormat(value string) (ModelFormat, error) {
	for _, candidate := range validModelFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid model format %q", value)
}
