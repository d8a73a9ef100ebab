package enums

import "fmt"

// Horizon selects how far ahead a forecast run predicts.
type Horizon string

const (
	HorizonToday    Horizon = "today"
	HorizonTomorrow Horizon = "tomorrow"
	Horizon7Days    Horizon = "7days"
)

var validHorizons = []Horizon{
	HorizonToday,
	HorizonTomorrow,
	Horizon7Days,
}

// IsValid reports whether the value matches the canonical horizon enum.
func (h Horizon) IsValid() bool {
	for _, candidate := range validHorizons {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHorizon converts the raw string to Horizon.
func ParseHorizon(value string) (Horizon, error) {
	for _, candidate := range validHorizons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid horizon %q", value)
}
