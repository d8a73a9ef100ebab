package model

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadLightGBMText parses the LightGBM native text dump: a header of
// key=value lines followed by one block per tree. Only numerical <=
// splits are supported, which covers models trained on coerced numeric
// feature tables.
func loadLightGBMText(path string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ensemble := &Ensemble{}
	var current *Tree

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "end of trees" {
			current = nil
			continue
		}
		if line == "tree" || strings.HasPrefix(line, "pandas_categorical") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		if strings.HasPrefix(key, "Tree") {
			ensemble.Trees = append(ensemble.Trees, Tree{})
			current = &ensemble.Trees[len(ensemble.Trees)-1]
			continue
		}

		var parseErr error
		if current == nil {
			switch key {
			case "feature_names":
				ensemble.FeatureNames = strings.Fields(value)
			case "init_score", "average_output":
				if fields := strings.Fields(value); len(fields) > 0 {
					ensemble.BaseScore, parseErr = strconv.ParseFloat(fields[0], 64)
				}
			}
		} else {
			switch key {
			case "split_feature":
				current.SplitFeature, parseErr = parseInts(value)
			case "threshold":
				current.Threshold, parseErr = parseFloats(value)
			case "left_child":
				current.LeftChild, parseErr = parseInts(value)
			case "right_child":
				current.RightChild, parseErr = parseInts(value)
			case "leaf_value":
				current.LeafValue, parseErr = parseFloats(value)
			}
		}
		if parseErr != nil {
			return nil, fmt.Errorf("line %d: parsing %s: %w", lineNo, key, parseErr)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := ensemble.validate(); err != nil {
		return nil, err
	}
	return ensemble, nil
}

func parseInts(value string) ([]int, error) {
	fields := strings.Fields(value)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(value string) ([]float64, error) {
	fields := strings.Fields(value)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
