// Package prefs implements validation for the per-account signal weight
// mapping consumed by the digest generation worker.
package prefs

import (
	"fmt"
	"math"
	"sort"
)

const (
	MinWeight = 0
	MaxWeight = 100
)

// ValidationError reports the first offending key in a submitted mapping.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid weight for %q: %s", e.Key, e.Reason)
}

// ParseWeights validates a decoded JSON weight payload in full before any
// persistence happens. Every value must be a finite number, integral, and
// within [MinWeight, MaxWeight]. Keys are checked in sorted order so the
// reported violation is deterministic. Returns the converted mapping or a
// *ValidationError naming the offending key.
func ParseWeights(raw map[string]any) (map[string]int, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	weights := make(map[string]int, len(raw))
	for _, key := range keys {
		value, ok := raw[key].(float64)
		if !ok {
			return nil, &ValidationError{Key: key, Reason: "must be a number"}
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, &ValidationError{Key: key, Reason: "must be a finite number"}
		}
		if value != math.Trunc(value) {
			return nil, &ValidationError{Key: key, Reason: "must be an integer"}
		}
		if value < MinWeight || value > MaxWeight {
			return nil, &ValidationError{Key: key, Reason: fmt.Sprintf("must be between %d and %d", MinWeight, MaxWeight)}
		}
		weights[key] = int(value)
	}

	return weights, nil
}
