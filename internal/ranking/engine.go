package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/marketlens/screener/internal/contracts"
)

// Weight sums may drift from 1.0 by float accumulation; anything inside
// this band is accepted.
const (
	weightSumMin = 0.99
	weightSumMax = 1.01
)

// ValidationError describes one rejected aspect of a weight set.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid weight set: %s: %s", e.Field, e.Message)
}

// ValidateWeights rejects empty sets, missing required factors, and sums
// outside the accepted band. Extra factor names are permitted; they have no
// effect until a matching sub-score column exists upstream. A weight set
// that fails validation is never applied.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return &ValidationError{Field: "weights", Message: "must not be empty"}
	}

	for _, f := range contracts.RequiredFactors {
		if _, ok := weights[f]; !ok {
			return &ValidationError{Field: f, Message: "required factor missing"}
		}
	}

	var sum float64
	for name, w := range weights {
		if w < 0 {
			return &ValidationError{Field: name, Message: "weight must not be negative"}
		}
		sum += w
	}
	if sum < weightSumMin || sum > weightSumMax {
		return &ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("sum %.4f outside [%.2f, %.2f]", sum, weightSumMin, weightSumMax),
		}
	}
	return nil
}

// Options narrows and truncates a ranking result.
type Options struct {
	Sector string
	Limit  int
}

// Rank scores the input rows against the weight set and returns them in
// descending score order, unscored rows last with ties broken by ticker.
// The inputs are not mutated; rankings are derived on every call and never
// persisted.
func Rank(rows []contracts.RankingRow, ws contracts.WeightSet, opts Options) ([]contracts.RankingRow, error) {
	if err := ValidateWeights(ws.Weights); err != nil {
		return nil, err
	}

	out := make([]contracts.RankingRow, 0, len(rows))
	for _, row := range rows {
		if opts.Sector != "" && row.Sector != opts.Sector {
			continue
		}
		scored := row
		if row.PriceDate != nil {
			s := composite(ws.Weights, row.Scores)
			scored.Score = &s
		}
		out = append(out, scored)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Score, out[j].Score
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		default:
			return out[i].Ticker < out[j].Ticker
		}
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// composite is the weighted factor sum rounded to four decimal places.
func composite(weights map[string]float64, s contracts.FactorScores) float64 {
	total := weights["trend"]*s.Trend +
		weights["rsi"]*s.RSI +
		weights["value"]*s.Value +
		weights["size"]*s.Size +
		weights["yield"]*s.Yield
	return math.Round(total*10000) / 10000
}
