package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VarianceTolerance is the largest absolute difference between counted and
// expected quantity that is not reported. The comparison is strict, so a
// difference of exactly 0.01 is not a variance.
var VarianceTolerance = decimal.RequireFromString("0.01")

// DefaultPreviewLimit is how many variances the review dialog lists before
// collapsing the rest into a count.
const DefaultPreviewLimit = 10

// VarianceSign tells overages from shortages.
type VarianceSign string

const (
	VarianceOverage  VarianceSign = "OVERAGE"
	VarianceShortage VarianceSign = "SHORTAGE"
)

// VarianceLine is the calculator input: one counted line. Expected is nil
// when no snapshot exists.
type VarianceLine struct {
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Expected  *decimal.Decimal
	Actual    CountedQuantity
}

// VarianceRecord is a derived, never persisted, variance of one line.
type VarianceRecord struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
	Variance  decimal.Decimal `json:"variance"`
	Sign      VarianceSign    `json:"sign"`
}

// AbsVariance returns |actual - expected|.
func (r VarianceRecord) AbsVariance() decimal.Decimal {
	return r.Variance.Abs()
}

// VarianceSummary is the calculator output. Overages and Shortages partition
// Variances; all three keep the input order. Uncounted lists lines that had no
// recorded count and were compared as zero.
type VarianceSummary struct {
	TotalLines int              `json:"total_lines"`
	Variances  []VarianceRecord `json:"variances"`
	Overages   []VarianceRecord `json:"overages"`
	Shortages  []VarianceRecord `json:"shortages"`
	Uncounted  []uuid.UUID      `json:"uncounted"`
}

// HasVariances reports whether any line is outside the tolerance.
func (s VarianceSummary) HasVariances() bool {
	return len(s.Variances) > 0
}

// Preview returns at most limit variances and how many were left out.
func (s VarianceSummary) Preview(limit int) ([]VarianceRecord, int) {
	if limit <= 0 || len(s.Variances) <= limit {
		return s.Variances, 0
	}
	return s.Variances[:limit], len(s.Variances) - limit
}

// NetVariance sums the signed variances.
func (s VarianceSummary) NetVariance() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Variances {
		total = total.Add(v.Variance)
	}
	return total
}

// CalculateVariances returns the lines whose |actual - expected| exceeds
// VarianceTolerance. Missing expected or actual quantities compare as zero.
func CalculateVariances(lines []VarianceLine) VarianceSummary {
	summary := VarianceSummary{
		TotalLines: len(lines),
		Variances:  make([]VarianceRecord, 0),
		Overages:   make([]VarianceRecord, 0),
		Shortages:  make([]VarianceRecord, 0),
		Uncounted:  make([]uuid.UUID, 0),
	}

	for _, line := range lines {
		if !line.Actual.IsCounted() {
			summary.Uncounted = append(summary.Uncounted, line.ItemID)
		}

		expected := decimal.Zero
		if line.Expected != nil {
			expected = *line.Expected
		}
		actual := line.Actual.OrZero()
		diff := actual.Sub(expected)
		if diff.Abs().LessThanOrEqual(VarianceTolerance) {
			continue
		}

		rec := VarianceRecord{
			ItemID:    line.ItemID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Expected:  expected,
			Actual:    actual,
			Variance:  diff,
		}
		if diff.IsPositive() {
			rec.Sign = VarianceOverage
			summary.Overages = append(summary.Overages, rec)
		} else {
			rec.Sign = VarianceShortage
			summary.Shortages = append(summary.Shortages, rec)
		}
		summary.Variances = append(summary.Variances, rec)
	}

	return summary
}

// ExceedsTolerance reports whether two quantities differ by more than VarianceTolerance.
func ExceedsTolerance(expected, actual decimal.Decimal) bool {
	return actual.Sub(expected).Abs().GreaterThan(VarianceTolerance)
}
