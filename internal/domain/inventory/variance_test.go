package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func line(expected, actual string) VarianceLine {
	l := VarianceLine{ItemID: uuid.New(), ProductID: uuid.New(), Name: "item " + expected + "/" + actual}
	if expected != "" {
		l.Expected = decPtr(expected)
	}
	if actual != "" {
		l.Actual = Counted(dec(actual))
	}
	return l
}

func itemIDs(recs []VarianceRecord) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ItemID)
	}
	return ids
}

func TestCalculateVariances(t *testing.T) {
	t.Run("reference example keeps only the 5 to 8 line", func(t *testing.T) {
		lines := []VarianceLine{line("10", "10"), line("5", "8"), line("20", "19.99")}

		s := CalculateVariances(lines)

		require.Len(t, s.Variances, 1)
		assert.Equal(t, lines[1].ItemID, s.Variances[0].ItemID)
		assert.True(t, s.Variances[0].Variance.Equal(dec("3")))
		assert.Equal(t, VarianceOverage, s.Variances[0].Sign)
		assert.Equal(t, itemIDs(s.Variances), itemIDs(s.Overages))
		assert.Empty(t, s.Shortages)
		assert.Equal(t, 3, s.TotalLines)
	})

	t.Run("empty input yields empty summary", func(t *testing.T) {
		s := CalculateVariances(nil)

		assert.Empty(t, s.Variances)
		assert.Empty(t, s.Overages)
		assert.Empty(t, s.Shortages)
		assert.False(t, s.HasVariances())
	})

	t.Run("tolerance is exclusive", func(t *testing.T) {
		s := CalculateVariances([]VarianceLine{
			line("1.00", "1.01"),
			line("1.00", "0.99"),
			line("1.00", "1.011"),
			line("1.00", "0.989"),
		})

		require.Len(t, s.Variances, 2)
		assert.True(t, s.Variances[0].Variance.Equal(dec("0.011")))
		assert.True(t, s.Variances[1].Variance.Equal(dec("-0.011")))
	})

	t.Run("missing values compare as zero", func(t *testing.T) {
		notCounted := line("4", "")
		noExpected := line("", "2")
		bothMissing := line("", "")

		s := CalculateVariances([]VarianceLine{notCounted, noExpected, bothMissing})

		require.Len(t, s.Variances, 2)
		assert.Equal(t, VarianceShortage, s.Variances[0].Sign)
		assert.True(t, s.Variances[0].Actual.IsZero())
		assert.Equal(t, VarianceOverage, s.Variances[1].Sign)
		assert.True(t, s.Variances[1].Expected.IsZero())
		assert.Equal(t, []uuid.UUID{notCounted.ItemID, bothMissing.ItemID}, s.Uncounted)
	})

	t.Run("overages and shortages partition variances in input order", func(t *testing.T) {
		lines := []VarianceLine{
			line("10", "12"),
			line("10", "7"),
			line("3", "3"),
			line("0", "1"),
			line("8", "2.5"),
		}

		s := CalculateVariances(lines)

		assert.Equal(t, []uuid.UUID{lines[0].ItemID, lines[1].ItemID, lines[3].ItemID, lines[4].ItemID}, itemIDs(s.Variances))
		assert.Equal(t, []uuid.UUID{lines[0].ItemID, lines[3].ItemID}, itemIDs(s.Overages))
		assert.Equal(t, []uuid.UUID{lines[1].ItemID, lines[4].ItemID}, itemIDs(s.Shortages))
		assert.Len(t, s.Variances, len(s.Overages)+len(s.Shortages))
		assert.True(t, s.NetVariance().Equal(dec("-5.5")))
	})
}

func TestVarianceSummary_Preview(t *testing.T) {
	lines := make([]VarianceLine, 0, 13)
	for i := 0; i < 13; i++ {
		lines = append(lines, line("0", "5"))
	}
	s := CalculateVariances(lines)

	shown, more := s.Preview(DefaultPreviewLimit)
	assert.Len(t, shown, 10)
	assert.Equal(t, 3, more)
	assert.Equal(t, lines[0].ItemID, shown[0].ItemID)

	shown, more = s.Preview(20)
	assert.Len(t, shown, 13)
	assert.Zero(t, more)
}

func TestExceedsTolerance(t *testing.T) {
	assert.False(t, ExceedsTolerance(dec("20"), dec("19.99")))
	assert.True(t, ExceedsTolerance(dec("20"), dec("19.98")))
	assert.False(t, ExceedsTolerance(dec("7"), dec("7")))
}
