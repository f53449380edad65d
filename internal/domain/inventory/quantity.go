package inventory

import (
	"github.com/shopspring/decimal"
)

// CountedQuantity is the physical count of a line. A line that has not been
// counted yet is distinct from a line counted as zero.
type CountedQuantity struct {
	value   decimal.Decimal
	counted bool
}

// NotCounted returns the quantity of a line nobody has counted yet.
func NotCounted() CountedQuantity {
	return CountedQuantity{}
}

// Counted returns a recorded count.
func Counted(v decimal.Decimal) CountedQuantity {
	return CountedQuantity{value: v, counted: true}
}

// CountedFromPtr maps a nullable column or payload field to a CountedQuantity.
func CountedFromPtr(v *decimal.Decimal) CountedQuantity {
	if v == nil {
		return NotCounted()
	}
	return Counted(*v)
}

// IsCounted reports whether a count was recorded.
func (q CountedQuantity) IsCounted() bool {
	return q.counted
}

// Value returns the recorded count and whether there is one.
func (q CountedQuantity) Value() (decimal.Decimal, bool) {
	return q.value, q.counted
}

// OrZero returns the recorded count, or zero when the line is not counted.
func (q CountedQuantity) OrZero() decimal.Decimal {
	if !q.counted {
		return decimal.Zero
	}
	return q.value
}

// Ptr returns nil for NotCounted, for persistence and JSON.
func (q CountedQuantity) Ptr() *decimal.Decimal {
	if !q.counted {
		return nil
	}
	v := q.value
	return &v
}

// Equal compares both the tag and the value.
func (q CountedQuantity) Equal(other CountedQuantity) bool {
	if q.counted != other.counted {
		return false
	}
	return !q.counted || q.value.Equal(other.value)
}

func (q CountedQuantity) String() string {
	if !q.counted {
		return "not counted"
	}
	return q.value.String()
}
