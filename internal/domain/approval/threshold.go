package approval

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ThresholdTable maps monetary amounts to required approval levels. Levels
// and minimum amounts are strictly increasing; the table is immutable once
// built. RequiredLevel is pure and total.
type ThresholdTable struct {
	levels []thresholdLevel
}

type thresholdLevel struct {
	level   int
	minimum decimal.Decimal
}

// NewThresholdTable builds a validated table from level -> minimum amount
func NewThresholdTable(minimums map[int]decimal.Decimal) (*ThresholdTable, error) {
	if len(minimums) == 0 {
		return nil, fmt.Errorf("threshold table must have at least one level")
	}

	levels := make([]thresholdLevel, 0, len(minimums))
	for level, minimum := range minimums {
		if level < 1 {
			return nil, fmt.Errorf("approval level must be >= 1, got %d", level)
		}
		if !minimum.IsPositive() {
			return nil, fmt.Errorf("threshold for level %d must be positive, got %s", level, minimum)
		}
		levels = append(levels, thresholdLevel{level: level, minimum: minimum})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].level < levels[j].level })

	for i := 1; i < len(levels); i++ {
		if levels[i].level != levels[i-1].level+1 {
			return nil, fmt.Errorf("approval levels must be consecutive, missing level %d", levels[i-1].level+1)
		}
		if levels[i].minimum.LessThanOrEqual(levels[i-1].minimum) {
			return nil, fmt.Errorf("threshold for level %d (%s) must exceed level %d (%s)",
				levels[i].level, levels[i].minimum, levels[i-1].level, levels[i-1].minimum)
		}
	}

	return &ThresholdTable{levels: levels}, nil
}

// MustThresholdTable builds a table and panics on invalid input. For
// package defaults and tests.
func MustThresholdTable(minimums map[int]decimal.Decimal) *ThresholdTable {
	table, err := NewThresholdTable(minimums)
	if err != nil {
		panic(err)
	}
	return table
}

// DefaultRequestThresholds is the three-level chain for purchase requests
func DefaultRequestThresholds() *ThresholdTable {
	return MustThresholdTable(map[int]decimal.Decimal{
		1: decimal.NewFromInt(10_000),
		2: decimal.NewFromInt(50_000),
		3: decimal.NewFromInt(100_000),
	})
}

// DefaultOrderThresholds is the single validation level for purchase orders
func DefaultOrderThresholds() *ThresholdTable {
	return MustThresholdTable(map[int]decimal.Decimal{
		1: decimal.NewFromInt(50_000),
	})
}

// RequiredLevel returns the highest level whose minimum the amount reaches,
// or 0 when the amount is below the first threshold
func (t *ThresholdTable) RequiredLevel(amount decimal.Decimal) int {
	required := 0
	for _, l := range t.levels {
		if amount.GreaterThanOrEqual(l.minimum) {
			required = l.level
		}
	}
	return required
}

// MaxLevel returns the table's highest level
func (t *ThresholdTable) MaxLevel() int {
	return t.levels[len(t.levels)-1].level
}
