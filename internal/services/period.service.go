package services

import (
	"timefilter/internal/expr"
	"timefilter/internal/models"
)

// DurationPredicate inspects a clause's relative flag and selection
type DurationPredicate func(relative bool, selection expr.Expression) bool

// PeriodClassifier maps a filter clause back to the menu period that produced it.
// Predicates are tried latest, previous, current; the first match wins.
type PeriodClassifier struct {
	IsLatest   DurationPredicate
	IsPrevious DurationPredicate
	IsCurrent  DurationPredicate
}

var DefaultClassifier = PeriodClassifier{
	IsLatest:   IsLatestDuration,
	IsPrevious: IsPreviousDuration,
	IsCurrent:  IsCurrentDuration,
}

// GetFilterPeriod classifies clause with DefaultClassifier.
// The second result is false when the clause matches no period.
func GetFilterPeriod(clause models.FilterClause) (TimeFilterPeriod, bool) {
	return DefaultClassifier.FilterPeriod(clause)
}

func (c PeriodClassifier) FilterPeriod(clause models.FilterClause) (TimeFilterPeriod, bool) {
	relative, selection := clause.Relative, clause.Selection

	if c.IsLatest != nil && c.IsLatest(relative, selection) {
		return PeriodLatest, true
	} else if c.IsPrevious != nil && c.IsPrevious(relative, selection) {
		return PeriodPrevious, true
	} else if c.IsCurrent != nil && c.IsCurrent(relative, selection) {
		return PeriodCurrent, true
	}
	return "", false
}

// IsLatestDuration matches $maxTime.timeRange(d, -1)
func IsLatestDuration(relative bool, selection expr.Expression) bool {
	if !relative {
		return false
	}
	rng, ok := selection.(*expr.TimeRangeExpression)
	if !ok || rng == nil || rng.Step != -1 {
		return false
	}
	return expr.Equal(rng.Operand, maxTimeRef)
}

// IsCurrentDuration matches $now.timeFloor(d).timeRange(d, 1)
func IsCurrentDuration(relative bool, selection expr.Expression) bool {
	return isFlooredNowRange(relative, selection, 1)
}

// IsPreviousDuration matches $now.timeFloor(d).timeRange(d, -1)
func IsPreviousDuration(relative bool, selection expr.Expression) bool {
	return isFlooredNowRange(relative, selection, -1)
}

func isFlooredNowRange(relative bool, selection expr.Expression, step int) bool {
	if !relative {
		return false
	}
	rng, ok := selection.(*expr.TimeRangeExpression)
	if !ok || rng == nil || rng.Step != step {
		return false
	}
	return expr.Equal(rng.Operand, nowRef.TimeFloor(rng.Duration))
}

// SelectionDuration extracts d from a selection built by ConstructFilter
func SelectionDuration(selection expr.Expression) (string, bool) {
	rng, ok := selection.(*expr.TimeRangeExpression)
	if !ok || rng == nil {
		return "", false
	}
	return rng.Duration, true
}
