package services

import (
	"timefilter/internal/expr"
	"timefilter/internal/models"
)

// TimeFilterPeriod classifies how a relative time filter relates to now
type TimeFilterPeriod string

const (
	PeriodLatest   TimeFilterPeriod = "latest"
	PeriodCurrent  TimeFilterPeriod = "current"
	PeriodPrevious TimeFilterPeriod = "previous"
)

// TimeFilterPeriods in menu order
var TimeFilterPeriods = []TimeFilterPeriod{PeriodLatest, PeriodCurrent, PeriodPrevious}

func ParseTimeFilterPeriod(s string) (TimeFilterPeriod, bool) {
	p := TimeFilterPeriod(s)
	return p, p.Valid()
}

func (p TimeFilterPeriod) Valid() bool {
	switch p {
	case PeriodLatest, PeriodCurrent, PeriodPrevious:
		return true
	}
	return false
}

var (
	maxTimeRef = expr.Ref(models.MaxTimeRefName)
	nowRef     = expr.Ref(models.NowRefName)
)

var latestPresets = []models.TimeFilterPreset{
	{Name: "1H", Duration: "PT1H"},
	{Name: "6H", Duration: "PT6H"},
	{Name: "1D", Duration: "P1D"},
	{Name: "7D", Duration: "P7D"},
	{Name: "30D", Duration: "P30D"},
}

var currentPresets = []models.TimeFilterPreset{
	{Name: "D", Duration: "P1D"},
	{Name: "W", Duration: "P1W"},
	{Name: "M", Duration: "P1M"},
	{Name: "Q", Duration: "P3M"},
	{Name: "Y", Duration: "P1Y"},
}

var previousPresets = []models.TimeFilterPreset{
	{Name: "D", Duration: "P1D"},
	{Name: "W", Duration: "P1W"},
	{Name: "M", Duration: "P1M"},
	{Name: "Q", Duration: "P3M"},
	{Name: "Y", Duration: "P1Y"},
}

var comparisonPresets = []models.ShiftPreset{
	{Label: "Off", Shift: models.EmptyTimeShift()},
	{Label: "D", Shift: models.MustTimeShift("P1D")},
	{Label: "W", Shift: models.MustTimeShift("P1W")},
	{Label: "M", Shift: models.MustTimeShift("P1M")},
	{Label: "Q", Shift: models.MustTimeShift("P3M")},
}

// LatestPresets returns the trailing-window menu entries
func LatestPresets() []models.TimeFilterPreset {
	return clonePresets(latestPresets)
}

func CurrentPresets() []models.TimeFilterPreset {
	return clonePresets(currentPresets)
}

func PreviousPresets() []models.TimeFilterPreset {
	return clonePresets(previousPresets)
}

// ComparisonPresets returns the comparison menu, "Off" first
func ComparisonPresets() []models.ShiftPreset {
	out := make([]models.ShiftPreset, len(comparisonPresets))
	copy(out, comparisonPresets)
	return out
}

func clonePresets(in []models.TimeFilterPreset) []models.TimeFilterPreset {
	out := make([]models.TimeFilterPreset, len(in))
	copy(out, in)
	return out
}

// ConstructLatestFilter covers duration backward from the dataset's max time
func ConstructLatestFilter(duration string) expr.Expression {
	return maxTimeRef.TimeRange(duration, -1)
}

// ConstructCurrentFilter covers the duration bucket containing now
func ConstructCurrentFilter(duration string) expr.Expression {
	return nowRef.TimeFloor(duration).TimeRange(duration, 1)
}

// ConstructPreviousFilter covers the bucket right before the one containing now
func ConstructPreviousFilter(duration string) expr.Expression {
	return nowRef.TimeFloor(duration).TimeRange(duration, -1)
}

// ConstructFilter builds the filter for period. It returns nil when period is not
// one of latest, current or previous.
func ConstructFilter(period TimeFilterPeriod, duration string) expr.Expression {
	switch period {
	case PeriodPrevious:
		return ConstructPreviousFilter(duration)
	case PeriodLatest:
		return ConstructLatestFilter(duration)
	case PeriodCurrent:
		return ConstructCurrentFilter(duration)
	default:
		return nil
	}
}

// GetTimeFilterPresets returns the menu for period, or nil for an unknown period
func GetTimeFilterPresets(period TimeFilterPeriod) []models.TimeFilterPreset {
	switch period {
	case PeriodPrevious:
		return PreviousPresets()
	case PeriodLatest:
		return LatestPresets()
	case PeriodCurrent:
		return CurrentPresets()
	default:
		return nil
	}
}

// IsShiftPreset reports whether candidate is one of the comparison menu entries
func IsShiftPreset(candidate models.TimeShift) bool {
	for _, preset := range comparisonPresets {
		if preset.Shift.Equals(candidate) {
			return true
		}
	}
	return false
}
