package expr

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownReference = errors.New("unknown reference")

// References supplies the anchors an expression is evaluated against.
type References struct {
	Now      time.Time
	MaxTime  time.Time
	Location *time.Location
}

type value struct {
	instant time.Time
	rng     *TimeRange
}

// Resolve evaluates e to a concrete interval.
func Resolve(e Expression, refs References) (TimeRange, error) {
	if e == nil {
		return TimeRange{}, fmt.Errorf("empty expression")
	}
	v, err := e.eval(refs)
	if err != nil {
		return TimeRange{}, err
	}
	if v.rng == nil {
		return TimeRange{}, fmt.Errorf("expression %s is an instant, not a range", e)
	}
	return *v.rng, nil
}

func (e *RefExpression) eval(refs References) (value, error) {
	switch e.Name {
	case NowRefName:
		return value{instant: refs.Now}, nil
	case MaxTimeRefName:
		return value{instant: refs.MaxTime}, nil
	default:
		return value{}, fmt.Errorf("%w: $%s", ErrUnknownReference, e.Name)
	}
}

func (e *TimeFloorExpression) eval(refs References) (value, error) {
	d, err := ParseDuration(e.Duration)
	if err != nil {
		return value{}, err
	}
	v, err := evalInstant(e.Operand, refs)
	if err != nil {
		return value{}, err
	}
	floored, err := d.Floor(v, refs.Location)
	if err != nil {
		return value{}, err
	}
	return value{instant: floored}, nil
}

func (e *TimeRangeExpression) eval(refs References) (value, error) {
	d, err := ParseDuration(e.Duration)
	if err != nil {
		return value{}, err
	}
	if err := checkStep(e.Step); err != nil {
		return value{}, err
	}
	anchor, err := evalInstant(e.Operand, refs)
	if err != nil {
		return value{}, err
	}
	other := d.Shift(anchor, refs.Location, e.Step)
	start, end := anchor, other
	if e.Step < 0 {
		start, end = other, anchor
	}
	rng, err := NewTimeRange(start, end)
	if err != nil {
		return value{}, err
	}
	return value{rng: &rng}, nil
}

func evalInstant(e Expression, refs References) (time.Time, error) {
	if e == nil {
		return time.Time{}, fmt.Errorf("expression has no operand")
	}
	v, err := e.eval(refs)
	if err != nil {
		return time.Time{}, err
	}
	if v.rng != nil {
		return time.Time{}, fmt.Errorf("expected an instant but %s is a range", e)
	}
	return v.instant, nil
}
