// Package expr is a minimal relative time expression builder. It knows three node
// kinds: a named reference ($now, $maxTime), timeFloor and timeRange.
package expr

import (
	"encoding/json"
	"fmt"
)

const (
	MaxTimeRefName = "m"
	NowRefName     = "n"
)

type Expression interface {
	TimeFloor(duration string) Expression
	TimeRange(duration string, step int) Expression
	Equals(other Expression) bool
	String() string
	json.Marshaler

	eval(refs References) (value, error)
}

// RefExpression names a value supplied at evaluation time.
type RefExpression struct {
	Name string
}

// TimeFloorExpression floors its operand to the start of a Duration bucket.
type TimeFloorExpression struct {
	Operand  Expression
	Duration string
}

// TimeRangeExpression spans Step durations from its operand. A negative step
// extends backward and ends at the operand.
type TimeRangeExpression struct {
	Operand  Expression
	Duration string
	Step     int
}

// Ref returns $name.
func Ref(name string) *RefExpression {
	return &RefExpression{Name: name}
}

func (e *RefExpression) TimeFloor(duration string) Expression {
	return &TimeFloorExpression{Operand: e, Duration: duration}
}

func (e *RefExpression) TimeRange(duration string, step int) Expression {
	return &TimeRangeExpression{Operand: e, Duration: duration, Step: step}
}

func (e *RefExpression) Equals(other Expression) bool {
	o, ok := other.(*RefExpression)
	return ok && e != nil && o != nil && e.Name == o.Name
}

func (e *RefExpression) String() string {
	return "$" + e.Name
}

func (e *TimeFloorExpression) TimeFloor(duration string) Expression {
	return &TimeFloorExpression{Operand: e, Duration: duration}
}

func (e *TimeFloorExpression) TimeRange(duration string, step int) Expression {
	return &TimeRangeExpression{Operand: e, Duration: duration, Step: step}
}

func (e *TimeFloorExpression) Equals(other Expression) bool {
	o, ok := other.(*TimeFloorExpression)
	return ok && e != nil && o != nil &&
		sameDuration(e.Duration, o.Duration) &&
		Equal(e.Operand, o.Operand)
}

func (e *TimeFloorExpression) String() string {
	return fmt.Sprintf("%s.timeFloor(%s)", operandString(e.Operand), e.Duration)
}

func (e *TimeRangeExpression) TimeFloor(duration string) Expression {
	return &TimeFloorExpression{Operand: e, Duration: duration}
}

func (e *TimeRangeExpression) TimeRange(duration string, step int) Expression {
	return &TimeRangeExpression{Operand: e, Duration: duration, Step: step}
}

func (e *TimeRangeExpression) Equals(other Expression) bool {
	o, ok := other.(*TimeRangeExpression)
	return ok && e != nil && o != nil &&
		e.Step == o.Step &&
		sameDuration(e.Duration, o.Duration) &&
		Equal(e.Operand, o.Operand)
}

func (e *TimeRangeExpression) String() string {
	return fmt.Sprintf("%s.timeRange(%s,%d)", operandString(e.Operand), e.Duration, e.Step)
}

// Equal is a nil safe Equals.
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// Validate checks every duration in the tree.
func Validate(e Expression) error {
	switch node := e.(type) {
	case nil:
		return fmt.Errorf("empty expression")
	case *RefExpression:
		return nil
	case *TimeFloorExpression:
		d, err := ParseDuration(node.Duration)
		if err != nil {
			return err
		}
		if !d.IsFloorable() {
			return fmt.Errorf("%w: %s", ErrNotFloorable, node.Duration)
		}
		return Validate(node.Operand)
	case *TimeRangeExpression:
		if _, err := ParseDuration(node.Duration); err != nil {
			return err
		}
		if err := checkStep(node.Step); err != nil {
			return err
		}
		return Validate(node.Operand)
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
}

// MaxStep bounds the number of durations a timeRange may span.
const MaxStep = 1000

func checkStep(step int) error {
	if step == 0 {
		return fmt.Errorf("timeRange step must not be zero")
	}
	if step > MaxStep || step < -MaxStep {
		return fmt.Errorf("timeRange step %d is out of range", step)
	}
	return nil
}

func sameDuration(a, b string) bool {
	if a == b {
		return true
	}
	da, errA := ParseDuration(a)
	db, errB := ParseDuration(b)
	return errA == nil && errB == nil && da.Equals(db)
}

func operandString(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}
