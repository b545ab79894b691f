package expr

import (
	"encoding/json"
	"fmt"
)

const (
	opRef       = "ref"
	opTimeFloor = "timeFloor"
	opTimeRange = "timeRange"
)

// ExpressionJS is the wire form shared by all node kinds.
type ExpressionJS struct {
	Op       string          `json:"op"`
	Name     string          `json:"name,omitempty"`
	Operand  json.RawMessage `json:"operand,omitempty"`
	Duration string          `json:"duration,omitempty"`
	Step     int             `json:"step,omitempty"`
}

func (e *RefExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(ExpressionJS{Op: opRef, Name: e.Name})
}

func (e *TimeFloorExpression) MarshalJSON() ([]byte, error) {
	operand, err := marshalOperand(e.Operand)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ExpressionJS{Op: opTimeFloor, Operand: operand, Duration: e.Duration})
}

func (e *TimeRangeExpression) MarshalJSON() ([]byte, error) {
	operand, err := marshalOperand(e.Operand)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ExpressionJS{Op: opTimeRange, Operand: operand, Duration: e.Duration, Step: e.Step})
}

func marshalOperand(e Expression) (json.RawMessage, error) {
	if e == nil {
		return nil, fmt.Errorf("expression has no operand")
	}
	return e.MarshalJSON()
}

// FromJSON decodes an expression tree. Durations are not validated here.
func FromJSON(data []byte) (Expression, error) {
	var js ExpressionJS
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("can't decode expression: %w", err)
	}
	switch js.Op {
	case opRef:
		if js.Name == "" {
			return nil, fmt.Errorf("ref expression without name")
		}
		return Ref(js.Name), nil
	case opTimeFloor:
		operand, err := operandFromJSON(js)
		if err != nil {
			return nil, err
		}
		return &TimeFloorExpression{Operand: operand, Duration: js.Duration}, nil
	case opTimeRange:
		operand, err := operandFromJSON(js)
		if err != nil {
			return nil, err
		}
		return &TimeRangeExpression{Operand: operand, Duration: js.Duration, Step: js.Step}, nil
	default:
		return nil, fmt.Errorf("unsupported expression op '%s'", js.Op)
	}
}

func operandFromJSON(js ExpressionJS) (Expression, error) {
	if len(js.Operand) == 0 {
		return nil, fmt.Errorf("%s expression without operand", js.Op)
	}
	return FromJSON(js.Operand)
}
