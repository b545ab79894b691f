package models

import (
	"encoding/json"
	"fmt"

	"timefilter/internal/expr"
)

// TimeShift is a comparison offset. The zero value is the empty shift (no comparison).
type TimeShift struct {
	duration *expr.Duration
}

func EmptyTimeShift() TimeShift {
	return TimeShift{}
}

// TimeShiftFromJS parses an ISO-8601 duration such as P1W.
func TimeShiftFromJS(iso string) (TimeShift, error) {
	d, err := expr.ParseDuration(iso)
	if err != nil {
		return TimeShift{}, fmt.Errorf("time shift: %w", err)
	}
	return TimeShift{duration: &d}, nil
}

func MustTimeShift(iso string) TimeShift {
	shift, err := TimeShiftFromJS(iso)
	if err != nil {
		panic(err)
	}
	return shift
}

func (s TimeShift) IsEmpty() bool {
	return s.duration == nil
}

func (s TimeShift) Equals(other TimeShift) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return s.IsEmpty() && other.IsEmpty()
	}
	return s.duration.Equals(*other.duration)
}

// String returns the canonical duration, or "" for the empty shift.
func (s TimeShift) String() string {
	if s.IsEmpty() {
		return ""
	}
	return s.duration.String()
}

func (s TimeShift) MarshalJSON() ([]byte, error) {
	if s.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(s.duration.String())
}

func (s *TimeShift) UnmarshalJSON(data []byte) error {
	var iso *string
	if err := json.Unmarshal(data, &iso); err != nil {
		return err
	}
	if iso == nil || *iso == "" {
		*s = EmptyTimeShift()
		return nil
	}
	parsed, err := TimeShiftFromJS(*iso)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
