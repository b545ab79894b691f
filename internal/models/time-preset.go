package models

import (
	"encoding/json"
	"fmt"

	"timefilter/internal/expr"
)

// TimePreset is a named, saved time range. Values are immutable; build a new one
// to change a field.
type TimePreset struct {
	name      string
	timeRange expr.TimeRange
}

// TimePresetJS is the serialized form of a TimePreset
type TimePresetJS struct {
	Name      string           `json:"name" yaml:"name"`
	TimeRange expr.TimeRangeJS `json:"timeRange" yaml:"timeRange"`
}

func NewTimePreset(name string, timeRange expr.TimeRange) TimePreset {
	return TimePreset{name: name, timeRange: timeRange}
}

// TimePresetFromJS builds a preset from its serialized form.
func TimePresetFromJS(js TimePresetJS) (TimePreset, error) {
	timeRange, err := expr.TimeRangeFromJS(js.TimeRange)
	if err != nil {
		return TimePreset{}, fmt.Errorf("time preset '%s': %w", js.Name, err)
	}
	return NewTimePreset(js.Name, timeRange), nil
}

func IsTimePreset(candidate any) bool {
	switch candidate.(type) {
	case TimePreset, *TimePreset:
		return true
	}
	return false
}

func (p TimePreset) Name() string {
	return p.name
}

func (p TimePreset) TimeRange() expr.TimeRange {
	return p.timeRange
}

func (p TimePreset) ToJS() TimePresetJS {
	return TimePresetJS{
		Name:      p.name,
		TimeRange: p.timeRange.ToJS(),
	}
}

func (p TimePreset) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToJS())
}

func (p *TimePreset) UnmarshalJSON(data []byte) error {
	var js TimePresetJS
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	parsed, err := TimePresetFromJS(js)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p TimePreset) String() string {
	return fmt.Sprintf("[TimePreset: %s]", p.name)
}

// Equals compares names case-sensitively and ranges by instant.
func (p TimePreset) Equals(other TimePreset) bool {
	return p.name == other.name && p.timeRange.Equals(other.timeRange)
}
