package expr

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is the half open interval [start, end).
type TimeRange struct {
	start time.Time
	end   time.Time
}

// TimeRangeJS is the serialized form of a TimeRange.
type TimeRangeJS struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if end.Before(start) {
		return TimeRange{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidTimeRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeRange{start: start, end: end}, nil
}

// TimeRangeFromJS parses RFC3339 bounds.
func TimeRangeFromJS(js TimeRangeJS) (TimeRange, error) {
	start, err := time.Parse(time.RFC3339Nano, js.Start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: bad start: %w", ErrInvalidTimeRange, err)
	}
	end, err := time.Parse(time.RFC3339Nano, js.End)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: bad end: %w", ErrInvalidTimeRange, err)
	}
	return NewTimeRange(start, end)
}

func (tr TimeRange) Start() time.Time {
	return tr.start
}

func (tr TimeRange) End() time.Time {
	return tr.end
}

func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.start) && t.Before(tr.end)
}

func (tr TimeRange) Equals(other TimeRange) bool {
	return tr.start.Equal(other.start) && tr.end.Equal(other.end)
}

func (tr TimeRange) ToJS() TimeRangeJS {
	return TimeRangeJS{
		Start: tr.start.UTC().Format(time.RFC3339Nano),
		End:   tr.end.UTC().Format(time.RFC3339Nano),
	}
}

func (tr TimeRange) String() string {
	return fmt.Sprintf("[%s,%s)", tr.start.UTC().Format(time.RFC3339), tr.end.UTC().Format(time.RFC3339))
}

func (tr TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(tr.ToJS())
}

func (tr *TimeRange) UnmarshalJSON(data []byte) error {
	var js TimeRangeJS
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	parsed, err := TimeRangeFromJS(js)
	if err != nil {
		return err
	}
	*tr = parsed
	return nil
}
