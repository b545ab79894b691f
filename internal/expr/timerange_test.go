package expr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeFromJS(t *testing.T) {
	tests := []struct {
		name    string
		js      TimeRangeJS
		wantErr bool
	}{
		{name: "valid", js: TimeRangeJS{Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"}},
		{name: "empty range", js: TimeRangeJS{Start: "2024-01-01T00:00:00Z", End: "2024-01-01T00:00:00Z"}},
		{name: "offset bounds", js: TimeRangeJS{Start: "2024-01-01T05:00:00+05:00", End: "2024-01-02T00:00:00Z"}},
		{name: "bad start", js: TimeRangeJS{Start: "yesterday", End: "2024-02-01T00:00:00Z"}, wantErr: true},
		{name: "bad end", js: TimeRangeJS{Start: "2024-01-01T00:00:00Z", End: ""}, wantErr: true},
		{name: "reversed", js: TimeRangeJS{Start: "2024-02-01T00:00:00Z", End: "2024-01-01T00:00:00Z"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeRangeFromJS(tt.js)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeRange)
				return
			}
			require.NoError(t, err)
			back, err := TimeRangeFromJS(got.ToJS())
			require.NoError(t, err)
			assert.True(t, got.Equals(back))
		})
	}
}

func TestTimeRange_Contains(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tr, err := NewTimeRange(start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, tr.Contains(start))
	assert.True(t, tr.Contains(start.Add(59*time.Minute)))
	assert.False(t, tr.Contains(start.Add(time.Hour)))
	assert.False(t, tr.Contains(start.Add(-time.Nanosecond)))
}

func TestTimeRange_EqualsAcrossZones(t *testing.T) {
	utc := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewTimeRange(utc, utc.Add(time.Hour))
	b, _ := NewTimeRange(utc.In(time.FixedZone("X", 3600)), utc.Add(time.Hour))
	assert.True(t, a.Equals(b))
}

func TestTimeRange_JSON(t *testing.T) {
	var tr TimeRange
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-01T00:00:00Z","end":"2024-01-02T00:00:00Z"}`), &tr))
	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-01T00:00:00Z","end":"2024-01-02T00:00:00Z"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"nope","end":"2024-01-02T00:00:00Z"}`), &tr))
}
