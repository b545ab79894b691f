package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timefilter/internal/expr"
)

func TestTimeShift_Equals(t *testing.T) {
	assert.True(t, EmptyTimeShift().Equals(TimeShift{}))
	assert.True(t, MustTimeShift("P1W").Equals(MustTimeShift("P1W")))
	assert.False(t, MustTimeShift("P1W").Equals(MustTimeShift("P7D")))
	assert.False(t, MustTimeShift("P1W").Equals(EmptyTimeShift()))
	assert.False(t, EmptyTimeShift().Equals(MustTimeShift("P1D")))
}

func TestTimeShiftFromJS_Invalid(t *testing.T) {
	_, err := TimeShiftFromJS("one week")
	assert.ErrorIs(t, err, expr.ErrInvalidDuration)
}

func TestTimeShift_JSON(t *testing.T) {
	data, err := json.Marshal([]TimeShift{EmptyTimeShift(), MustTimeShift("P3M")})
	require.NoError(t, err)
	assert.JSONEq(t, `[null,"P3M"]`, string(data))

	var back []TimeShift
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 2)
	assert.True(t, back[0].IsEmpty())
	assert.True(t, back[1].Equals(MustTimeShift("P3M")))
}
