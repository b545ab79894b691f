package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timefilter/internal/expr"
)

func TestFilterClause_JSONRoundTrip(t *testing.T) {
	clause := FilterClause{
		Reference: "time",
		Relative:  true,
		Selection: expr.Ref(NowRefName).TimeFloor("P1D").TimeRange("P1D", -1),
	}
	data, err := json.Marshal(clause)
	require.NoError(t, err)

	var back FilterClause
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "time", back.Reference)
	assert.True(t, back.Relative)
	assert.True(t, clause.Selection.Equals(back.Selection))
}

func TestFilterClause_NoSelection(t *testing.T) {
	var clause FilterClause
	require.NoError(t, json.Unmarshal([]byte(`{"reference":"time","relative":false}`), &clause))
	assert.Nil(t, clause.Selection)

	data, err := json.Marshal(clause)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reference":"time","relative":false,"selection":null}`, string(data))
}

func TestFilterClause_BadSelection(t *testing.T) {
	var clause FilterClause
	err := json.Unmarshal([]byte(`{"reference":"time","relative":true,"selection":{"op":"contains"}}`), &clause)
	assert.Error(t, err)
}
