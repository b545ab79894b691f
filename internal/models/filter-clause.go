package models

import (
	"encoding/json"
	"fmt"

	"timefilter/internal/expr"
)

const (
	MaxTimeRefName = expr.MaxTimeRefName
	NowRefName     = expr.NowRefName
)

// FilterClause is a time filter on a dimension. Relative clauses are anchored at
// $now or $maxTime and recomputed on every evaluation.
type FilterClause struct {
	Reference string
	Relative  bool
	Selection expr.Expression
}

type filterClauseJS struct {
	Reference string          `json:"reference"`
	Relative  bool            `json:"relative"`
	Selection json.RawMessage `json:"selection"`
}

func (c FilterClause) MarshalJSON() ([]byte, error) {
	var selection json.RawMessage
	if c.Selection != nil {
		data, err := c.Selection.MarshalJSON()
		if err != nil {
			return nil, err
		}
		selection = data
	}
	return json.Marshal(filterClauseJS{Reference: c.Reference, Relative: c.Relative, Selection: selection})
}

func (c *FilterClause) UnmarshalJSON(data []byte) error {
	var js filterClauseJS
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	clause := FilterClause{Reference: js.Reference, Relative: js.Relative}
	if len(js.Selection) != 0 && string(js.Selection) != "null" {
		selection, err := expr.FromJSON(js.Selection)
		if err != nil {
			return fmt.Errorf("filter clause selection: %w", err)
		}
		clause.Selection = selection
	}
	*c = clause
	return nil
}
