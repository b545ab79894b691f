package models

// TimeFilterPreset is a menu entry pairing a label with an ISO-8601 duration
type TimeFilterPreset struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// ShiftPreset is a menu entry for a comparison offset
type ShiftPreset struct {
	Label string    `json:"label"`
	Shift TimeShift `json:"shift"`
}
