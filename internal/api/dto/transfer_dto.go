package dto

// ImportRowError explains a skipped import row.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummaryResponse reports a best-effort import.
type ImportSummaryResponse struct {
	Kind     string           `json:"kind"`
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}
