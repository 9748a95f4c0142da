package model

// FactorScore is one weighted input of the technical outlook.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Stance maps a total score range to a reading of the last bar.
type Stance struct {
	Label    string  `json:"label"`
	MinScore float64 `json:"min_score"`
}

// Outlook is a rule-based reading of the latest indicator values, reported next to the forecast.
// Positive scores mean the price is stretched to the downside, negative to the upside.
type Outlook struct {
	Factors    []FactorScore `json:"factors"`
	TotalScore float64       `json:"total_score"`
	Stance     Stance        `json:"stance"`
	Warning    string        `json:"warning,omitempty"`
}
