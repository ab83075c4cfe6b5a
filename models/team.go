package models

type Team struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortCode string  `json:"short_code,omitempty"`
	Budget    float64 `json:"budget"` // treasury, derived from deposits minus expenses
}
