package models

// KitchenMetrics is the derived timing/volume snapshot shown on the kitchen
// dashboard. Interval averages are whole minutes, rounded up; zero means no
// qualifying sample.
type KitchenMetrics struct {
	ResponseMinutes int `json:"response_minutes"` // created -> preparing
	CookMinutes     int `json:"cook_minutes"`     // preparing -> ready
	ServiceMinutes  int `json:"service_minutes"`  // ready -> served
	DineInCount     int `json:"dine_in_count"`
	TakeawayCount   int `json:"takeaway_count"`
}
