package domain

// FareBreakdown is the itemized decomposition of a ride's price,
// including the driver/platform revenue split.
// DriverShare + PlatformFee always equals Total.
type FareBreakdown struct {
	BaseFare        float64 `json:"base_fare"`
	DistanceCost    float64 `json:"distance_cost"`
	TimeCost        float64 `json:"time_cost"`
	Subtotal        float64 `json:"subtotal"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeAmount     float64 `json:"surge_amount"`
	Total           float64 `json:"total"`
	DriverShare     float64 `json:"driver_share"`
	PlatformFee     float64 `json:"platform_fee"`
	Currency        string  `json:"currency"`
}
