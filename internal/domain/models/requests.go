package models

// ScanRequest runs the crossing-event detector over the stored events.
type ScanRequest struct {
	WindowDays       int     `json:"window_days" query:"window_days" default:"14" validate:"gte=1,lte=365"`
	MinActors        int     `json:"min_actors" query:"min_actors" default:"3" validate:"gte=1"`
	MinNotional      float64 `json:"min_notional" query:"min_notional" default:"300000" validate:"gte=0"`
	ExcludeScheduled *bool   `json:"exclude_scheduled" query:"exclude_scheduled"`
}

// BacktestRequest evaluates detected signals against stored price series.
type BacktestRequest struct {
	ScanRequest
	Horizons []int   `json:"horizons" validate:"omitempty,min=1,dive,gte=1,lte=504"`
	CostBPS  float64 `json:"cost_bps" default:"20" validate:"gte=0"`
}

// AlertsRequest aggregates recent activity per symbol as of now.
type AlertsRequest struct {
	Days        int     `json:"days" query:"days" default:"7" validate:"gte=1,lte=365"`
	MinActors   int     `json:"min_actors" query:"min_actors" default:"3" validate:"gte=1"`
	MinNotional float64 `json:"min_notional" query:"min_notional" default:"300000" validate:"gte=0"`
}

// SignalsRequest lists the most recently detected signals.
type SignalsRequest struct {
	Symbol string `json:"symbol" query:"symbol"`
	Limit  int    `json:"limit" query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
