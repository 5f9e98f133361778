package models

type ConnectResponse struct {
	Connected bool `json:"connected"`
}

type DisconnectResponse struct {
	Disconnected bool `json:"disconnected"`
}

type AccountValuesResponse struct {
	Values []string `json:"values"` // null when not connected
}

type PositionsResponse struct {
	Positions []string `json:"positions"` // null when not connected
}

type MarketDataResponse struct {
	Ticker string   `json:"ticker"`
	Price  *float64 `json:"price"` // null when no quote was observed
}

type DayRangeResponse struct {
	Ticker string  `json:"ticker"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// OrderResponse always travels with HTTP 200; logical failure is carried in
// Success and Message, not in the status code.
type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Connected     bool   `json:"connected"`
}

type MetricsResponse struct {
	QuotesServed    int64   `json:"quotes_served"`
	QuotesMissed    int64   `json:"quotes_missed"`
	OrdersSubmitted int64   `json:"orders_submitted"`
	OrdersRejected  int64   `json:"orders_rejected"`
	LatencyP50Ms    float64 `json:"latency_p50_ms"`
	LatencyP99Ms    float64 `json:"latency_p99_ms"`
	LatencyP999Ms   float64 `json:"latency_p999_ms"`
}
