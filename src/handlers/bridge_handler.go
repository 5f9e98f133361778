package handlers

import (
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"trade-bridge/src/connector"
	"trade-bridge/src/gateway"
	"trade-bridge/src/models"
)

type BridgeHandler struct {
	Connector       *connector.Connector
	StartTime       time.Time
	QuotesServed    int64
	QuotesMissed    int64
	OrdersSubmitted int64
	OrdersRejected  int64

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewBridgeHandler(conn *connector.Connector) *BridgeHandler {
	maxLatencies := 10000
	if envMax := os.Getenv("METRICS_MAX_LATENCIES"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxLatencies = parsed
		}
	}

	return &BridgeHandler{
		Connector:    conn,
		StartTime:    time.Now(),
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

func (h *BridgeHandler) Connect(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: address is required",
		})
	}

	port, err := strconv.Atoi(c.Query("port"))
	if err != nil || port <= 0 || port > 65535 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: port must be between 1 and 65535",
		})
	}

	clientID, err := strconv.Atoi(c.Query("client_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: client_id must be an integer",
		})
	}

	log.Info().
		Str("address", address).
		Int("port", port).
		Int("client_id", clientID).
		Str("ip", c.IP()).
		Msg("Connect requested")

	connected := h.Connector.Connect(address, port, clientID)
	return c.Status(fiber.StatusOK).JSON(models.ConnectResponse{Connected: connected})
}

func (h *BridgeHandler) IsConnected(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.ConnectResponse{
		Connected: h.Connector.IsConnected(),
	})
}

func (h *BridgeHandler) Disconnect(c *fiber.Ctx) error {
	log.Info().Str("ip", c.IP()).Msg("Disconnect requested")
	h.Connector.Disconnect()
	return c.Status(fiber.StatusOK).JSON(models.DisconnectResponse{Disconnected: true})
}

func (h *BridgeHandler) GetAccountValues(c *fiber.Ctx) error {
	values := h.Connector.AccountValues()
	return c.Status(fiber.StatusOK).JSON(models.AccountValuesResponse{Values: values})
}

func (h *BridgeHandler) GetPositions(c *fiber.Ctx) error {
	positions := h.Connector.Positions()
	return c.Status(fiber.StatusOK).JSON(models.PositionsResponse{Positions: positions})
}

func (h *BridgeHandler) GetMarketData(c *fiber.Ctx) error {
	ticker := c.Query("ticker")
	if ticker == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: ticker is required",
		})
	}

	startTime := time.Now()
	price, ok := h.Connector.MarketData(ticker)
	h.recordLatency(time.Since(startTime))

	response := models.MarketDataResponse{Ticker: ticker}
	if ok {
		response.Price = &price
		atomic.AddInt64(&h.QuotesServed, 1)
	} else {
		atomic.AddInt64(&h.QuotesMissed, 1)
	}

	// edge case: no quote is a logical miss, not an HTTP error
	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *BridgeHandler) GetDayRange(c *fiber.Ctx) error {
	ticker := c.Query("ticker")
	if ticker == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: ticker is required",
		})
	}

	low, high := h.Connector.DayRange(ticker)
	return c.Status(fiber.StatusOK).JSON(models.DayRangeResponse{
		Ticker: ticker,
		Low:    low,
		High:   high,
	})
}

func (h *BridgeHandler) SubmitOrder(c *fiber.Ctx) error {
	ticker := c.Query("ticker")
	action := c.Query("action")
	qty, qtyErr := strconv.ParseInt(c.Query("qty"), 10, 64)
	stopPrice, stopErr := strconv.ParseFloat(c.Query("stop_price"), 64)
	entryPrice, entryErr := strconv.ParseFloat(c.Query("entry_price"), 64)

	if err := validateOrderQuery(ticker, action, qty, qtyErr, stopErr, entryErr); err != nil {
		log.Warn().
			Err(err).
			Str("ticker", ticker).
			Str("action", action).
			Str("ip", c.IP()).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	log.Info().
		Str("ticker", ticker).
		Str("action", action).
		Int64("qty", qty).
		Float64("stop_price", stopPrice).
		Float64("entry_price", entryPrice).
		Str("ip", c.IP()).
		Msg("Order submitted")

	startTime := time.Now()
	success, message := h.Connector.SubmitBracket(ticker, qty, stopPrice, entryPrice, gateway.OrderAction(action))
	h.recordLatency(time.Since(startTime))

	if success {
		atomic.AddInt64(&h.OrdersSubmitted, 1)
	} else {
		atomic.AddInt64(&h.OrdersRejected, 1)
	}

	log.Info().
		Str("ticker", ticker).
		Bool("success", success).
		Str("message", message).
		Msg("Order processed")

	return c.Status(fiber.StatusOK).JSON(models.OrderResponse{
		Success: success,
		Message: message,
	})
}

func (h *BridgeHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(uptime),
		Connected:     h.Connector.IsConnected(),
	})
}

func (h *BridgeHandler) Metrics(c *fiber.Ctx) error {
	p50, p99, p999 := h.calculateLatencyPercentiles()

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		QuotesServed:    atomic.LoadInt64(&h.QuotesServed),
		QuotesMissed:    atomic.LoadInt64(&h.QuotesMissed),
		OrdersSubmitted: atomic.LoadInt64(&h.OrdersSubmitted),
		OrdersRejected:  atomic.LoadInt64(&h.OrdersRejected),
		LatencyP50Ms:    p50,
		LatencyP99Ms:    p99,
		LatencyP999Ms:   p999,
	})
}

func (h *BridgeHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	// edge case: maintain rolling window by removing oldest measurements
	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *BridgeHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	defer h.latenciesMu.RUnlock()

	if len(h.latencies) == 0 {
		return 0, 0, 0
	}

	latenciesCopy := make([]time.Duration, len(h.latencies))
	copy(latenciesCopy, h.latencies)

	sort.Slice(latenciesCopy, func(i, j int) bool {
		return latenciesCopy[i] < latenciesCopy[j]
	})

	percentile := func(p float64) float64 {
		idx := int(float64(len(latenciesCopy)) * p)
		if idx >= len(latenciesCopy) {
			idx = len(latenciesCopy) - 1
		}
		return float64(latenciesCopy[idx].Nanoseconds()) / 1e6
	}

	return percentile(0.50), percentile(0.99), percentile(0.999)
}

func validateOrderQuery(ticker, action string, qty int64, qtyErr, stopErr, entryErr error) error {
	if ticker == "" {
		return &ValidationError{Message: "Invalid order: ticker is required"}
	}

	if action != string(gateway.ActionBuy) && action != string(gateway.ActionSell) {
		return &ValidationError{Message: "Invalid order: action must be BUY or SELL"}
	}

	if qtyErr != nil || qty <= 0 {
		return &ValidationError{Message: "Invalid order: qty must be a positive integer"}
	}

	if stopErr != nil {
		return &ValidationError{Message: "Invalid order: stop_price must be a number"}
	}

	if entryErr != nil {
		return &ValidationError{Message: "Invalid order: entry_price must be a number"}
	}

	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
