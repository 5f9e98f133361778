package connector

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"trade-bridge/src/cache"
	"trade-bridge/src/gateway"
)

// Connector owns the single gateway session for the process. Data operations
// (quotes, account values, positions, orders) take the read lock and may run
// concurrently; Connect and Disconnect take the write lock and have the
// session exclusively.
type Connector struct {
	dialer  gateway.Dialer
	session gateway.Session
	mu      sync.RWMutex

	bars *cache.BarCache

	warmup       time.Duration
	pollInterval time.Duration
	readTimeout  time.Duration
	pollAttempts int
}

func NewConnector(dialer gateway.Dialer) *Connector {
	warmup := time.Second
	if env := os.Getenv("QUOTE_WARMUP"); env != "" {
		if parsed, err := time.ParseDuration(env); err == nil && parsed > 0 {
			warmup = parsed
		}
	}

	pollInterval := 500 * time.Millisecond
	if env := os.Getenv("QUOTE_POLL_INTERVAL"); env != "" {
		if parsed, err := time.ParseDuration(env); err == nil && parsed > 0 {
			pollInterval = parsed
		}
	}

	readTimeout := 2 * time.Second
	if env := os.Getenv("QUOTE_READ_TIMEOUT"); env != "" {
		if parsed, err := time.ParseDuration(env); err == nil && parsed > 0 {
			readTimeout = parsed
		}
	}

	pollAttempts := 10
	if env := os.Getenv("QUOTE_POLL_ATTEMPTS"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			pollAttempts = parsed
		}
	}

	return &Connector{
		dialer:       dialer,
		bars:         cache.NewBarCache(),
		warmup:       warmup,
		pollInterval: pollInterval,
		readTimeout:  readTimeout,
		pollAttempts: pollAttempts,
	}
}

// Connect opens a new gateway session, replacing any existing one.
func (c *Connector) Connect(address string, port int, clientID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// edge case: a stale session is torn down before dialing again
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}

	session, err := c.dialer.Dial(address, port, clientID)
	if err != nil {
		log.Error().
			Err(err).
			Str("address", address).
			Int("port", port).
			Int("client_id", clientID).
			Msg("Gateway connection failed")
		return false
	}

	c.session = session
	log.Info().
		Str("address", address).
		Int("port", port).
		Int("client_id", clientID).
		Msg("Gateway connected")
	return true
}

func (c *Connector) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil && c.session.IsConnected()
}

// Disconnect tears down the session. Calling it while not connected is a
// no-op.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}
	c.session.Close()
	c.session = nil
	log.Info().Msg("Gateway disconnected")
}

// AccountValues drains the gateway's account update stream and returns one
// formatted line per account value. Returns nil when not connected.
func (c *Connector) AccountValues() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || !c.session.IsConnected() {
		log.Warn().Msg("Account values requested while not connected")
		return nil
	}

	updates, err := c.session.AccountUpdates()
	if err != nil {
		log.Error().Err(err).Msg("Error subscribing to account updates")
		return nil
	}

	results := make([]string, 0)
	for v := range updates {
		line := fmt.Sprintf("key: %s, value: %s, currency: %s, account: %s",
			v.Key, v.Value, v.Currency, v.Account)
		log.Debug().Str("account_value", line).Msg("Account update")
		results = append(results, line)
	}
	return results
}

// Positions drains the gateway's position stream and returns one formatted
// line per position. Returns nil when not connected.
func (c *Connector) Positions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || !c.session.IsConnected() {
		log.Warn().Msg("Positions requested while not connected")
		return nil
	}

	positions, err := c.session.Positions()
	if err != nil {
		log.Error().Err(err).Msg("Error subscribing to positions")
		// edge case: a failed subscription still reports an empty list,
		// the connection itself is fine
		return []string{}
	}

	results := make([]string, 0)
	for p := range positions {
		line := fmt.Sprintf("Account: %s, Contract: %s, Position: %g, Avg cost: %g",
			p.Account, p.Symbol, p.Quantity, p.AvgCost)
		log.Debug().Str("position", line).Msg("Position update")
		results = append(results, line)
	}
	return results
}

// findContract resolves a ticker and picks the candidate whose symbol
// matches exactly. Resolution may return several contracts; anything that
// is not an exact symbol match is skipped.
func (c *Connector) findContract(ticker string) (gateway.Contract, bool) {
	details, err := c.session.ContractDetails(ticker)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Error getting contract details")
		return gateway.Contract{}, false
	}

	for _, contract := range details {
		if contract.Symbol == ticker {
			return contract, true
		}
	}

	log.Warn().Str("ticker", ticker).Int("candidates", len(details)).Msg("No exact contract match")
	return gateway.Contract{}, false
}
