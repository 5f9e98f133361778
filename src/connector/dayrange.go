package connector

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	historyDuration = 24 * time.Hour
	historyBarSize  = time.Minute
)

// DayRange returns the low and high of day for the ticker, computed from
// one-minute historical bars. Fetched bars accumulate in the bar cache, so
// a failed refresh still answers from earlier data. Returns (0, 0) when not
// connected, the ticker does not resolve, or no bars are available.
func (c *Connector) DayRange(ticker string) (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || !c.session.IsConnected() {
		log.Warn().Str("ticker", ticker).Msg("Day range requested while not connected")
		return 0, 0
	}

	contract, ok := c.findContract(ticker)
	if !ok {
		return 0, 0
	}

	bars, err := c.session.HistoricalBars(contract, historyDuration, historyBarSize)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Error fetching historical bars")
		// fall through to whatever is cached
	} else {
		c.bars.Put(ticker, bars)
	}

	low, high, ok := c.bars.Range(ticker)
	if !ok {
		log.Warn().Str("ticker", ticker).Msg("No bars available for day range")
		return 0, 0
	}

	log.Debug().
		Str("ticker", ticker).
		Float64("low", low).
		Float64("high", high).
		Int("bars", c.bars.Len(ticker)).
		Msg("Day range computed")
	return low, high
}
