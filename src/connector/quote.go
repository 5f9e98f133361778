package connector

import (
	"time"

	"github.com/rs/zerolog/log"

	"trade-bridge/src/gateway"
)

// MarketData returns a best-effort current price for the ticker. It resolves
// the contract, opens a single quote subscription, waits one warm-up period,
// then polls for up to pollAttempts ticks with pollInterval between failed
// polls, exiting as soon as a positive price tick arrives. After the last
// polling round one final read is made with no further delay. The second
// return value is false when no positive price was observed.
//
// The subscription is cancelled on every exit path, including timeout and
// stream errors.
func (c *Connector) MarketData(ticker string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || !c.session.IsConnected() {
		log.Warn().Str("ticker", ticker).Msg("Market data requested while not connected")
		return 0, false
	}

	contract, ok := c.findContract(ticker)
	if !ok {
		return 0, false
	}

	sub, err := c.session.SubscribeQuote(contract)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Error subscribing to quotes")
		return 0, false
	}
	defer sub.Cancel()

	// subscription warm-up before the first read
	time.Sleep(c.warmup)

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		price, ok, alive := c.readPriceTick(sub, ticker)
		if ok {
			return price, true
		}
		if !alive {
			// stream ended, no point in retrying
			return 0, false
		}
		time.Sleep(c.pollInterval)
	}

	// one last chance read before giving up
	price, ok, _ := c.readPriceTick(sub, ticker)
	if ok {
		return price, true
	}

	log.Warn().
		Str("ticker", ticker).
		Int("attempts", c.pollAttempts+1).
		Msg("No positive price tick observed")
	return 0, false
}

// readPriceTick waits for the next tick, bounded by readTimeout. ok is true
// when a positive price tick arrived; alive is false when the subscription
// stream has ended.
func (c *Connector) readPriceTick(sub gateway.QuoteSub, ticker string) (price float64, ok bool, alive bool) {
	select {
	case tick, open := <-sub.Ticks():
		if !open {
			log.Error().Str("ticker", ticker).Msg("Quote stream closed while polling")
			return 0, false, false
		}
		if tick.Kind == gateway.TickPrice && tick.Price > 0 {
			log.Info().
				Str("ticker", ticker).
				Float64("price", tick.Price).
				Msg("Current price observed")
			return tick.Price, true, true
		}
		log.Debug().
			Str("ticker", ticker).
			Str("kind", string(tick.Kind)).
			Msg("Non-price tick received")
		return 0, false, true
	case <-time.After(c.readTimeout):
		return 0, false, true
	}
}
