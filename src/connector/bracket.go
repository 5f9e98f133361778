package connector

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"trade-bridge/src/gateway"
)

// StopLeg is one entry of the protective stop ladder.
type StopLeg struct {
	Price    float64
	Quantity int64
}

// StopLadder derives the three protective stop legs for a filled entry.
// priceDiff is the signed distance from the average fill to the stop,
// oriented so a profitable fill yields a positive diff. Prices step from
// two thirds of the way back toward the fill down to the stop itself, each
// rounded to 2 decimal places. Quantities split as floor(q/3), floor(q/3)
// and the remainder, so the three legs always sum exactly to quantity.
func StopLadder(action gateway.OrderAction, quantity int64, stopPrice, avgFillPrice float64) [3]StopLeg {
	priceDiff := avgFillPrice - stopPrice
	sign := 1.0
	if action == gateway.ActionSell {
		priceDiff = stopPrice - avgFillPrice
		sign = -1.0
	}

	third := quantity / 3

	return [3]StopLeg{
		{Price: round2(stopPrice + sign*priceDiff*2/3), Quantity: third},
		{Price: round2(stopPrice + sign*priceDiff*1/3), Quantity: third},
		{Price: round2(stopPrice), Quantity: quantity - 2*third},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubmitBracket places a market order for the full quantity, waits for its
// terminal status, and on a full fill submits the three stop-ladder legs in
// sequence without waiting for their fills. entryPrice is accepted for API
// compatibility; this order variant derives the ladder from the actual fill
// price instead.
//
// Stop legs are submitted with the same action as the entry. Legs already
// submitted when a later leg fails are left live; the failure message says
// how many.
func (c *Connector) SubmitBracket(ticker string, quantity int64, stopPrice, entryPrice float64, action gateway.OrderAction) (bool, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || !c.session.IsConnected() {
		return false, "Not connected"
	}
	if quantity <= 0 {
		return false, fmt.Sprintf("Invalid quantity: %d", quantity)
	}

	contract, ok := c.findContract(ticker)
	if !ok {
		return false, fmt.Sprintf("No contract found for %s", ticker)
	}

	statuses, err := c.session.PlaceOrder(contract, gateway.OrderSpec{
		Action:   action,
		Type:     gateway.TypeMarket,
		Quantity: quantity,
	})
	if err != nil {
		return false, fmt.Sprintf("Error placing order: %v", err)
	}

	terminal, ok := waitTerminal(statuses)
	if !ok || terminal.Status != gateway.StatusFilled {
		log.Warn().
			Str("ticker", ticker).
			Str("status", terminal.Status).
			Msg("Market leg did not fill")
		return false, "Market order was not filled."
	}

	avgFillPrice := terminal.AvgFillPrice
	log.Info().
		Str("ticker", ticker).
		Str("action", string(action)).
		Int64("quantity", quantity).
		Float64("avg_fill_price", avgFillPrice).
		Msg("Market leg filled")

	legs := StopLadder(action, quantity, stopPrice, avgFillPrice)

	for i, leg := range legs {
		_, err := c.session.PlaceOrder(contract, gateway.OrderSpec{
			Action:   action,
			Type:     gateway.TypeStop,
			Quantity: leg.Quantity,
			AuxPrice: leg.Price,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("ticker", ticker).
				Int("leg", i+1).
				Float64("stop_price", leg.Price).
				Int64("quantity", leg.Quantity).
				Msg("Stop leg submission failed")
			return false, fmt.Sprintf(
				"Stop order %d of 3 failed, %d stop orders already live and not cancelled: %v",
				i+1, i, err)
		}
		log.Info().
			Str("ticker", ticker).
			Int("leg", i+1).
			Float64("stop_price", leg.Price).
			Int64("quantity", leg.Quantity).
			Msg("Stop leg submitted")
	}

	return true, fmt.Sprintf("%s %d shares of %s at $%.2f. 3 stop-loss orders submitted.",
		action, quantity, ticker, avgFillPrice)
}

// waitTerminal consumes the status stream until a terminal status arrives.
// ok is false when the stream ends without one.
func waitTerminal(statuses <-chan gateway.OrderStatus) (gateway.OrderStatus, bool) {
	for status := range statuses {
		if status.IsTerminal() {
			return status, true
		}
		log.Debug().
			Str("order_id", status.OrderID).
			Str("status", status.Status).
			Msg("Intermediate order status")
	}
	return gateway.OrderStatus{}, false
}
