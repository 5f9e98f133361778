package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Simulator is an in-memory trading gateway for paper trading and tests.
// Market orders fill immediately at the scripted quote price; stop orders
// rest until cancelled. No external connection is made.
type Simulator struct {
	mu        sync.RWMutex
	connected bool

	quotes    map[string]float64
	bars      map[string][]Bar
	accounts  []AccountValue
	positions []Position
	resting   map[string]OrderSpec
}

func NewSimulator() *Simulator {
	return &Simulator{
		quotes:  make(map[string]float64),
		bars:    make(map[string][]Bar),
		resting: make(map[string]OrderSpec),
	}
}

// SetQuote scripts the price returned for a ticker's quote subscription.
func (s *Simulator) SetQuote(ticker string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[ticker] = price
}

// SetBars scripts the historical bars returned for a ticker.
func (s *Simulator) SetBars(ticker string, bars []Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[ticker] = bars
}

// SetAccountValues scripts the account value snapshot.
func (s *Simulator) SetAccountValues(values []AccountValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = values
}

// SetPositions scripts the position snapshot.
func (s *Simulator) SetPositions(positions []Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = positions
}

// RestingOrders returns the stop orders currently resting, keyed by order ID.
func (s *Simulator) RestingOrders() map[string]OrderSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]OrderSpec, len(s.resting))
	for id, spec := range s.resting {
		out[id] = spec
	}
	return out
}

// Dial marks the simulator connected. The address, port and client ID are
// recorded only for logging; nothing is dialed.
func (s *Simulator) Dial(address string, port int, clientID int) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	log.Info().
		Str("address", address).
		Int("port", port).
		Int("client_id", clientID).
		Msg("Simulator gateway session opened")
	return s, nil
}

func (s *Simulator) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.resting = make(map[string]OrderSpec)
}

func (s *Simulator) AccountUpdates() (<-chan AccountValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, errors.New("simulator: not connected")
	}

	ch := make(chan AccountValue, len(s.accounts))
	for _, v := range s.accounts {
		ch <- v
	}
	close(ch)
	return ch, nil
}

func (s *Simulator) Positions() (<-chan Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, errors.New("simulator: not connected")
	}

	ch := make(chan Position, len(s.positions))
	for _, p := range s.positions {
		ch <- p
	}
	close(ch)
	return ch, nil
}

func (s *Simulator) ContractDetails(ticker string) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, errors.New("simulator: not connected")
	}
	// edge case: unknown tickers resolve to nothing, mirroring a failed
	// gateway lookup rather than an error
	if _, ok := s.quotes[ticker]; !ok {
		if _, ok := s.bars[ticker]; !ok {
			return nil, nil
		}
	}
	return []Contract{{
		ID:       int64(uuid.New().ID()),
		Symbol:   ticker,
		Exchange: "SMART",
		Currency: "USD",
	}}, nil
}

func (s *Simulator) SubscribeQuote(contract Contract) (QuoteSub, error) {
	s.mu.RLock()
	price, ok := s.quotes[contract.Symbol]
	connected := s.connected
	s.mu.RUnlock()

	if !connected {
		return nil, errors.New("simulator: not connected")
	}

	sub := &simQuoteSub{ticks: make(chan Tick, 1)}
	if ok {
		sub.ticks <- Tick{
			Kind:      TickPrice,
			Price:     price,
			Timestamp: time.Now().UnixMilli(),
		}
	}
	return sub, nil
}

func (s *Simulator) HistoricalBars(contract Contract, duration, barSize time.Duration) ([]Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, errors.New("simulator: not connected")
	}
	bars, ok := s.bars[contract.Symbol]
	if !ok {
		return nil, fmt.Errorf("simulator: no historical data for %s", contract.Symbol)
	}
	return bars, nil
}

func (s *Simulator) PlaceOrder(contract Contract, spec OrderSpec) (<-chan OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, errors.New("simulator: not connected")
	}
	if spec.Quantity <= 0 {
		return nil, fmt.Errorf("simulator: invalid quantity %d", spec.Quantity)
	}

	orderID := uuid.New().String()
	statuses := make(chan OrderStatus, 2)

	switch spec.Type {
	case TypeMarket:
		fillPrice := s.quotes[contract.Symbol]
		statuses <- OrderStatus{OrderID: orderID, Status: StatusSubmitted}
		statuses <- OrderStatus{
			OrderID:      orderID,
			Status:       StatusFilled,
			FilledQty:    spec.Quantity,
			AvgFillPrice: fillPrice,
		}
		close(statuses)
		log.Info().
			Str("order_id", orderID).
			Str("symbol", contract.Symbol).
			Str("action", string(spec.Action)).
			Int64("quantity", spec.Quantity).
			Float64("fill_price", fillPrice).
			Msg("Simulator market order filled")
	case TypeStop:
		s.resting[orderID] = spec
		statuses <- OrderStatus{OrderID: orderID, Status: StatusSubmitted}
		log.Info().
			Str("order_id", orderID).
			Str("symbol", contract.Symbol).
			Str("action", string(spec.Action)).
			Int64("quantity", spec.Quantity).
			Float64("stop_price", spec.AuxPrice).
			Msg("Simulator stop order resting")
	default:
		return nil, fmt.Errorf("simulator: unsupported order type %s", spec.Type)
	}

	return statuses, nil
}

type simQuoteSub struct {
	ticks    chan Tick
	cancelMu sync.Mutex
	done     bool
}

func (q *simQuoteSub) Ticks() <-chan Tick {
	return q.ticks
}

func (q *simQuoteSub) Cancel() {
	q.cancelMu.Lock()
	defer q.cancelMu.Unlock()
	// edge case: Cancel may be called twice (defer plus explicit path)
	if q.done {
		return
	}
	q.done = true
	close(q.ticks)
}
