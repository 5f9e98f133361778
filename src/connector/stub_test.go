package connector

import (
	"errors"
	"fmt"
	"time"

	"trade-bridge/src/gateway"
)

// stubDialer hands out a pre-built session.
type stubDialer struct {
	session gateway.Session
	err     error
}

func (d *stubDialer) Dial(address string, port int, clientID int) (gateway.Session, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

// stubQuoteSub is a scriptable quote subscription. Cancel only flips a flag
// so tests can inspect the remaining buffered ticks afterwards.
type stubQuoteSub struct {
	ticks     chan gateway.Tick
	cancelled bool
}

func newStubQuoteSub(ticks ...gateway.Tick) *stubQuoteSub {
	ch := make(chan gateway.Tick, len(ticks)+1)
	for _, t := range ticks {
		ch <- t
	}
	return &stubQuoteSub{ticks: ch}
}

func (s *stubQuoteSub) Ticks() <-chan gateway.Tick { return s.ticks }
func (s *stubQuoteSub) Cancel()                    { s.cancelled = true }

// stubSession scripts every gateway call the connector makes.
type stubSession struct {
	connected bool

	contracts  []gateway.Contract
	resolveErr error

	sub    *stubQuoteSub
	subErr error

	bars    []gateway.Bar
	barsErr error

	accountValues []gateway.AccountValue
	positions     []gateway.Position

	// market-leg status sequence, consumed by the first MARKET PlaceOrder
	marketStatuses []gateway.OrderStatus

	// placed orders in submission sequence
	placed []gateway.OrderSpec
	// 1-based index of the PlaceOrder call that fails; 0 means never
	failOnPlaceCall int
}

func (s *stubSession) IsConnected() bool { return s.connected }
func (s *stubSession) Close()            { s.connected = false }

func (s *stubSession) AccountUpdates() (<-chan gateway.AccountValue, error) {
	ch := make(chan gateway.AccountValue, len(s.accountValues))
	for _, v := range s.accountValues {
		ch <- v
	}
	close(ch)
	return ch, nil
}

func (s *stubSession) Positions() (<-chan gateway.Position, error) {
	ch := make(chan gateway.Position, len(s.positions))
	for _, p := range s.positions {
		ch <- p
	}
	close(ch)
	return ch, nil
}

func (s *stubSession) ContractDetails(ticker string) ([]gateway.Contract, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return s.contracts, nil
}

func (s *stubSession) SubscribeQuote(contract gateway.Contract) (gateway.QuoteSub, error) {
	if s.subErr != nil {
		return nil, s.subErr
	}
	if s.sub == nil {
		return nil, errors.New("stub: no subscription scripted")
	}
	return s.sub, nil
}

func (s *stubSession) HistoricalBars(contract gateway.Contract, duration, barSize time.Duration) ([]gateway.Bar, error) {
	if s.barsErr != nil {
		return nil, s.barsErr
	}
	return s.bars, nil
}

func (s *stubSession) PlaceOrder(contract gateway.Contract, spec gateway.OrderSpec) (<-chan gateway.OrderStatus, error) {
	call := len(s.placed) + 1
	if s.failOnPlaceCall > 0 && call == s.failOnPlaceCall {
		return nil, fmt.Errorf("stub: place order rejected on call %d", call)
	}
	s.placed = append(s.placed, spec)

	ch := make(chan gateway.OrderStatus, len(s.marketStatuses))
	if spec.Type == gateway.TypeMarket {
		for _, st := range s.marketStatuses {
			ch <- st
		}
	}
	close(ch)
	return ch, nil
}

func singleContract(ticker string) []gateway.Contract {
	return []gateway.Contract{{ID: 1, Symbol: ticker, Exchange: "SMART", Currency: "USD"}}
}

// newTestConnector builds a connected Connector with fast polling intervals
// so the bounded-retry tests run in milliseconds.
func newTestConnector(session gateway.Session) *Connector {
	c := NewConnector(&stubDialer{session: session})
	c.warmup = time.Millisecond
	c.pollInterval = time.Millisecond
	c.readTimeout = 5 * time.Millisecond
	if !c.Connect("127.0.0.1", 4002, 1) {
		panic("stub connect failed")
	}
	return c
}
