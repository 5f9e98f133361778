package gateway

import "time"

type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeStop   OrderType = "STOP"
)

// Terminal order status labels as reported by the gateway.
const (
	StatusFilled       = "Filled"
	StatusCancelled    = "Cancelled"
	StatusApiCancelled = "ApiCancelled"
	StatusInactive     = "Inactive"
	StatusSubmitted    = "Submitted"
	StatusPreSubmitted = "PreSubmitted"
)

// Contract is a resolved identifier for a tradable instrument. Resolution of
// a ticker may yield several candidate contracts; callers pick the one whose
// Symbol exactly matches the requested ticker.
type Contract struct {
	ID       int64
	Symbol   string
	Exchange string
	Currency string
}

type TickKind string

const (
	TickPrice TickKind = "PRICE"
	TickSize  TickKind = "SIZE"
	TickOther TickKind = "OTHER"
)

// Tick is a single observation from a quote subscription. Only PRICE ticks
// with a strictly positive price carry a usable quote.
type Tick struct {
	Kind      TickKind
	Price     float64
	Timestamp int64 // unix timestamp in milliseconds
}

type Bar struct {
	Timestamp int64 // unix timestamp in milliseconds, start of bar
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// OrderSpec describes an order to submit. Immutable once passed to
// PlaceOrder. AuxPrice is required for STOP orders and ignored otherwise.
type OrderSpec struct {
	Action   OrderAction
	Type     OrderType
	Quantity int64
	AuxPrice float64
}

// OrderStatus is one entry from an order's status stream. AvgFillPrice is
// only meaningful once Status is "Filled".
type OrderStatus struct {
	OrderID      string
	Status       string
	FilledQty    int64
	AvgFillPrice float64
}

// IsTerminal reports whether the status label ends the order's lifecycle.
func (s OrderStatus) IsTerminal() bool {
	switch s.Status {
	case StatusFilled, StatusCancelled, StatusApiCancelled, StatusInactive:
		return true
	}
	return false
}

type AccountValue struct {
	Key      string
	Value    string
	Currency string
	Account  string
}

type Position struct {
	Account  string
	Symbol   string
	Quantity float64
	AvgCost  float64
}

// QuoteSub is a live quote subscription. Ticks delivers observations until
// the subscription is cancelled or the session goes away; Cancel is safe to
// call more than once.
type QuoteSub interface {
	Ticks() <-chan Tick
	Cancel()
}

// Session is one active connection to the trading gateway. Data operations
// may be called concurrently; Close invalidates all in-flight streams.
type Session interface {
	IsConnected() bool
	Close()

	AccountUpdates() (<-chan AccountValue, error)
	Positions() (<-chan Position, error)
	ContractDetails(ticker string) ([]Contract, error)
	SubscribeQuote(contract Contract) (QuoteSub, error)
	HistoricalBars(contract Contract, duration time.Duration, barSize time.Duration) ([]Bar, error)
	PlaceOrder(contract Contract, spec OrderSpec) (<-chan OrderStatus, error)
}

// Dialer opens sessions against a trading gateway.
type Dialer interface {
	Dial(address string, port int, clientID int) (Session, error)
}
