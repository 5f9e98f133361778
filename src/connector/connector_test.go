package connector

import (
	"errors"
	"testing"

	"trade-bridge/src/gateway"
)

func TestConnectAndDisconnect(t *testing.T) {
	session := &stubSession{connected: true}
	c := NewConnector(&stubDialer{session: session})

	if c.IsConnected() {
		t.Error("connector reported connected before Connect")
	}

	if !c.Connect("127.0.0.1", 4002, 7) {
		t.Fatal("Connect failed")
	}
	if !c.IsConnected() {
		t.Error("connector not connected after Connect")
	}

	c.Disconnect()
	if c.IsConnected() {
		t.Error("connector still connected after Disconnect")
	}
	if session.connected {
		t.Error("session was not closed on Disconnect")
	}
}

// TestDisconnectWhenNotConnected checks the no-op property: disconnecting
// without a session neither fails nor panics, repeatedly.
func TestDisconnectWhenNotConnected(t *testing.T) {
	c := NewConnector(&stubDialer{session: &stubSession{}})

	c.Disconnect()
	c.Disconnect()

	if c.IsConnected() {
		t.Error("connector reported connected after no-op disconnects")
	}
}

func TestConnectFailure(t *testing.T) {
	c := NewConnector(&stubDialer{err: errors.New("stub: gateway unreachable")})

	if c.Connect("127.0.0.1", 4002, 1) {
		t.Error("Connect reported success for a failed dial")
	}
	if c.IsConnected() {
		t.Error("connector reported connected after a failed dial")
	}
}

// TestConnectReplacesSession checks that reconnecting closes the previous
// session before dialing a new one.
func TestConnectReplacesSession(t *testing.T) {
	first := &stubSession{connected: true}
	c := NewConnector(&stubDialer{session: first})

	if !c.Connect("127.0.0.1", 4002, 1) {
		t.Fatal("first Connect failed")
	}
	if !c.Connect("127.0.0.1", 4002, 2) {
		t.Fatal("second Connect failed")
	}
	if first.connected {
		t.Error("previous session was not closed on reconnect")
	}
}

func TestAccountValuesNotConnected(t *testing.T) {
	c := NewConnector(&stubDialer{session: &stubSession{}})

	if values := c.AccountValues(); values != nil {
		t.Errorf("expected nil when not connected, got %v", values)
	}
}

func TestAccountValuesFormatting(t *testing.T) {
	session := &stubSession{
		connected: true,
		accountValues: []gateway.AccountValue{
			{Key: "NetLiquidation", Value: "25000.00", Currency: "USD", Account: "DU12345"},
			{Key: "BuyingPower", Value: "100000.00", Currency: "USD", Account: "DU12345"},
		},
	}
	c := newTestConnector(session)

	values := c.AccountValues()
	if len(values) != 2 {
		t.Fatalf("expected 2 account values, got %d", len(values))
	}

	want := "key: NetLiquidation, value: 25000.00, currency: USD, account: DU12345"
	if values[0] != want {
		t.Errorf("values[0] = %q, want %q", values[0], want)
	}
}

func TestPositionsNotConnected(t *testing.T) {
	c := NewConnector(&stubDialer{session: &stubSession{}})

	if positions := c.Positions(); positions != nil {
		t.Errorf("expected nil when not connected, got %v", positions)
	}
}

func TestPositionsFormatting(t *testing.T) {
	session := &stubSession{
		connected: true,
		positions: []gateway.Position{
			{Account: "DU12345", Symbol: "AAPL", Quantity: 100, AvgCost: 182.5},
		},
	}
	c := newTestConnector(session)

	positions := c.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	want := "Account: DU12345, Contract: AAPL, Position: 100, Avg cost: 182.5"
	if positions[0] != want {
		t.Errorf("positions[0] = %q, want %q", positions[0], want)
	}
}

func TestDayRange(t *testing.T) {
	session := &stubSession{
		connected: true,
		contracts: singleContract("AAPL"),
		bars: []gateway.Bar{
			{Timestamp: 1, Open: 10, High: 12, Low: 9.5, Close: 11},
			{Timestamp: 2, Open: 11, High: 14, Low: 10.5, Close: 13},
			{Timestamp: 3, Open: 13, High: 13.5, Low: 8.75, Close: 9},
		},
	}
	c := newTestConnector(session)

	low, high := c.DayRange("AAPL")
	if low != 8.75 {
		t.Errorf("low = %v, want 8.75", low)
	}
	if high != 14.0 {
		t.Errorf("high = %v, want 14", high)
	}
}

// TestDayRangeFallsBackToCache checks that a failed refresh still answers
// from bars cached by an earlier call.
func TestDayRangeFallsBackToCache(t *testing.T) {
	session := &stubSession{
		connected: true,
		contracts: singleContract("AAPL"),
		bars: []gateway.Bar{
			{Timestamp: 1, Open: 10, High: 12, Low: 9.5, Close: 11},
		},
	}
	c := newTestConnector(session)

	if low, high := c.DayRange("AAPL"); low != 9.5 || high != 12 {
		t.Fatalf("first call: low = %v, high = %v", low, high)
	}

	session.barsErr = errors.New("stub: history unavailable")
	if low, high := c.DayRange("AAPL"); low != 9.5 || high != 12 {
		t.Errorf("cached call: low = %v, high = %v, want 9.5, 12", low, high)
	}
}

func TestDayRangeNoData(t *testing.T) {
	session := &stubSession{
		connected: true,
		contracts: singleContract("AAPL"),
		barsErr:   errors.New("stub: history unavailable"),
	}
	c := newTestConnector(session)

	if low, high := c.DayRange("AAPL"); low != 0 || high != 0 {
		t.Errorf("expected (0, 0) with no data, got (%v, %v)", low, high)
	}
}

func TestDayRangeNotConnected(t *testing.T) {
	c := NewConnector(&stubDialer{session: &stubSession{}})

	if low, high := c.DayRange("AAPL"); low != 0 || high != 0 {
		t.Errorf("expected (0, 0) when not connected, got (%v, %v)", low, high)
	}
}
