package domain

// Source identifies a market-data provider family.
type Source string

const (
	SourceTWSE    Source = "twse"
	SourceYahoo   Source = "yahoo"
	SourceBinance Source = "binance"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceTWSE, SourceYahoo, SourceBinance:
		return true
	}
	return false
}

// SessionState describes where the wall clock sits relative to the trading session.
type SessionState string

const (
	SessionPreOpen SessionState = "pre_open"
	SessionOpen    SessionState = "open"
	SessionClosed  SessionState = "closed"
	SessionHoliday SessionState = "holiday"
)

// Direction classifies a price change for display purposes.
type Direction int

const (
	Flat Direction = iota
	Up
	Down
)

// DirectionOf returns the direction of the quote's change versus prior close.
func DirectionOf(q *Quote) Direction {
	if q == nil {
		return Flat
	}
	switch q.Price.Cmp(q.PriorClose) {
	case 1:
		return Up
	case -1:
		return Down
	}
	return Flat
}
