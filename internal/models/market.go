package models

import "fmt"

// MarketType is the closed set of markets the core can price and settle.
// Both the classifier and the settlement rules switch exhaustively over it;
// an unknown value is rejected at parse time, never defaulted.
type MarketType string

const (
	MarketTypeSpread    MarketType = "SPREAD"
	MarketTypeTotal     MarketType = "TOTAL"
	MarketTypeMoneyline MarketType = "MONEYLINE"
)

// ParseMarketType converts a raw string into a MarketType
func ParseMarketType(raw string) (MarketType, error) {
	switch MarketType(raw) {
	case MarketTypeSpread, MarketTypeTotal, MarketTypeMoneyline:
		return MarketType(raw), nil
	default:
		return "", fmt.Errorf("unknown market type %q", raw)
	}
}

// IsValid checks whether the market type is one of the closed set
func (m MarketType) IsValid() bool {
	switch m {
	case MarketTypeSpread, MarketTypeTotal, MarketTypeMoneyline:
		return true
	default:
		return false
	}
}

// Selection identifies the side of a market a pick is on
type Selection string

const (
	SelectionHome  Selection = "HOME"
	SelectionAway  Selection = "AWAY"
	SelectionOver  Selection = "OVER"
	SelectionUnder Selection = "UNDER"
)

// ValidFor checks that the selection belongs to the market type
func (s Selection) ValidFor(market MarketType) bool {
	switch market {
	case MarketTypeSpread, MarketTypeMoneyline:
		return s == SelectionHome || s == SelectionAway
	case MarketTypeTotal:
		return s == SelectionOver || s == SelectionUnder
	default:
		return false
	}
}
