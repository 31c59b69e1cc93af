package models

// Sport identifies the league an event belongs to
type Sport string

const (
	SportNBA    Sport = "NBA"
	SportNFL    Sport = "NFL"
	SportMLB    Sport = "MLB"
	SportNHL    Sport = "NHL"
	SportSoccer Sport = "SOCCER"
)

// AllSports lists every supported sport
var AllSports = []Sport{SportNBA, SportNFL, SportMLB, SportNHL, SportSoccer}

// IsValid checks whether the sport is a known league
func (s Sport) IsValid() bool {
	switch s {
	case SportNBA, SportNFL, SportMLB, SportNHL, SportSoccer:
		return true
	default:
		return false
	}
}

// IsHighScoring reports whether the sport uses the continuous score model.
// High-scoring sports simulate margins from a normal distribution; the rest
// simulate discrete goal/run counts.
func (s Sport) IsHighScoring() bool {
	switch s {
	case SportNBA, SportNFL:
		return true
	default:
		return false
	}
}

// AllowsTies reports whether a regulation game can end level. Two-way
// moneylines in these sports push on a tie.
func (s Sport) AllowsTies() bool {
	switch s {
	case SportNFL, SportSoccer:
		return true
	default:
		return false
	}
}
