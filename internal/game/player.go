package game

import "github.com/wbreen/CatanFinal-sub001/internal/message"

// ResourceSet is re-exported from the wire package so hands, costs and
// deltas share one representation end to end.
type ResourceSet = message.ResourceSet

// Per-player piece supplies. Placed counts never exceed these.
const (
	SupplyRoads       = 15
	SupplySettlements = 5
	SupplyCities      = 4
)

// Award thresholds.
const (
	MinLongestRoad = 5
	MinLargestArmy = 3
)

// Development card kinds.
const (
	DevKnight   = "knight"
	DevRoads    = "roads"
	DevPlenty   = "plenty"
	DevMonopoly = "monopoly"
	DevVP       = "vp"
)

// Seat occupancy states, as sent in SeatUpdate messages.
const (
	SeatEmpty  = "empty"
	SeatHuman  = "human"
	SeatRobot  = "robot"
	SeatLocked = "locked"
)

// Seat is one fixed slot in a game. Conn is the occupant's connection ID, a
// weak reference: the seat survives the connection across reconnects.
type Seat struct {
	State string
	Nick  string
	Conn  string
}

// Player holds the mutable state of one occupied seat. It is created when
// the seat is first taken and survives disconnects until the game ends.
type Player struct {
	SeatIdx   int
	Resources ResourceSet

	// Development cards: New were bought this turn and are unplayable,
	// Old are playable, Played are face up.
	DevNew    []string
	DevOld    []string
	DevPlayed []string

	// Placed piece counts charged against the fixed supplies.
	Roads       int
	Settlements int
	Cities      int

	Knights        int
	HasLongestRoad bool
	HasLargestArmy bool

	// Per-turn flags, cleared when the turn passes.
	PlayedDev    bool
	AskedSpecial bool

	// Node of the settlement placed in the current setup round; the free
	// road must attach to it, and the round-two settlement produces.
	setupNode NodeID
}

// PublicVP is the score visible to everyone: buildings plus awards.
func (p *Player) PublicVP() int {
	vp := p.Settlements + 2*p.Cities
	if p.HasLongestRoad {
		vp += 2
	}
	if p.HasLargestArmy {
		vp += 2
	}
	for _, c := range p.DevPlayed {
		if c == DevVP {
			vp++
		}
	}
	return vp
}

// hiddenVP counts held, unrevealed victory-point cards.
func (p *Player) hiddenVP() int {
	n := 0
	for _, c := range append(append([]string{}, p.DevNew...), p.DevOld...) {
		if c == DevVP {
			n++
		}
	}
	return n
}

// TotalVP is the score the win condition checks.
func (p *Player) TotalVP() int { return p.PublicVP() + p.hiddenVP() }

// holdsOld reports whether the player has a playable card of the kind.
func (p *Player) holdsOld(kind string) bool {
	for _, c := range p.DevOld {
		if c == kind {
			return true
		}
	}
	return false
}

// removeOld discards one playable card of the kind.
func (p *Player) removeOld(kind string) {
	for i, c := range p.DevOld {
		if c == kind {
			p.DevOld = append(p.DevOld[:i], p.DevOld[i+1:]...)
			return
		}
	}
}

// canPay reports whether the hand covers the cost.
func (p *Player) canPay(cost ResourceSet) bool {
	for i, v := range cost {
		if p.Resources[i] < v {
			return false
		}
	}
	return true
}

func (p *Player) pay(cost ResourceSet) {
	for i, v := range cost {
		p.Resources[i] -= v
	}
}

func (p *Player) gain(res ResourceSet) {
	for i, v := range res {
		p.Resources[i] += v
	}
}
