package game

import (
	"sort"
	"time"
)

// ForceStalled unblocks a game whose pending player has gone quiet: late
// discards are made at random, and a stalled turn is driven forward through
// the same paths a real action would take. Returns nil when nothing is due.
func (g *Game) ForceStalled(now time.Time, discardAfter, turnAfter time.Duration) []Outbound {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateNew, StateOver:
		return nil
	case StateWaitingDiscards:
		if now.Sub(g.discardSince) < discardAfter {
			return nil
		}
		return g.forceDiscards()
	}
	if now.Sub(g.lastAction) < turnAfter {
		return nil
	}
	out := g.forceTurn()
	g.touch()
	return out
}

// forceDiscards discards a random half-hand for every seat still owing.
func (g *Game) forceDiscards() []Outbound {
	var seats []int
	for s := range g.mustDiscard {
		seats = append(seats, s)
	}
	sort.Ints(seats)

	var out []Outbound
	for _, s := range seats {
		owed := g.mustDiscard[s]
		give := g.randomSubset(g.players[s].Resources, owed)
		o, err := g.discard(s, give)
		if err != nil {
			// Hand changed out from under the obligation; waive it.
			delete(g.mustDiscard, s)
			if len(g.mustDiscard) == 0 {
				out = append(out, g.setState(StatePlacingRobber)...)
			}
			continue
		}
		out = append(out, o...)
	}
	g.touch()
	return out
}

// randomSubset draws n resources from the hand without replacement.
func (g *Game) randomSubset(hand ResourceSet, n int) ResourceSet {
	var out ResourceSet
	for i := 0; i < n && hand.Total() > 0; i++ {
		pick := g.rng.Intn(hand.Total())
		for res, c := range hand {
			if pick < c {
				hand[res]--
				out[res]++
				break
			}
			pick -= c
		}
	}
	return out
}

// forceTurn takes the minimum legal action for the current state.
func (g *Game) forceTurn() []Outbound {
	switch g.state {
	case StateRollOrCard:
		return g.roll(g.cur)
	case StatePlay, StateSpecialBuilding:
		return g.endTurn()
	case StatePlacingRobber:
		for _, id := range g.sortedHexIDs() {
			out, err := g.moveRobber(g.cur, id)
			if err == nil {
				return out
			}
		}
		return nil
	case StateWaitingRobbery:
		if len(g.victims) == 0 {
			return g.afterRobbery()
		}
		victim := g.victims[g.rng.Intn(len(g.victims))]
		out := g.steal(g.cur, victim)
		return append(out, g.afterRobbery()...)
	case StateFreeRoad1, StateFreeRoad2:
		g.freeRoads = 0
		return g.afterRobbery()
	case StateStart1Settlement, StateStart2Settlement:
		for _, n := range g.sortedNodeIDs() {
			out, err := g.placeSetupSettlement(g.cur, string(n))
			if err == nil {
				return out
			}
		}
		return nil
	case StateStart1Road, StateStart2Road:
		p := g.players[g.cur]
		for _, e := range g.board.edgesAtNode(p.setupNode) {
			out, err := g.placeSetupRoad(g.cur, string(e))
			if err == nil {
				return out
			}
		}
		return nil
	}
	return nil
}

func (g *Game) sortedHexIDs() []string {
	out := make([]string, 0, len(g.board.Hexes))
	for id := range g.board.Hexes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (g *Game) sortedNodeIDs() []NodeID {
	out := make([]NodeID, 0, len(g.board.nodeHexes))
	for n := range g.board.nodeHexes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
