package game

import (
	"strconv"

	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// BuyDevCard sells the current player the top card of the deck. The card
// goes into the new pile and cannot be played until the next turn.
func (g *Game) BuyDevCard(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StatePlay && g.state != StateSpecialBuilding {
		return nil, ruleErr(CodeBadState, "cannot buy a card in state %s", g.state)
	}
	if len(g.devDeck) == 0 {
		return nil, ruleErr(CodeNoSupply, "the development deck is empty")
	}
	p := g.players[seat]
	if !p.canPay(costDevCard) {
		return nil, ruleErr(CodeCantAfford, "cannot afford a development card")
	}
	p.pay(costDevCard)
	for res, n := range costDevCard {
		g.bank[res] += n
	}
	card := g.devDeck[len(g.devDeck)-1]
	g.devDeck = g.devDeck[:len(g.devDeck)-1]
	p.DevNew = append(p.DevNew, card)
	g.touch()

	out := []Outbound{
		only(seat, &message.DevCardUpd{Game: g.Name, Seat: seat, Action: "bought", Card: card}),
		others(seat, &message.DevCardUpd{Game: g.Name, Seat: seat, Action: "bought", Card: "?"}),
	}
	out = append(out, g.handUpdates(seat)...)
	if won := g.checkWin(seat); won != nil {
		out = append(out, won...)
	}
	return out, nil
}

// PlayDevCard plays a card from the old pile. Victory cards are the
// exception twice over: they may be revealed at any time, by any seat, and
// do not count against the one-card-per-turn limit.
func (g *Game) PlayDevCard(connID, card, arg1, arg2 string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if card == DevVP {
		return g.revealVictoryCard(seat)
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StateRollOrCard && g.state != StatePlay {
		return nil, ruleErr(CodeBadState, "cannot play a card in state %s", g.state)
	}
	p := g.players[seat]
	if p.PlayedDev {
		return nil, ruleErr(CodeBadRequest, "already played a card this turn")
	}
	if !p.holdsOld(card) {
		return nil, ruleErr(CodeBadRequest, "no playable %s card", card)
	}

	var out []Outbound
	switch card {
	case DevKnight:
		p.Knights++
		if !g.rolled {
			g.afterRobber = StateRollOrCard
		}
		out = append(out, g.recheckLargestArmy()...)
		out = append(out, g.setState(StatePlacingRobber)...)
	case DevRoads:
		if p.Roads >= SupplyRoads {
			return nil, ruleErr(CodeNoSupply, "no roads left in your supply")
		}
		g.freeRoads = 2
		if p.Roads == SupplyRoads-1 {
			g.freeRoads = 1
		}
		if !g.rolled {
			g.afterRobber = StateRollOrCard
		}
		out = append(out, g.setState(StateFreeRoad1)...)
	case DevPlenty:
		r1, err := resourceIndex(arg1)
		if err != nil {
			return nil, err
		}
		r2, err := resourceIndex(arg2)
		if err != nil {
			return nil, err
		}
		var want ResourceSet
		want[r1]++
		want[r2]++
		for res, n := range want {
			if n > g.bank[res] {
				return nil, ruleErr(CodeNoSupply, "the bank is out of %s", ResourceName(res))
			}
		}
		for res, n := range want {
			g.bank[res] -= n
		}
		p.gain(want)
		out = append(out, g.handUpdates(seat)...)
	case DevMonopoly:
		res, err := resourceIndex(arg1)
		if err != nil {
			return nil, err
		}
		taken := 0
		for i, other := range g.players {
			if other == nil || i == seat {
				continue
			}
			taken += other.Resources[res]
			other.Resources[res] = 0
		}
		p.Resources[res] += taken
		for i, other := range g.players {
			if other == nil {
				continue
			}
			out = append(out, g.handUpdates(i)...)
		}
	default:
		return nil, ruleErr(CodeBadRequest, "unknown card %q", card)
	}

	p.removeOld(card)
	p.DevPlayed = append(p.DevPlayed, card)
	p.PlayedDev = true
	g.touch()

	out = append([]Outbound{bcast(&message.DevCardUpd{Game: g.Name, Seat: seat, Action: "played", Card: card})}, out...)
	if won := g.checkWin(seat); won != nil {
		out = append(out, won...)
	}
	return out, nil
}

// revealVictoryCard turns a hidden victory point face up. Legal whenever
// the holder wants, including off-turn; the point already counted toward
// their hidden total, so revealing changes nothing but visibility.
func (g *Game) revealVictoryCard(seat int) ([]Outbound, error) {
	p := g.players[seat]
	if p == nil {
		return nil, ruleErr(CodeNotSeated, "no player at seat %d", seat)
	}
	held := false
	for _, c := range p.DevOld {
		if c == DevVP {
			held = true
		}
	}
	fromNew := false
	if !held {
		for _, c := range p.DevNew {
			if c == DevVP {
				held, fromNew = true, true
			}
		}
	}
	if !held {
		return nil, ruleErr(CodeBadRequest, "no victory card to reveal")
	}
	if fromNew {
		for i, c := range p.DevNew {
			if c == DevVP {
				p.DevNew = append(p.DevNew[:i], p.DevNew[i+1:]...)
				break
			}
		}
	} else {
		p.removeOld(DevVP)
	}
	p.DevPlayed = append(p.DevPlayed, DevVP)
	g.touch()

	out := []Outbound{bcast(&message.DevCardUpd{Game: g.Name, Seat: seat, Action: "played", Card: DevVP})}
	if won := g.checkWin(seat); won != nil {
		out = append(out, won...)
	}
	return out, nil
}

// resourceIndex parses a resource argument, accepting either the wire
// index or the resource name.
func resourceIndex(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < message.NumResources {
			return n, nil
		}
		return 0, ruleErr(CodeBadRequest, "no resource %d", n)
	}
	for i := 0; i < message.NumResources; i++ {
		if ResourceName(i) == s {
			return i, nil
		}
	}
	return 0, ruleErr(CodeBadRequest, "no resource %q", s)
}
