package game

import (
	"sort"

	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// OfferTrade posts a peer trade offer. The current player may offer to any
// subset of the table; an addressee of a live offer may answer with a
// counter-offer of their own. A proposer's new offer replaces their old one.
func (g *Game) OfferTrade(connID string, give, get ResourceSet, to []int) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if g.state != StatePlay && g.state != StateRollOrCard {
		return nil, ruleErr(CodeBadState, "cannot trade in state %s", g.state)
	}
	if seat != g.cur && !g.isCounterEligible(seat) {
		return nil, ruleErr(CodeWrongTurn, "only the current player or an addressee may offer")
	}
	if err := validTradeSides(give, get); err != nil {
		return nil, err
	}
	p := g.players[seat]
	if !p.canPay(give) {
		return nil, ruleErr(CodeCantAfford, "you do not hold the offered resources")
	}

	eligible := make(map[int]bool)
	var list []int
	for _, t := range to {
		if t < 0 || t >= len(g.seats) || t == seat || eligible[t] {
			continue
		}
		s := g.seats[t]
		if s.State != SeatHuman && s.State != SeatRobot {
			continue
		}
		eligible[t] = true
		list = append(list, t)
	}
	if len(list) == 0 {
		return nil, ruleErr(CodeBadTrade, "no eligible trade partners")
	}
	sort.Ints(list)

	g.offers[seat] = &tradeOffer{From: seat, Give: give, Get: get, To: eligible}
	g.touch()
	return []Outbound{bcast(&message.TradeNotice{Game: g.Name, From: seat, Give: give, Get: get, To: list})}, nil
}

// isCounterEligible reports whether the seat is addressed by any live offer.
func (g *Game) isCounterEligible(seat int) bool {
	for _, o := range g.offers {
		if o.To[seat] {
			return true
		}
	}
	return false
}

// RespondTrade accepts or rejects an offer addressed to the responder.
// Acceptance executes immediately and clears every outstanding offer.
func (g *Game) RespondTrade(connID string, from int, accept bool) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	offer, ok := g.offers[from]
	if !ok {
		return nil, ruleErr(CodeBadTrade, "no offer from seat %d", from)
	}
	if !offer.To[seat] {
		return nil, ruleErr(CodeBadTrade, "that offer is not addressed to you")
	}
	g.touch()

	if !accept {
		delete(offer.To, seat)
		var left []int
		for t := range offer.To {
			left = append(left, t)
		}
		sort.Ints(left)
		if len(left) == 0 {
			delete(g.offers, from)
		}
		// Re-announce with the shrunken addressee set; empty means the
		// offer is dead.
		return []Outbound{bcast(&message.TradeNotice{Game: g.Name, From: from, Give: offer.Give, Get: offer.Get, To: left})}, nil
	}

	proposer := g.players[from]
	if !proposer.canPay(offer.Give) {
		// The proposer spent the goods since offering; the offer is void.
		delete(g.offers, from)
		return nil, ruleErr(CodeBadTrade, "the proposer no longer holds the offered resources")
	}
	responder := g.players[seat]
	if !responder.canPay(offer.Get) {
		return nil, ruleErr(CodeCantAfford, "you do not hold the requested resources")
	}

	proposer.pay(offer.Give)
	responder.gain(offer.Give)
	responder.pay(offer.Get)
	proposer.gain(offer.Get)
	g.clearOffers()

	out := []Outbound{bcast(&message.TradeDone{Game: g.Name, From: from, To: seat, Give: offer.Give, Get: offer.Get})}
	out = append(out, g.handUpdates(from)...)
	out = append(out, g.handUpdates(seat)...)
	return out, nil
}

// BankTrade exchanges with the bank at the seat's best port ratio: 4:1 by
// default, 3:1 with a generic port, 2:1 with the matching resource port.
func (g *Game) BankTrade(connID string, give, get ResourceSet) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StatePlay {
		return nil, ruleErr(CodeBadState, "cannot trade in state %s", g.state)
	}

	giveRes, giveN := singleResource(give)
	getRes, getN := singleResource(get)
	if giveRes == NoSeat || getRes == NoSeat {
		return nil, ruleErr(CodeBadTrade, "bank trades exchange one resource for another")
	}
	if giveRes == getRes {
		return nil, ruleErr(CodeBadTrade, "cannot trade a resource for itself")
	}
	if getN < 1 {
		return nil, ruleErr(CodeBadTrade, "must receive at least one resource")
	}
	ratio := g.board.portRatio(seat, giveRes)
	if giveN != ratio*getN {
		return nil, ruleErr(CodeBadTrade, "your rate for %s is %d:1", ResourceName(giveRes), ratio)
	}
	p := g.players[seat]
	if !p.canPay(give) {
		return nil, ruleErr(CodeCantAfford, "you do not hold %d %s", giveN, ResourceName(giveRes))
	}
	if g.bank[getRes] < getN {
		return nil, ruleErr(CodeNoSupply, "the bank is out of %s", ResourceName(getRes))
	}

	p.pay(give)
	g.bank[giveRes] += giveN
	g.bank[getRes] -= getN
	p.gain(get)
	g.touch()

	out := []Outbound{bcast(&message.TradeDone{Game: g.Name, From: seat, To: NoSeat, Give: give, Get: get})}
	out = append(out, g.handUpdates(seat)...)
	return out, nil
}

// validTradeSides rejects malformed offers: negative counts, empty sides,
// or a resource appearing on both sides.
func validTradeSides(give, get ResourceSet) error {
	for res := range give {
		if give[res] < 0 || get[res] < 0 {
			return ruleErr(CodeBadTrade, "negative trade amount")
		}
		if give[res] > 0 && get[res] > 0 {
			return ruleErr(CodeBadTrade, "%s appears on both sides", ResourceName(res))
		}
	}
	if give.Total() == 0 || get.Total() == 0 {
		return ruleErr(CodeBadTrade, "both sides of a trade must be non-empty")
	}
	return nil
}

// singleResource reports the lone resource in a set, or (NoSeat, 0) if the
// set is empty or mixed.
func singleResource(set ResourceSet) (res, n int) {
	res, n = NoSeat, 0
	for i, c := range set {
		if c < 0 {
			return NoSeat, 0
		}
		if c > 0 {
			if res != NoSeat {
				return NoSeat, 0
			}
			res, n = i, c
		}
	}
	return res, n
}
