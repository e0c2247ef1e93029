package game

import (
	"sort"

	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// Roll rolls the dice for the current player.
func (g *Game) Roll(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StateRollOrCard {
		return nil, ruleErr(CodeBadState, "cannot roll in state %s", g.state)
	}
	g.touch()
	return g.roll(seat), nil
}

func (g *Game) roll(seat int) []Outbound {
	d1, d2 := g.rollDie(), g.rollDie()
	total := d1 + d2
	g.rolled = true
	g.rolls = append(g.rolls, total)
	g.rollCounts[total]++

	out := []Outbound{bcast(&message.DiceResult{Game: g.Name, D1: d1, D2: d2})}
	if total == 7 {
		return append(out, g.startSeven()...)
	}
	out = append(out, g.produce(total)...)
	out = append(out, g.setState(StatePlay)...)
	return out
}

// startSeven begins the seven sequence: oversized hands discard half before
// the roller moves the robber.
func (g *Game) startSeven() []Outbound {
	g.mustDiscard = make(map[int]int)
	var out []Outbound
	for i, p := range g.players {
		if p == nil {
			continue
		}
		if n := p.Resources.Total(); n > DiscardThreshold {
			g.mustDiscard[i] = n / 2
			out = append(out, bcast(&message.DiscardReq{Game: g.Name, Seat: i, Count: n / 2}))
		}
	}
	if len(g.mustDiscard) == 0 {
		out = append(out, g.setState(StatePlacingRobber)...)
		return out
	}
	g.discardSince = g.lastAction
	out = append(out, g.setState(StateWaitingDiscards)...)
	return out
}

// produce pays out production for a roll. Payouts are computed in one pass
// and then checked against the bank per resource: a resource the bank
// cannot fully cover pays nobody.
func (g *Game) produce(number int) []Outbound {
	gains := make(map[int]*ResourceSet)
	var demand ResourceSet
	for id, h := range g.board.Hexes {
		if h.Number != number || h.Resource == Desert {
			continue
		}
		if id == g.board.Robber {
			continue
		}
		for _, n := range g.board.hexNodes(id) {
			pp, ok := g.board.nodePiece[n]
			if !ok {
				continue
			}
			amount := 1
			if pp.Kind == PieceCity {
				amount = 2
			}
			if gains[pp.Seat] == nil {
				gains[pp.Seat] = &ResourceSet{}
			}
			gains[pp.Seat][h.Resource] += amount
			demand[h.Resource] += amount
		}
	}

	for res := 0; res < message.NumResources; res++ {
		if demand[res] > g.bank[res] {
			for _, set := range gains {
				set[res] = 0
			}
			demand[res] = 0
		}
	}

	seats := make([]int, 0, len(gains))
	for s := range gains {
		seats = append(seats, s)
	}
	sort.Ints(seats)

	var out []Outbound
	for _, s := range seats {
		if gains[s].Total() == 0 {
			continue
		}
		g.players[s].gain(*gains[s])
		out = append(out, g.handUpdates(s)...)
	}
	for res := 0; res < message.NumResources; res++ {
		g.bank[res] -= demand[res]
	}
	return out
}

// DiscardHalf resolves one player's discard obligation after a seven.
func (g *Game) DiscardHalf(connID string, give ResourceSet) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	out, err := g.discard(seat, give)
	if err != nil {
		return nil, err
	}
	g.touch()
	return out, nil
}

func (g *Game) discard(seat int, give ResourceSet) ([]Outbound, error) {
	if g.state != StateWaitingDiscards {
		return nil, ruleErr(CodeBadState, "no discard pending")
	}
	owed, ok := g.mustDiscard[seat]
	if !ok {
		return nil, ruleErr(CodeBadRequest, "you owe no discard")
	}
	for _, n := range give {
		if n < 0 {
			return nil, ruleErr(CodeBadRequest, "negative discard amount")
		}
	}
	if give.Total() != owed {
		return nil, ruleErr(CodeBadRequest, "must discard exactly %d resources", owed)
	}
	p := g.players[seat]
	if !p.canPay(give) {
		return nil, ruleErr(CodeCantAfford, "you do not hold those resources")
	}
	p.pay(give)
	for res, n := range give {
		g.bank[res] += n
	}
	delete(g.mustDiscard, seat)

	out := g.handUpdates(seat)
	if len(g.mustDiscard) == 0 {
		out = append(out, g.setState(StatePlacingRobber)...)
	}
	return out, nil
}

// MoveRobber moves the robber after a seven or a knight.
func (g *Game) MoveRobber(connID, hex string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StatePlacingRobber {
		return nil, ruleErr(CodeBadState, "the robber is not moving")
	}
	out, err := g.moveRobber(seat, hex)
	if err != nil {
		return nil, err
	}
	g.touch()
	return out, nil
}

func (g *Game) moveRobber(seat int, hex string) ([]Outbound, error) {
	target, ok := g.board.Hexes[hex]
	if !ok {
		return nil, ruleErr(CodeBadLoc, "no hex at %s", hex)
	}
	if hex == g.board.Robber {
		return nil, ruleErr(CodeBadLoc, "the robber is already there")
	}
	if g.Opts.NoRobberOnDesert && target.Resource == Desert {
		return nil, ruleErr(CodeBadLoc, "the robber may not enter the desert")
	}
	g.board.Robber = hex

	out := []Outbound{bcast(&message.RobberMoved{Game: g.Name, Hex: hex, Seat: seat})}

	// Victims: players with a building on the hex who hold resources.
	seen := make(map[int]bool)
	g.victims = g.victims[:0]
	for _, n := range g.board.hexNodes(hex) {
		pp, ok := g.board.nodePiece[n]
		if !ok || pp.Seat == seat || seen[pp.Seat] {
			continue
		}
		seen[pp.Seat] = true
		if p := g.players[pp.Seat]; p != nil && p.Resources.Total() > 0 {
			g.victims = append(g.victims, pp.Seat)
		}
	}
	sort.Ints(g.victims)

	switch len(g.victims) {
	case 0:
		out = append(out, g.afterRobbery()...)
	case 1:
		out = append(out, g.steal(seat, g.victims[0])...)
		out = append(out, g.afterRobbery()...)
	default:
		out = append(out, g.setState(StateWaitingRobbery)...)
	}
	return out, nil
}

// ChooseVictim picks who to rob when the robber hex has several candidates.
func (g *Game) ChooseVictim(connID string, victim int) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	if g.state != StateWaitingRobbery {
		return nil, ruleErr(CodeBadState, "no robbery choice pending")
	}
	ok := false
	for _, v := range g.victims {
		if v == victim {
			ok = true
		}
	}
	if !ok {
		return nil, ruleErr(CodeBadRequest, "seat %d cannot be robbed", victim)
	}
	g.touch()
	out := g.steal(seat, victim)
	out = append(out, g.afterRobbery()...)
	return out, nil
}

// steal takes one random resource from victim. The stolen resource is
// visible only to the two parties.
func (g *Game) steal(thief, victim int) []Outbound {
	vp := g.players[victim]
	total := vp.Resources.Total()
	if total == 0 {
		return nil
	}
	pick := g.rng.Intn(total)
	res := 0
	for i, n := range vp.Resources {
		if pick < n {
			res = i
			break
		}
		pick -= n
	}
	vp.Resources[res]--
	g.players[thief].Resources[res]++

	out := []Outbound{
		only(thief, &message.StolenFrom{Game: g.Name, From: victim, To: thief, Res: res}),
		only(victim, &message.StolenFrom{Game: g.Name, From: victim, To: thief, Res: res}),
	}
	for i, s := range g.seats {
		if i == thief || i == victim {
			continue
		}
		if s.State == SeatHuman || s.State == SeatRobot {
			out = append(out, only(i, &message.StolenFrom{Game: g.Name, From: victim, To: thief, Res: -1}))
		}
	}
	out = append(out, g.handUpdates(thief)...)
	out = append(out, g.handUpdates(victim)...)
	return out
}

// afterRobbery returns play to wherever the robbery interrupted it.
func (g *Game) afterRobbery() []Outbound {
	g.victims = g.victims[:0]
	next := StatePlay
	if g.afterRobber != "" {
		next = g.afterRobber
		g.afterRobber = ""
	} else if !g.rolled {
		next = StateRollOrCard
	}
	return g.setState(next)
}
