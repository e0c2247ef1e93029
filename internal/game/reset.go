package game

import "github.com/wbreen/CatanFinal-sub001/internal/message"

// RequestReset opens a board-reset vote. Every other connected human must
// approve; robots have no say. A lone human resets immediately.
func (g *Game) RequestReset(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if g.seats[seat].State != SeatHuman {
		return nil, ruleErr(CodeBadRequest, "only humans may request a reset")
	}
	if g.state == StateNew || g.state == StateOver {
		return nil, ruleErr(CodeBadState, "nothing to reset in state %s", g.state)
	}
	if g.reset != nil {
		return nil, ruleErr(CodeBadRequest, "a reset vote is already running")
	}
	g.reset = &resetVote{Requester: seat, Votes: make(map[int]bool)}
	g.touch()

	out := []Outbound{bcast(&message.ResetNotice{Game: g.Name, Seat: seat, Status: "requested"})}
	if g.otherHumans(seat) == 0 {
		out = append(out, g.performReset()...)
	}
	return out, nil
}

// VoteReset records one human's vote. Any rejection cancels the vote; the
// reset happens only once every other human approves.
func (g *Game) VoteReset(connID string, approve bool) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if g.reset == nil {
		return nil, ruleErr(CodeBadRequest, "no reset vote is running")
	}
	if seat == g.reset.Requester {
		return nil, ruleErr(CodeBadRequest, "the requester does not vote")
	}
	if g.seats[seat].State != SeatHuman {
		return nil, ruleErr(CodeBadRequest, "only humans vote on a reset")
	}
	if _, dup := g.reset.Votes[seat]; dup {
		return nil, ruleErr(CodeBadRequest, "you already voted")
	}
	g.reset.Votes[seat] = approve
	g.touch()

	status := "yes"
	if !approve {
		status = "no"
	}
	out := []Outbound{bcast(&message.ResetNotice{Game: g.Name, Seat: seat, Status: status})}

	if !approve {
		g.reset = nil
		out = append(out, bcast(&message.ResetNotice{Game: g.Name, Seat: seat, Status: "cancelled"}))
		return out, nil
	}
	if len(g.reset.Votes) >= g.otherHumans(g.reset.Requester) {
		out = append(out, g.performReset()...)
	}
	return out, nil
}

// otherHumans counts connected humans besides the given seat.
func (g *Game) otherHumans(except int) int {
	n := 0
	for i, s := range g.seats {
		if i != except && s.State == SeatHuman {
			n++
		}
	}
	return n
}

// performReset restarts the game on a fresh board with the same seats. A
// mid-vote disconnect can make the approving majority arrive later, so this
// runs from whichever vote completes it.
func (g *Game) performReset() []Outbound {
	g.reset = nil
	for i := range g.players {
		if g.players[i] != nil {
			g.players[i] = &Player{SeatIdx: i}
		}
	}
	g.dealBoard()
	g.rolls = g.rolls[:0]
	g.rollCounts = [13]int{}
	g.turn = 0
	g.round = 1
	g.rolled = false
	g.afterRobber = ""
	g.mustDiscard = nil
	g.victims = g.victims[:0]
	g.freeRoads = 0
	g.clearOffers()
	g.sbQueue = g.sbQueue[:0]
	g.winner = NoSeat

	out := []Outbound{bcast(&message.ResetNotice{Game: g.Name, Seat: NoSeat, Status: "done"})}
	hexes, ports := g.board.layoutStrings()
	out = append(out, bcast(&message.BoardLayout{Game: g.Name, Hexes: hexes, Ports: ports, Robber: g.board.Robber}))
	for i, p := range g.players {
		if p != nil {
			out = append(out, g.handUpdates(i)...)
		}
	}
	g.placeIdx = 0
	g.cur = g.placeOrder[0]
	out = append(out, g.setState(StateStart1Settlement)...)
	return out
}
