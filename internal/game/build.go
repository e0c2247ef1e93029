package game

import (
	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// Piece costs, indexed clay/ore/sheep/wheat/wood.
var (
	costRoad       = ResourceSet{1, 0, 0, 0, 1}
	costSettlement = ResourceSet{1, 0, 1, 1, 1}
	costCity       = ResourceSet{0, 3, 0, 2, 0}
	costDevCard    = ResourceSet{0, 1, 1, 1, 0}
)

// BuildPiece validates and places a piece in one step. Which placements are
// legal depends entirely on the state: free setup pieces during the start
// rounds, road-building roads after the card, paid pieces during PLAY or a
// special-building slot.
func (g *Game) BuildPiece(connID, piece, loc string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}

	var (
		out []Outbound
		err error
	)
	switch g.state {
	case StateStart1Settlement, StateStart2Settlement:
		if piece != PieceSettlement {
			return nil, ruleErr(CodeBadRequest, "place a settlement first")
		}
		out, err = g.placeSetupSettlement(seat, loc)
	case StateStart1Road, StateStart2Road:
		if piece != PieceRoad {
			return nil, ruleErr(CodeBadRequest, "place a road next")
		}
		out, err = g.placeSetupRoad(seat, loc)
	case StateFreeRoad1, StateFreeRoad2:
		if piece != PieceRoad {
			return nil, ruleErr(CodeBadRequest, "road building grants roads only")
		}
		out, err = g.placeFreeRoad(seat, loc)
	case StatePlay, StateSpecialBuilding:
		out, err = g.buildPaid(seat, piece, loc)
	default:
		return nil, ruleErr(CodeBadState, "cannot build in state %s", g.state)
	}
	if err != nil {
		return nil, err
	}
	g.touch()
	return out, nil
}

func (g *Game) placeSetupSettlement(seat int, loc string) ([]Outbound, error) {
	node := NodeID(loc)
	if err := g.settlementSpotOK(node); err != nil {
		return nil, err
	}
	g.board.nodePiece[node] = &placedPiece{Seat: seat, Kind: PieceSettlement}
	p := g.players[seat]
	p.Settlements++
	p.setupNode = node

	out := []Outbound{bcast(&message.PieceBuilt{Game: g.Name, Seat: seat, Piece: PieceSettlement, Loc: loc})}

	if g.state == StateStart2Settlement {
		// The second settlement produces its adjacent hexes once.
		var grant ResourceSet
		for _, hid := range g.board.nodeHexes[node] {
			h := g.board.Hexes[hid]
			if h.Resource == Desert {
				continue
			}
			if g.bank[h.Resource] > 0 {
				grant[h.Resource]++
				g.bank[h.Resource]--
			}
		}
		if grant.Total() > 0 {
			p.gain(grant)
			out = append(out, g.handUpdates(seat)...)
		}
		out = append(out, g.setState(StateStart2Road)...)
		return out, nil
	}
	out = append(out, g.setState(StateStart1Road)...)
	return out, nil
}

func (g *Game) placeSetupRoad(seat int, loc string) ([]Outbound, error) {
	edge := EdgeID(loc)
	if !g.board.validEdge(edge) {
		return nil, ruleErr(CodeBadLoc, "no edge at %s", loc)
	}
	if _, taken := g.board.edgePiece[edge]; taken {
		return nil, ruleErr(CodeBadLoc, "edge %s is occupied", loc)
	}
	p := g.players[seat]
	if !g.board.nodeTouchesEdge(p.setupNode, edge) {
		return nil, ruleErr(CodeBadLoc, "setup road must touch your new settlement")
	}
	g.board.edgePiece[edge] = &placedPiece{Seat: seat, Kind: PieceRoad}
	p.Roads++

	out := []Outbound{bcast(&message.PieceBuilt{Game: g.Name, Seat: seat, Piece: PieceRoad, Loc: loc})}
	out = append(out, g.advanceSetup()...)
	return out, nil
}

func (g *Game) placeFreeRoad(seat int, loc string) ([]Outbound, error) {
	edge := EdgeID(loc)
	if err := g.roadSpotOK(seat, edge); err != nil {
		return nil, err
	}
	p := g.players[seat]
	if p.Roads >= SupplyRoads {
		return nil, ruleErr(CodeNoSupply, "no roads left in your supply")
	}
	g.board.edgePiece[edge] = &placedPiece{Seat: seat, Kind: PieceRoad}
	p.Roads++
	g.freeRoads--

	out := []Outbound{bcast(&message.PieceBuilt{Game: g.Name, Seat: seat, Piece: PieceRoad, Loc: loc})}
	out = append(out, g.recheckLongestRoad()...)
	if g.freeRoads > 0 && p.Roads < SupplyRoads {
		out = append(out, g.setState(StateFreeRoad2)...)
	} else {
		g.freeRoads = 0
		out = append(out, g.afterRobbery()...)
	}
	if won := g.checkWin(seat); won != nil {
		out = append(out, won...)
	}
	return out, nil
}

func (g *Game) buildPaid(seat int, piece, loc string) ([]Outbound, error) {
	p := g.players[seat]
	var cost ResourceSet

	switch piece {
	case PieceRoad:
		if p.Roads >= SupplyRoads {
			return nil, ruleErr(CodeNoSupply, "no roads left in your supply")
		}
		if err := g.roadSpotOK(seat, EdgeID(loc)); err != nil {
			return nil, err
		}
		cost = costRoad
	case PieceSettlement:
		if p.Settlements >= SupplySettlements {
			return nil, ruleErr(CodeNoSupply, "no settlements left in your supply")
		}
		node := NodeID(loc)
		if err := g.settlementSpotOK(node); err != nil {
			return nil, err
		}
		if !g.ownRoadAtNode(seat, node) {
			return nil, ruleErr(CodeBadLoc, "settlement must touch one of your roads")
		}
		cost = costSettlement
	case PieceCity:
		if p.Cities >= SupplyCities {
			return nil, ruleErr(CodeNoSupply, "no cities left in your supply")
		}
		node := NodeID(loc)
		pp, ok := g.board.nodePiece[node]
		if !ok || pp.Seat != seat || pp.Kind != PieceSettlement {
			return nil, ruleErr(CodeBadLoc, "a city replaces your own settlement")
		}
		cost = costCity
	default:
		return nil, ruleErr(CodeBadRequest, "unknown piece %q", piece)
	}

	if !p.canPay(cost) {
		return nil, ruleErr(CodeCantAfford, "cannot afford a %s", piece)
	}
	p.pay(cost)
	for res, n := range cost {
		g.bank[res] += n
	}

	switch piece {
	case PieceRoad:
		g.board.edgePiece[EdgeID(loc)] = &placedPiece{Seat: seat, Kind: PieceRoad}
		p.Roads++
	case PieceSettlement:
		g.board.nodePiece[NodeID(loc)] = &placedPiece{Seat: seat, Kind: PieceSettlement}
		p.Settlements++
	case PieceCity:
		g.board.nodePiece[NodeID(loc)] = &placedPiece{Seat: seat, Kind: PieceCity}
		p.Settlements--
		p.Cities++
	}

	out := []Outbound{bcast(&message.PieceBuilt{Game: g.Name, Seat: seat, Piece: piece, Loc: loc})}
	out = append(out, g.handUpdates(seat)...)
	if piece == PieceRoad || piece == PieceSettlement {
		out = append(out, g.recheckLongestRoad()...)
	}
	if won := g.checkWin(seat); won != nil {
		out = append(out, won...)
	}
	return out, nil
}

// settlementSpotOK enforces the distance rule: the node and all its
// neighbors must be vacant.
func (g *Game) settlementSpotOK(node NodeID) error {
	if !g.board.validNode(node) {
		return ruleErr(CodeBadLoc, "no node at %s", node)
	}
	if _, taken := g.board.nodePiece[node]; taken {
		return ruleErr(CodeBadLoc, "node %s is occupied", node)
	}
	for _, n := range g.board.adjacentNodes(node) {
		if !g.board.validNode(n) {
			continue
		}
		if _, taken := g.board.nodePiece[n]; taken {
			return ruleErr(CodeBadLoc, "node %s is too close to another building", node)
		}
	}
	return nil
}

// roadSpotOK requires the edge to continue the seat's network: an own
// building at an endpoint, or an own road through an endpoint not blocked
// by an opponent's building.
func (g *Game) roadSpotOK(seat int, edge EdgeID) error {
	if !g.board.validEdge(edge) {
		return ruleErr(CodeBadLoc, "no edge at %s", edge)
	}
	if _, taken := g.board.edgePiece[edge]; taken {
		return ruleErr(CodeBadLoc, "edge %s is occupied", edge)
	}
	ends := g.board.edges[edge]
	for _, end := range ends {
		if pp, ok := g.board.nodePiece[end]; ok {
			if pp.Seat == seat {
				return nil
			}
			// An opponent's building cuts the network at this endpoint.
			continue
		}
		for _, e := range g.board.edgesAtNode(end) {
			if e == edge {
				continue
			}
			if pp, ok := g.board.edgePiece[e]; ok && pp.Seat == seat {
				return nil
			}
		}
	}
	return ruleErr(CodeBadLoc, "road at %s does not connect to your network", edge)
}

func (g *Game) ownRoadAtNode(seat int, node NodeID) bool {
	for _, e := range g.board.edgesAtNode(node) {
		if pp, ok := g.board.edgePiece[e]; ok && pp.Seat == seat {
			return true
		}
	}
	return false
}
