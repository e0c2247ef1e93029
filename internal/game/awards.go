package game

import "github.com/wbreen/CatanFinal-sub001/internal/message"

// Award names as they appear on the wire.
const (
	AwardLongestRoad = "longest_road"
	AwardLargestArmy = "largest_army"
)

// recheckLongestRoad recomputes road lengths after a road or settlement is
// placed. The holder keeps the award on a tie; it moves only when someone
// strictly beats them, and nobody holds it below the minimum.
func (g *Game) recheckLongestRoad() []Outbound {
	holder, best, bestSeat := NoSeat, 0, NoSeat
	lengths := make([]int, len(g.players))
	for i, p := range g.players {
		if p == nil {
			continue
		}
		if p.HasLongestRoad {
			holder = i
		}
		lengths[i] = g.longestRoad(i)
		if lengths[i] > best {
			best, bestSeat = lengths[i], i
		}
	}

	newHolder := NoSeat
	switch {
	case best < MinLongestRoad:
		newHolder = NoSeat
	case holder == NoSeat:
		newHolder = bestSeat
	case lengths[holder] >= best:
		newHolder = holder
	default:
		newHolder = bestSeat
	}
	if newHolder == holder {
		return nil
	}
	if holder != NoSeat {
		g.players[holder].HasLongestRoad = false
	}
	size := 0
	if newHolder != NoSeat {
		g.players[newHolder].HasLongestRoad = true
		size = lengths[newHolder]
	}
	return []Outbound{bcast(&message.AwardUpdate{Game: g.Name, Award: AwardLongestRoad, Seat: newHolder, Size: size})}
}

// longestRoad is the longest simple path through the seat's roads,
// measured in edges. Opponent buildings break the path at their node.
func (g *Game) longestRoad(seat int) int {
	var own []EdgeID
	for e, p := range g.board.edgePiece {
		if p.Seat == seat {
			own = append(own, e)
		}
	}
	best := 0
	visited := make(map[EdgeID]bool)
	for _, e := range own {
		ends := g.board.edges[e]
		for _, start := range ends {
			if l := g.walkRoads(seat, start, visited); l > best {
				best = l
			}
		}
	}
	return best
}

func (g *Game) walkRoads(seat int, node NodeID, visited map[EdgeID]bool) int {
	if pp, ok := g.board.nodePiece[node]; ok && pp.Seat != seat {
		return 0
	}
	best := 0
	for _, e := range g.board.edgesAtNode(node) {
		if visited[e] {
			continue
		}
		pp, ok := g.board.edgePiece[e]
		if !ok || pp.Seat != seat {
			continue
		}
		visited[e] = true
		ends := g.board.edges[e]
		far := ends[0]
		if far == node {
			far = ends[1]
		}
		if l := 1 + g.walkRoads(seat, far, visited); l > best {
			best = l
		}
		visited[e] = false
	}
	return best
}

// recheckLargestArmy runs after a knight is played. Strictly more knights
// than the holder takes the award; ties never move it.
func (g *Game) recheckLargestArmy() []Outbound {
	holder, bestSeat, best := NoSeat, NoSeat, 0
	for i, p := range g.players {
		if p == nil {
			continue
		}
		if p.HasLargestArmy {
			holder = i
		}
		if p.Knights > best {
			best, bestSeat = p.Knights, i
		}
	}
	if best < MinLargestArmy {
		return nil
	}
	if holder != NoSeat && g.players[holder].Knights >= best {
		return nil
	}
	if holder == bestSeat {
		return nil
	}
	if holder != NoSeat {
		g.players[holder].HasLargestArmy = false
	}
	g.players[bestSeat].HasLargestArmy = true
	return []Outbound{bcast(&message.AwardUpdate{Game: g.Name, Award: AwardLargestArmy, Seat: bestSeat, Size: best})}
}
