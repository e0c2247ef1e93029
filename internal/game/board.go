package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Resource indices, matching the wire order used by message.ResourceSet.
const (
	Clay = iota
	Ore
	Sheep
	Wheat
	Wood
)

// Desert marks a hex that produces nothing.
const Desert = -1

var resourceNames = [...]string{"clay", "ore", "sheep", "wheat", "wood"}

// ResourceName returns a display name, "desert" for the desert marker.
func ResourceName(r int) string {
	if r == Desert {
		return "desert"
	}
	if r >= 0 && r < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// The board lives on an axial hex grid. Every vertex of the grid is the
// north or south corner of exactly one hex coordinate, so a node is fully
// named by (q, r, N|S); edges are named by their two endpoint nodes in
// sorted order. All adjacency is derived from that naming once at build
// time and never recomputed.

// HexCoord is an axial grid coordinate.
type HexCoord struct {
	Q, R int
}

// ID renders the coordinate as its wire form, e.g. "2,-1".
func (h HexCoord) ID() string { return strconv.Itoa(h.Q) + "," + strconv.Itoa(h.R) }

// NodeID names a settlement/city slot: "q,r,N" or "q,r,S".
type NodeID string

// EdgeID names a road slot: the two endpoint NodeIDs joined by "+" in
// lexical order.
type EdgeID string

func makeNode(q, r int, side byte) NodeID {
	return NodeID(strconv.Itoa(q) + "," + strconv.Itoa(r) + "," + string(side))
}

func makeEdge(a, b NodeID) EdgeID {
	if b < a {
		a, b = b, a
	}
	return EdgeID(string(a) + "+" + string(b))
}

// cornerNodes lists a hex's six corners, clockwise from the north corner.
func cornerNodes(h HexCoord) [6]NodeID {
	return [6]NodeID{
		makeNode(h.Q, h.R, 'N'),
		makeNode(h.Q+1, h.R-1, 'S'),
		makeNode(h.Q, h.R+1, 'N'),
		makeNode(h.Q, h.R, 'S'),
		makeNode(h.Q-1, h.R+1, 'N'),
		makeNode(h.Q, h.R-1, 'S'),
	}
}

// Hex is one board tile.
type Hex struct {
	Coord    HexCoord
	Resource int // resource index or Desert
	Number   int // production number, 0 on the desert
}

// PortGeneric is the Kind of a 3:1 port; resource indices mark 2:1 ports.
const PortGeneric = -1

// Port is a coastal trade port spanning one edge.
type Port struct {
	Kind  int
	Nodes [2]NodeID
}

// Piece kinds.
const (
	PieceRoad       = "road"
	PieceSettlement = "settlement"
	PieceCity       = "city"
)

// Board holds the generated topology plus piece occupancy and the robber.
// It is owned by exactly one Game and shares that game's lock.
type Board struct {
	Hexes  map[string]*Hex
	Ports  []Port
	Robber string // hex ID

	nodes     map[NodeID][]NodeID  // node -> adjacent nodes
	nodeHexes map[NodeID][]string  // node -> touching hex IDs
	edges     map[EdgeID][2]NodeID // edge -> endpoints
	portAt    map[NodeID]int       // node -> port kind

	nodePiece map[NodeID]*placedPiece // settlements and cities
	edgePiece map[EdgeID]*placedPiece // roads
}

type placedPiece struct {
	Seat int
	Kind string
}

// Row layouts per seat count: 19 land hexes for four seats, 30 for six.
var boardRows = map[int][]struct{ r, q0, n int }{
	4: {{-2, 0, 3}, {-1, -1, 4}, {0, -2, 5}, {1, -2, 4}, {2, -2, 3}},
	6: {{-3, 1, 3}, {-2, 0, 4}, {-1, -1, 5}, {0, -2, 6}, {1, -2, 5}, {2, -2, 4}, {3, -2, 3}},
}

func resourcePool(seats int) []int {
	if seats == 6 {
		return buildPool(map[int]int{Wood: 6, Sheep: 6, Wheat: 6, Clay: 5, Ore: 5, Desert: 2})
	}
	return buildPool(map[int]int{Wood: 4, Sheep: 4, Wheat: 4, Clay: 3, Ore: 3, Desert: 1})
}

func buildPool(counts map[int]int) []int {
	// Deterministic iteration so a fixed rng seed yields a fixed board.
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	var pool []int
	for _, k := range keys {
		for i := 0; i < counts[k]; i++ {
			pool = append(pool, k)
		}
	}
	return pool
}

func numberPool(seats int) []int {
	if seats == 6 {
		return []int{2, 2, 3, 3, 3, 4, 4, 4, 5, 5, 5, 6, 6, 6, 8, 8, 8, 9, 9, 9, 10, 10, 10, 11, 11, 11, 12, 12}
	}
	return []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}
}

func portPool(seats int) []int {
	if seats == 6 {
		return []int{PortGeneric, PortGeneric, PortGeneric, PortGeneric, PortGeneric, PortGeneric,
			Clay, Ore, Sheep, Wheat, Wood}
	}
	return []int{PortGeneric, PortGeneric, PortGeneric, PortGeneric, Clay, Ore, Sheep, Wheat, Wood}
}

// NewBoard generates a board for the given seat count from rng. The same
// seed always produces the same board.
func NewBoard(seats int, noRobberOnDesert bool, rng *rand.Rand) *Board {
	rows, ok := boardRows[seats]
	if !ok {
		rows = boardRows[4]
	}

	b := &Board{
		Hexes:     make(map[string]*Hex),
		nodes:     make(map[NodeID][]NodeID),
		nodeHexes: make(map[NodeID][]string),
		edges:     make(map[EdgeID][2]NodeID),
		portAt:    make(map[NodeID]int),
		nodePiece: make(map[NodeID]*placedPiece),
		edgePiece: make(map[EdgeID]*placedPiece),
	}

	var coords []HexCoord
	for _, row := range rows {
		for i := 0; i < row.n; i++ {
			coords = append(coords, HexCoord{Q: row.q0 + i, R: row.r})
		}
	}

	resources := resourcePool(seats)
	numbers := numberPool(seats)
	rng.Shuffle(len(resources), func(i, j int) { resources[i], resources[j] = resources[j], resources[i] })
	rng.Shuffle(len(numbers), func(i, j int) { numbers[i], numbers[j] = numbers[j], numbers[i] })

	numIdx := 0
	for i, c := range coords {
		h := &Hex{Coord: c, Resource: resources[i]}
		if h.Resource != Desert {
			h.Number = numbers[numIdx]
			numIdx++
		}
		b.Hexes[c.ID()] = h
	}

	// Derive nodes and edges from hex perimeters only, so every edge is
	// guaranteed to border at least one real hex.
	edgeHexCount := make(map[EdgeID]int)
	for _, h := range b.Hexes {
		corners := cornerNodes(h.Coord)
		for i, n := range corners {
			b.nodeHexes[n] = append(b.nodeHexes[n], h.Coord.ID())
			next := corners[(i+1)%6]
			e := makeEdge(n, next)
			if _, seen := b.edges[e]; !seen {
				b.edges[e] = [2]NodeID{n, next}
				b.nodes[n] = append(b.nodes[n], next)
				b.nodes[next] = append(b.nodes[next], n)
			}
			edgeHexCount[e]++
		}
	}

	b.placePorts(seats, edgeHexCount, rng)
	b.placeRobber(noRobberOnDesert, rng)
	return b
}

// placePorts spreads the port pool over evenly spaced coastal edges.
func (b *Board) placePorts(seats int, edgeHexCount map[EdgeID]int, rng *rand.Rand) {
	var coast []EdgeID
	for e, n := range edgeHexCount {
		if n == 1 {
			coast = append(coast, e)
		}
	}
	sort.Slice(coast, func(i, j int) bool { return coast[i] < coast[j] })

	kinds := portPool(seats)
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	if len(coast) == 0 {
		return
	}
	step := len(coast) / len(kinds)
	if step < 1 {
		step = 1
	}
	for i, kind := range kinds {
		e := coast[(i*step)%len(coast)]
		ends := b.edges[e]
		b.Ports = append(b.Ports, Port{Kind: kind, Nodes: ends})
		b.portAt[ends[0]] = kind
		b.portAt[ends[1]] = kind
	}
}

func (b *Board) placeRobber(noRobberOnDesert bool, rng *rand.Rand) {
	var deserts, land []string
	ids := make([]string, 0, len(b.Hexes))
	for id := range b.Hexes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if b.Hexes[id].Resource == Desert {
			deserts = append(deserts, id)
		} else {
			land = append(land, id)
		}
	}
	if noRobberOnDesert || len(deserts) == 0 {
		b.Robber = land[rng.Intn(len(land))]
		return
	}
	b.Robber = deserts[0]
}

// validNode reports whether the ID names a vertex of this board.
func (b *Board) validNode(n NodeID) bool {
	_, ok := b.nodeHexes[n]
	return ok
}

// validEdge reports whether the ID names an edge of this board.
func (b *Board) validEdge(e EdgeID) bool {
	_, ok := b.edges[e]
	return ok
}

// adjacentNodes returns the up-to-three neighboring vertices.
func (b *Board) adjacentNodes(n NodeID) []NodeID { return b.nodes[n] }

// hexNodes returns the six corner vertices of a hex.
func (b *Board) hexNodes(id string) []NodeID {
	h, ok := b.Hexes[id]
	if !ok {
		return nil
	}
	corners := cornerNodes(h.Coord)
	return corners[:]
}

// nodeTouchesEdge reports whether n is an endpoint of e.
func (b *Board) nodeTouchesEdge(n NodeID, e EdgeID) bool {
	ends, ok := b.edges[e]
	return ok && (ends[0] == n || ends[1] == n)
}

// edgesAtNode returns the edges incident to n.
func (b *Board) edgesAtNode(n NodeID) []EdgeID {
	var out []EdgeID
	for _, m := range b.nodes[n] {
		out = append(out, makeEdge(n, m))
	}
	return out
}

// portRatio returns the exchange ratio the seat gets for the resource:
// 2 with a matching resource port, 3 with a generic port, otherwise 4.
func (b *Board) portRatio(seat, resource int) int {
	ratio := 4
	for n, p := range b.nodePiece {
		if p.Seat != seat {
			continue
		}
		kind, ok := b.portAt[n]
		if !ok {
			continue
		}
		if kind == resource {
			return 2
		}
		if kind == PortGeneric && ratio > 3 {
			ratio = 3
		}
	}
	return ratio
}

// layoutStrings packs the board for the BoardLayout wire message. IDs
// contain commas, so entries are ";"-separated and fields ":"-separated.
func (b *Board) layoutStrings() (hexes, ports string) {
	ids := make([]string, 0, len(b.Hexes))
	for id := range b.Hexes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var hb strings.Builder
	for i, id := range ids {
		if i > 0 {
			hb.WriteByte(';')
		}
		h := b.Hexes[id]
		fmt.Fprintf(&hb, "%s:%s:%d", id, ResourceName(h.Resource), h.Number)
	}
	var pb strings.Builder
	for i, p := range b.Ports {
		if i > 0 {
			pb.WriteByte(';')
		}
		kind := "any"
		if p.Kind != PortGeneric {
			kind = ResourceName(p.Kind)
		}
		fmt.Fprintf(&pb, "%s:%s:%s", p.Nodes[0], p.Nodes[1], kind)
	}
	return hb.String(), pb.String()
}
