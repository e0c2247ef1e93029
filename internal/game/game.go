package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// Game states. NEW and OVER bracket the four setup states and the play
// states; transitions happen only inside validated actions.
type State string

const (
	StateNew              State = "NEW"
	StateStart1Settlement State = "START1_SETTLEMENT"
	StateStart1Road       State = "START1_ROAD"
	StateStart2Settlement State = "START2_SETTLEMENT"
	StateStart2Road       State = "START2_ROAD"
	StateRollOrCard       State = "ROLL_OR_CARD"
	StatePlay             State = "PLAY"
	StatePlacingRobber    State = "PLACING_ROBBER"
	StateWaitingDiscards  State = "WAITING_FOR_DISCARDS"
	StateWaitingRobbery   State = "WAITING_FOR_ROBBERY_CHOICE"
	StateFreeRoad1        State = "PLACING_FREE_ROAD_1"
	StateFreeRoad2        State = "PLACING_FREE_ROAD_2"
	StateSpecialBuilding  State = "SPECIAL_BUILDING"
	StateOver             State = "OVER"
)

// Players holding more than DiscardThreshold resources discard half on a
// seven.
const DiscardThreshold = 7

// NoSeat marks "no seat" wherever a seat index is optional.
const NoSeat = -1

// Options are the configured rule variants of one game.
type Options struct {
	Seats            int
	Target           int
	NoRobberOnDesert bool
	SpecialBuilding  bool
}

func (o Options) normalized() Options {
	if o.Seats != 6 {
		o.Seats = 4
	}
	if o.Target <= 0 {
		o.Target = 10
	}
	// Special building exists only on the six-seat board.
	if o.Seats != 6 {
		o.SpecialBuilding = false
	}
	return o
}

// Broadcast as an Outbound.To sends to every member of the game.
const Broadcast = -1

// Outbound pairs a notification with its audience.
type Outbound struct {
	To     int // seat index, or Broadcast
	Except int // when To == Broadcast, seat to skip (NoSeat for none)
	Msg    message.Message
}

func bcast(m message.Message) Outbound { return Outbound{To: Broadcast, Except: NoSeat, Msg: m} }
func only(seat int, m message.Message) Outbound {
	return Outbound{To: seat, Except: NoSeat, Msg: m}
}
func others(seat int, m message.Message) Outbound {
	return Outbound{To: Broadcast, Except: seat, Msg: m}
}

// tradeOffer is one outstanding peer offer. A proposer has at most one.
type tradeOffer struct {
	From int
	Give ResourceSet
	Get  ResourceSet
	To   map[int]bool // eligible responders still able to answer
}

type resetVote struct {
	Requester int
	Votes     map[int]bool // human seats other than the requester
}

// Game is one play session: board, seats, rule state machine. All exported
// methods take the game's lock; games never share state, so actions on
// different games run fully in parallel.
type Game struct {
	mu sync.Mutex

	Name string
	Opts Options

	rng     *rand.Rand
	rollDie func() int // one die; split out so tests can rig rolls

	board   *Board
	seats   []*Seat
	players []*Player

	state State
	cur   int
	first int
	turn  int
	round int

	rolls      []int
	rollCounts [13]int

	bank    ResourceSet
	devDeck []string

	rolled      bool
	afterRobber State // state to restore once a robbery resolves

	mustDiscard  map[int]int
	discardSince time.Time
	victims      []int

	freeRoads int

	offers map[int]*tradeOffer

	placeOrder []int // setup placement order, round one
	placeIdx   int

	sbQueue  []int
	sbResume int

	reset *resetVote

	winner     int
	created    time.Time
	lastAction time.Time
}

// New creates a game with a freshly generated board. The rng drives board
// layout, the dev deck shuffle and every dice roll.
func New(name string, opts Options, rng *rand.Rand) *Game {
	opts = opts.normalized()
	g := &Game{
		Name:    name,
		Opts:    opts,
		rng:     rng,
		state:   StateNew,
		cur:     NoSeat,
		first:   NoSeat,
		winner:  NoSeat,
		offers:  make(map[int]*tradeOffer),
		created: time.Now(),
	}
	g.rollDie = func() int { return g.rng.Intn(6) + 1 }
	g.lastAction = g.created
	g.seats = make([]*Seat, opts.Seats)
	g.players = make([]*Player, opts.Seats)
	for i := range g.seats {
		g.seats[i] = &Seat{State: SeatEmpty}
	}
	g.dealBoard()
	return g
}

// dealBoard (re)generates the board, bank and development deck. Used at
// creation and by an approved board reset.
func (g *Game) dealBoard() {
	g.board = NewBoard(g.Opts.Seats, g.Opts.NoRobberOnDesert, g.rng)

	per := 19
	if g.Opts.Seats == 6 {
		per = 24
	}
	for i := range g.bank {
		g.bank[i] = per
	}

	counts := map[string]int{DevKnight: 14, DevRoads: 2, DevPlenty: 2, DevMonopoly: 2, DevVP: 5}
	if g.Opts.Seats == 6 {
		counts = map[string]int{DevKnight: 20, DevRoads: 3, DevPlenty: 3, DevMonopoly: 3, DevVP: 5}
	}
	g.devDeck = g.devDeck[:0]
	for _, kind := range []string{DevKnight, DevRoads, DevPlenty, DevMonopoly, DevVP} {
		for i := 0; i < counts[kind]; i++ {
			g.devDeck = append(g.devDeck, kind)
		}
	}
	g.rng.Shuffle(len(g.devDeck), func(i, j int) { g.devDeck[i], g.devDeck[j] = g.devDeck[j], g.devDeck[i] })
}

func (g *Game) touch() { g.lastAction = time.Now() }

// --- read-only accessors used by the session layer ---

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) CurrentSeat() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cur
}

// SeatOf returns the seat occupied by the connection, or NoSeat.
func (g *Game) SeatOf(connID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seatOf(connID)
}

func (g *Game) seatOf(connID string) int {
	if connID == "" {
		return NoSeat
	}
	for i, s := range g.seats {
		if s.Conn == connID {
			return i
		}
	}
	return NoSeat
}

// SeatConn returns the connection ID occupying a seat, "" if vacant.
func (g *Game) SeatConn(seat int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= len(g.seats) {
		return ""
	}
	return g.seats[seat].Conn
}

// Occupied reports how many seats hold a player (human or robot).
func (g *Game) Occupied() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.seats {
		if s.State == SeatHuman || s.State == SeatRobot {
			n++
		}
	}
	return n
}

func (g *Game) IsOver() bool { return g.State() == StateOver }

// IdleFor reports time since the last committed action.
func (g *Game) IdleFor(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.Sub(g.lastAction)
}

// JoinSnapshot builds the catch-up messages sent to a member who just
// joined: seats, board, current state.
func (g *Game) JoinSnapshot() []message.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []message.Message
	for i, s := range g.seats {
		out = append(out, &message.SeatUpdate{Game: g.Name, Seat: i, State: s.State, Nick: s.Nick})
	}
	hexes, ports := g.board.layoutStrings()
	out = append(out, &message.BoardLayout{Game: g.Name, Hexes: hexes, Ports: ports, Robber: g.board.Robber})
	out = append(out, &message.GameState{Game: g.Name, State: string(g.state), CurSeat: g.cur})
	return out
}

// --- seating ---

// Sit places a connection into a seat. Locked seats accept only their
// previous nickname (human reconnect) or, for robots, a replacement while
// the game is running.
func (g *Game) Sit(seat int, nick, connID string, robot bool) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= len(g.seats) {
		return nil, ruleErr(CodeBadRequest, "seat %d does not exist", seat)
	}
	if g.state == StateOver {
		return nil, ruleErr(CodeBadState, "game is over")
	}
	if prev := g.seatOf(connID); prev != NoSeat {
		return nil, ruleErr(CodeBadRequest, "already seated at %d", prev)
	}

	s := g.seats[seat]
	switch s.State {
	case SeatEmpty:
		if g.state != StateNew {
			return nil, ruleErr(CodeBadState, "game already started")
		}
	case SeatLocked:
		// Robots may only take over a seat that was played and then
		// abandoned; seats locked at start stay closed.
		sameNick := strings.EqualFold(s.Nick, nick)
		if !sameNick && !(robot && g.players[seat] != nil) {
			return nil, ruleErr(CodeBadRequest, "seat %d is locked", seat)
		}
	default:
		return nil, ruleErr(CodeBadRequest, "seat %d is taken", seat)
	}

	reclaim := s.State == SeatLocked
	s.Conn = connID
	s.Nick = nick
	if robot {
		s.State = SeatRobot
	} else {
		s.State = SeatHuman
	}
	if g.players[seat] == nil {
		g.players[seat] = &Player{SeatIdx: seat}
	}
	g.touch()

	out := []Outbound{bcast(&message.SeatUpdate{Game: g.Name, Seat: seat, State: s.State, Nick: nick})}
	if reclaim {
		// A reclaimed seat needs the private hand back.
		out = append(out, g.handUpdates(seat)...)
	}
	return out, nil
}

// StandUp vacates a seat before the game starts.
func (g *Game) StandUp(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if g.state != StateNew {
		return nil, ruleErr(CodeBadState, "cannot stand up after the game starts")
	}
	s := g.seats[seat]
	s.State, s.Nick, s.Conn = SeatEmpty, "", ""
	g.players[seat] = nil
	g.touch()
	return []Outbound{bcast(&message.SeatUpdate{Game: g.Name, Seat: seat, State: SeatEmpty})}, nil
}

// Disconnect clears the occupant reference. Before start the seat empties;
// during play a human seat locks (reclaimable by the same nickname) and a
// robot seat is reported so the session can seek a replacement. The second
// return is the seat index needing robot replacement, or NoSeat.
func (g *Game) Disconnect(connID string) ([]Outbound, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, NoSeat
	}
	s := g.seats[seat]
	s.Conn = ""
	if g.state == StateNew {
		s.State, s.Nick = SeatEmpty, ""
		g.players[seat] = nil
		return []Outbound{bcast(&message.SeatUpdate{Game: g.Name, Seat: seat, State: SeatEmpty})}, NoSeat
	}
	needRobot := NoSeat
	if s.State == SeatRobot && g.state != StateOver {
		needRobot = seat
	}
	if s.State == SeatHuman {
		s.State = SeatLocked
	}
	g.touch()
	out := []Outbound{bcast(&message.SeatUpdate{Game: g.Name, Seat: seat, State: s.State, Nick: s.Nick})}
	return out, needRobot
}

// occupiedSeats lists playable seats in index order. Locked seats keep
// their player in the rotation: the game continues around an absent human.
func (g *Game) occupiedSeats() []int {
	var out []int
	for i, s := range g.seats {
		if s.State == SeatHuman || s.State == SeatRobot || (s.State == SeatLocked && g.players[i] != nil) {
			out = append(out, i)
		}
	}
	return out
}

// nextSeat returns the next playable seat after from, wrapping.
func (g *Game) nextSeat(from int) int {
	n := len(g.seats)
	for i := 1; i <= n; i++ {
		cand := (from + i) % n
		s := g.seats[cand]
		if s.State == SeatHuman || s.State == SeatRobot || (s.State == SeatLocked && g.players[cand] != nil) {
			return cand
		}
	}
	return from
}

// --- starting and setup rounds ---

// Start begins the game: any seated member may start once at least two
// seats are taken. Remaining empty seats close for the duration.
func (g *Game) Start(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateNew {
		return nil, ruleErr(CodeBadState, "game already started")
	}
	if g.seatOf(connID) == NoSeat {
		return nil, ruleErr(CodeNotSeated, "only seated players may start the game")
	}
	occ := g.occupiedSeats()
	if len(occ) < 2 {
		return nil, ruleErr(CodeBadRequest, "need at least two seated players")
	}

	var out []Outbound
	for i, s := range g.seats {
		if s.State == SeatEmpty {
			s.State = SeatLocked
			out = append(out, bcast(&message.SeatUpdate{Game: g.Name, Seat: i, State: SeatLocked}))
		}
	}

	g.first = occ[g.rng.Intn(len(occ))]
	// Placement order starts at the first player and wraps through the
	// occupied seats in index order.
	g.placeOrder = g.placeOrder[:0]
	start := 0
	for i, s := range occ {
		if s == g.first {
			start = i
		}
	}
	for i := 0; i < len(occ); i++ {
		g.placeOrder = append(g.placeOrder, occ[(start+i)%len(occ)])
	}
	g.placeIdx = 0
	g.cur = g.placeOrder[0]
	g.round = 1
	g.touch()

	hexes, ports := g.board.layoutStrings()
	out = append(out,
		bcast(&message.BoardLayout{Game: g.Name, Hexes: hexes, Ports: ports, Robber: g.board.Robber}),
	)
	out = append(out, g.setState(StateStart1Settlement)...)
	return out, nil
}

// advanceSetup moves to the next placement slot after a setup road, or into
// normal play after the final one. Round two runs the order in reverse.
func (g *Game) advanceSetup() []Outbound {
	var out []Outbound
	if g.state == StateStart1Road {
		g.placeIdx++
		if g.placeIdx < len(g.placeOrder) {
			g.cur = g.placeOrder[g.placeIdx]
			out = append(out, g.setState(StateStart1Settlement)...)
			return out
		}
		// Round two, reverse order: the last placer goes again first.
		g.round = 2
		g.placeIdx = len(g.placeOrder) - 1
		g.cur = g.placeOrder[g.placeIdx]
		out = append(out, g.setState(StateStart2Settlement)...)
		return out
	}

	g.placeIdx--
	if g.placeIdx >= 0 {
		g.cur = g.placeOrder[g.placeIdx]
		out = append(out, g.setState(StateStart2Settlement)...)
		return out
	}
	g.turn = 0
	g.round = 1
	out = append(out, g.beginTurn(g.first)...)
	return out
}

// setState transitions the machine and announces it.
func (g *Game) setState(s State) []Outbound {
	g.state = s
	return []Outbound{bcast(&message.GameState{Game: g.Name, State: string(s), CurSeat: g.cur})}
}

// beginTurn hands the turn to seat. The win condition is re-checked here:
// a player who reached the target off-turn wins the moment their own turn
// arrives.
func (g *Game) beginTurn(seat int) []Outbound {
	g.cur = seat
	g.turn++
	if seat == g.first && g.turn > 1 {
		g.round++
	}
	g.rolled = false
	for _, p := range g.players {
		if p != nil {
			p.PlayedDev = false
			p.AskedSpecial = false
			// Cards bought last turn mature and become playable.
			p.DevOld = append(p.DevOld, p.DevNew...)
			p.DevNew = nil
		}
	}
	g.clearOffers()

	var out []Outbound
	out = append(out, bcast(&message.TurnStart{Game: g.Name, Seat: seat, Turn: g.turn}))
	if won := g.checkWin(seat); won != nil {
		return append(out, won...)
	}
	out = append(out, g.setState(StateRollOrCard)...)
	return out
}

// EndTurn ends the current player's turn, or one special-building slot.
func (g *Game) EndTurn(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if seat != g.cur {
		return nil, ruleErr(CodeWrongTurn, "not your turn")
	}
	switch g.state {
	case StatePlay, StateRollOrCard, StateSpecialBuilding:
	default:
		return nil, ruleErr(CodeBadState, "cannot end turn in state %s", g.state)
	}
	if g.state != StateSpecialBuilding && !g.rolled {
		return nil, ruleErr(CodeBadState, "roll before ending your turn")
	}
	g.touch()
	return g.endTurn(), nil
}

// endTurn advances play, serving the special-building queue FIFO before
// normal order resumes.
func (g *Game) endTurn() []Outbound {
	if g.state == StateSpecialBuilding {
		return g.nextSpecialBuilder()
	}
	if won := g.checkWin(g.cur); won != nil {
		return won
	}
	g.sbResume = g.nextSeat(g.cur)
	if len(g.sbQueue) > 0 {
		return g.nextSpecialBuilder()
	}
	return g.beginTurn(g.sbResume)
}

func (g *Game) nextSpecialBuilder() []Outbound {
	if len(g.sbQueue) == 0 {
		return g.beginTurn(g.sbResume)
	}
	seat := g.sbQueue[0]
	g.sbQueue = g.sbQueue[1:]
	g.cur = seat
	return g.setState(StateSpecialBuilding)
}

// AskSpecialBuild queues an out-of-turn build slot on the six-seat board.
func (g *Game) AskSpecialBuild(connID string) ([]Outbound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(connID)
	if seat == NoSeat {
		return nil, ruleErr(CodeNotSeated, "not seated in this game")
	}
	if !g.Opts.SpecialBuilding {
		return nil, ruleErr(CodeBadRequest, "special building is not enabled")
	}
	switch g.state {
	case StateRollOrCard, StatePlay, StateWaitingDiscards, StatePlacingRobber, StateWaitingRobbery:
	default:
		return nil, ruleErr(CodeBadState, "cannot ask for special building now")
	}
	if seat == g.cur {
		return nil, ruleErr(CodeBadRequest, "it is already your turn")
	}
	p := g.players[seat]
	if p == nil {
		return nil, ruleErr(CodeNotSeated, "no player at seat %d", seat)
	}
	if p.AskedSpecial {
		return nil, ruleErr(CodeBadRequest, "already requested special building this turn")
	}
	p.AskedSpecial = true
	g.sbQueue = append(g.sbQueue, seat)
	g.touch()
	return []Outbound{only(seat, &message.GameState{Game: g.Name, State: string(g.state), CurSeat: g.cur})}, nil
}

// checkWin ends the game if seat holds the target on their own turn.
// Reaching the target during another player's turn never ends the game.
func (g *Game) checkWin(seat int) []Outbound {
	if g.state == StateOver || seat != g.cur {
		return nil
	}
	// A special-building slot is not the builder's turn; the win waits for
	// their next real turn.
	if g.state == StateSpecialBuilding {
		return nil
	}
	p := g.players[seat]
	if p == nil || p.TotalVP() < g.Opts.Target {
		return nil
	}
	return g.win(seat)
}

func (g *Game) win(seat int) []Outbound {
	g.winner = seat
	// Reveal the winner's hidden victory cards.
	p := g.players[seat]
	for _, c := range append(append([]string{}, p.DevNew...), p.DevOld...) {
		if c == DevVP {
			p.DevPlayed = append(p.DevPlayed, DevVP)
		}
	}
	p.DevNew, p.DevOld = nil, nil

	scores := make([]int, len(g.seats))
	for i, pl := range g.players {
		if pl != nil {
			scores[i] = pl.PublicVP()
		}
	}
	out := g.setState(StateOver)
	out = append(out, bcast(&message.GameOver{Game: g.Name, Winner: seat, Scores: scores}))
	return out
}

func (g *Game) clearOffers() {
	for k := range g.offers {
		delete(g.offers, k)
	}
}

// handUpdates emits a seat's hand: the full breakdown privately, totals to
// the rest of the table.
func (g *Game) handUpdates(seat int) []Outbound {
	p := g.players[seat]
	if p == nil {
		return nil
	}
	total := p.Resources.Total()
	return []Outbound{
		only(seat, &message.ResourceUpd{Game: g.Name, Seat: seat, Hand: p.Resources, Total: total}),
		others(seat, &message.ResourceUpd{Game: g.Name, Seat: seat, Total: total}),
	}
}
