package message

// Messages sent server -> client.

// VersionAck confirms the handshake and reports the server's version and
// feature list.
type VersionAck struct {
	Number   int
	Features string
}

func (m *VersionAck) Type() string     { return TypeVersionAck }
func (m *VersionAck) fields() []string { return []string{itoa(m.Number), m.Features} }

// Reject reports a refused request. Code is machine-checkable, Reason is for
// direct display. Game is empty for connection-level rejections.
type Reject struct {
	Game   string
	Code   string
	Reason string
}

func (m *Reject) Type() string     { return TypeReject }
func (m *Reject) fields() []string { return []string{m.Game, m.Code, m.Reason} }

// Welcome confirms a claimed nickname.
type Welcome struct {
	Nick string
}

func (m *Welcome) Type() string     { return TypeWelcome }
func (m *Welcome) fields() []string { return []string{m.Nick} }

// GameMembers lists everyone currently in a game, sent to new joiners.
type GameMembers struct {
	Game    string
	Members []string
}

func (m *GameMembers) Type() string     { return TypeGameMembers }
func (m *GameMembers) fields() []string { return []string{m.Game, joinStrs(m.Members)} }

// SeatUpdate announces a seat's new state: "empty", "human", "robot" or
// "locked". Nick is empty unless occupied.
type SeatUpdate struct {
	Game  string
	Seat  int
	State string
	Nick  string
}

func (m *SeatUpdate) Type() string     { return TypeSeatUpdate }
func (m *SeatUpdate) fields() []string { return []string{m.Game, itoa(m.Seat), m.State, m.Nick} }

// BoardLayout carries the generated board as packed strings: Hexes is a
// ";"-separated list of "hexID:resource:number" entries, Ports one of
// "nodeID:nodeID:kind".
type BoardLayout struct {
	Game   string
	Hexes  string
	Ports  string
	Robber string
}

func (m *BoardLayout) Type() string     { return TypeBoardLayout }
func (m *BoardLayout) fields() []string { return []string{m.Game, m.Hexes, m.Ports, m.Robber} }

// GameState announces a state-machine transition.
type GameState struct {
	Game    string
	State   string
	CurSeat int
}

func (m *GameState) Type() string     { return TypeGameState }
func (m *GameState) fields() []string { return []string{m.Game, m.State, itoa(m.CurSeat)} }

// TurnStart announces whose turn begins.
type TurnStart struct {
	Game string
	Seat int
	Turn int
}

func (m *TurnStart) Type() string     { return TypeTurnStart }
func (m *TurnStart) fields() []string { return []string{m.Game, itoa(m.Seat), itoa(m.Turn)} }

type DiceResult struct {
	Game string
	D1   int
	D2   int
}

func (m *DiceResult) Type() string     { return TypeDiceResult }
func (m *DiceResult) fields() []string { return []string{m.Game, itoa(m.D1), itoa(m.D2)} }

// ResourceUpd reports a seat's hand. The full breakdown goes only to the
// seat's owner; everyone else receives a zero set plus the Total.
type ResourceUpd struct {
	Game  string
	Seat  int
	Hand  ResourceSet
	Total int
}

func (m *ResourceUpd) Type() string { return TypeResourceUpd }
func (m *ResourceUpd) fields() []string {
	return append(appendResSet([]string{m.Game, itoa(m.Seat)}, m.Hand), itoa(m.Total))
}

// DiscardReq tells a seat it must discard Count resources.
type DiscardReq struct {
	Game  string
	Seat  int
	Count int
}

func (m *DiscardReq) Type() string     { return TypeDiscardReq }
func (m *DiscardReq) fields() []string { return []string{m.Game, itoa(m.Seat), itoa(m.Count)} }

// RobberMoved reports the robber's new hex and who moved it.
type RobberMoved struct {
	Game string
	Hex  string
	Seat int
}

func (m *RobberMoved) Type() string     { return TypeRobberMoved }
func (m *RobberMoved) fields() []string { return []string{m.Game, m.Hex, itoa(m.Seat)} }

// StolenFrom reports a theft. Res is the stolen resource index for the two
// parties and -1 in the copy broadcast to bystanders.
type StolenFrom struct {
	Game string
	From int
	To   int
	Res  int
}

func (m *StolenFrom) Type() string { return TypeStolenFrom }
func (m *StolenFrom) fields() []string {
	return []string{m.Game, itoa(m.From), itoa(m.To), itoa(m.Res)}
}

type PieceBuilt struct {
	Game  string
	Seat  int
	Piece string
	Loc   string
}

func (m *PieceBuilt) Type() string     { return TypePieceBuilt }
func (m *PieceBuilt) fields() []string { return []string{m.Game, itoa(m.Seat), m.Piece, m.Loc} }

// DevCardUpd reports development-card activity. Action is "bought" or
// "played"; Card is hidden ("?") in copies sent to other players on buy.
type DevCardUpd struct {
	Game   string
	Seat   int
	Action string
	Card   string
}

func (m *DevCardUpd) Type() string     { return TypeDevCardUpd }
func (m *DevCardUpd) fields() []string { return []string{m.Game, itoa(m.Seat), m.Action, m.Card} }

// TradeNotice relays a peer trade offer to its eligible responders.
type TradeNotice struct {
	Game string
	From int
	Give ResourceSet
	Get  ResourceSet
	To   []int
}

func (m *TradeNotice) Type() string { return TypeTradeNotice }
func (m *TradeNotice) fields() []string {
	return append(appendResSet(appendResSet([]string{m.Game, itoa(m.From)}, m.Give), m.Get), joinInts(m.To))
}

// TradeDone reports a settled trade. To is -1 for bank and port trades.
type TradeDone struct {
	Game string
	From int
	To   int
	Give ResourceSet
	Get  ResourceSet
}

func (m *TradeDone) Type() string { return TypeTradeDone }
func (m *TradeDone) fields() []string {
	return appendResSet(appendResSet([]string{m.Game, itoa(m.From), itoa(m.To)}, m.Give), m.Get)
}

// AwardUpdate reports the longest-road or largest-army holder changing.
// Seat is -1 when the award becomes vacant.
type AwardUpdate struct {
	Game  string
	Award string
	Seat  int
	Size  int
}

func (m *AwardUpdate) Type() string { return TypeAwardUpdate }
func (m *AwardUpdate) fields() []string {
	return []string{m.Game, m.Award, itoa(m.Seat), itoa(m.Size)}
}

// ResetNotice reports board-reset vote progress. Status is one of
// "requested", "yes", "no", "cancelled", "done".
type ResetNotice struct {
	Game   string
	Seat   int
	Status string
}

func (m *ResetNotice) Type() string     { return TypeResetNotice }
func (m *ResetNotice) fields() []string { return []string{m.Game, itoa(m.Seat), m.Status} }

// GameOver announces the winner and final public scores, one per seat.
type GameOver struct {
	Game   string
	Winner int
	Scores []int
}

func (m *GameOver) Type() string     { return TypeGameOver }
func (m *GameOver) fields() []string { return []string{m.Game, itoa(m.Winner), joinInts(m.Scores)} }

type Pong struct {
	Tag string
}

func (m *Pong) Type() string     { return TypePong }
func (m *Pong) fields() []string { return []string{m.Tag} }
