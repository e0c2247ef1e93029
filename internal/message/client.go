package message

// Messages sent client -> server. Every request that targets a game carries
// the game name so the session layer can route it without per-connection
// protocol state.

// Version opens the handshake. It must be the first message on a connection.
type Version struct {
	Number   int
	Features string
}

func (m *Version) Type() string     { return TypeVersion }
func (m *Version) fields() []string { return []string{itoa(m.Number), m.Features} }

// ImARobot authenticates a robot client with the shared cookie.
type ImARobot struct {
	Nick   string
	Cookie string
}

func (m *ImARobot) Type() string     { return TypeImARobot }
func (m *ImARobot) fields() []string { return []string{m.Nick, m.Cookie} }

// SetNick claims a nickname for a human connection.
type SetNick struct {
	Nick string
}

func (m *SetNick) Type() string     { return TypeSetNick }
func (m *SetNick) fields() []string { return []string{m.Nick} }

// NewGame asks the registry to create a game. Option fields ride along so
// creation is a single round trip.
type NewGame struct {
	Game             string
	Seats            int // 4 or 6
	Target           int // victory points to win
	NoRobberOnDesert bool
	SpecialBuilding  bool
}

func (m *NewGame) Type() string { return TypeNewGame }
func (m *NewGame) fields() []string {
	return []string{m.Game, itoa(m.Seats), itoa(m.Target), btoa(m.NoRobberOnDesert), btoa(m.SpecialBuilding)}
}

type JoinGame struct {
	Game string
}

func (m *JoinGame) Type() string     { return TypeJoinGame }
func (m *JoinGame) fields() []string { return []string{m.Game} }

type LeaveGame struct {
	Game string
}

func (m *LeaveGame) Type() string     { return TypeLeaveGame }
func (m *LeaveGame) fields() []string { return []string{m.Game} }

type SitDown struct {
	Game string
	Seat int
}

func (m *SitDown) Type() string     { return TypeSitDown }
func (m *SitDown) fields() []string { return []string{m.Game, itoa(m.Seat)} }

type StartGame struct {
	Game string
}

func (m *StartGame) Type() string     { return TypeStartGame }
func (m *StartGame) fields() []string { return []string{m.Game} }

type Roll struct {
	Game string
}

func (m *Roll) Type() string     { return TypeRoll }
func (m *Roll) fields() []string { return []string{m.Game} }

// Discard gives back resources after a roll of seven.
type Discard struct {
	Game string
	Give ResourceSet
}

func (m *Discard) Type() string     { return TypeDiscard }
func (m *Discard) fields() []string { return appendResSet([]string{m.Game}, m.Give) }

type MoveRobber struct {
	Game string
	Hex  string
}

func (m *MoveRobber) Type() string     { return TypeMoveRobber }
func (m *MoveRobber) fields() []string { return []string{m.Game, m.Hex} }

// ChooseVictim picks which adjacent player to rob after moving the robber.
type ChooseVictim struct {
	Game string
	Seat int
}

func (m *ChooseVictim) Type() string     { return TypeChooseVictim }
func (m *ChooseVictim) fields() []string { return []string{m.Game, itoa(m.Seat)} }

// Build requests piece placement. Piece is "road", "settlement" or "city";
// Loc is an edge ID for roads and a node ID otherwise.
type Build struct {
	Game  string
	Piece string
	Loc   string
}

func (m *Build) Type() string     { return TypeBuild }
func (m *Build) fields() []string { return []string{m.Game, m.Piece, m.Loc} }

type BuyDevCard struct {
	Game string
}

func (m *BuyDevCard) Type() string     { return TypeBuyDevCard }
func (m *BuyDevCard) fields() []string { return []string{m.Game} }

// PlayDevCard plays a held development card. Arg1/Arg2 depend on the card:
// road building takes two edge IDs, year of plenty two resource indices,
// monopoly one resource index, knight none.
type PlayDevCard struct {
	Game string
	Card string
	Arg1 string
	Arg2 string
}

func (m *PlayDevCard) Type() string     { return TypePlayDevCard }
func (m *PlayDevCard) fields() []string { return []string{m.Game, m.Card, m.Arg1, m.Arg2} }

// BankTrade settles immediately against bank or port ratios.
type BankTrade struct {
	Game string
	Give ResourceSet
	Get  ResourceSet
}

func (m *BankTrade) Type() string { return TypeBankTrade }
func (m *BankTrade) fields() []string {
	return appendResSet(appendResSet([]string{m.Game}, m.Give), m.Get)
}

// TradeOffer proposes a peer trade to the listed seats. A new offer from the
// same proposer replaces the prior one.
type TradeOffer struct {
	Game string
	Give ResourceSet
	Get  ResourceSet
	To   []int
}

func (m *TradeOffer) Type() string { return TypeTradeOffer }
func (m *TradeOffer) fields() []string {
	return append(appendResSet(appendResSet([]string{m.Game}, m.Give), m.Get), joinInts(m.To))
}

// TradeResp accepts or rejects the outstanding offer from seat From.
type TradeResp struct {
	Game   string
	From   int
	Accept bool
}

func (m *TradeResp) Type() string     { return TypeTradeResp }
func (m *TradeResp) fields() []string { return []string{m.Game, itoa(m.From), btoa(m.Accept)} }

type EndTurn struct {
	Game string
}

func (m *EndTurn) Type() string     { return TypeEndTurn }
func (m *EndTurn) fields() []string { return []string{m.Game} }

// SpecialBuild asks for an out-of-turn build slot on the six-seat board.
type SpecialBuild struct {
	Game string
}

func (m *SpecialBuild) Type() string     { return TypeSpecialBuild }
func (m *SpecialBuild) fields() []string { return []string{m.Game} }

type ResetRequest struct {
	Game string
}

func (m *ResetRequest) Type() string     { return TypeResetRequest }
func (m *ResetRequest) fields() []string { return []string{m.Game} }

type ResetVote struct {
	Game    string
	Approve bool
}

func (m *ResetVote) Type() string     { return TypeResetVote }
func (m *ResetVote) fields() []string { return []string{m.Game, btoa(m.Approve)} }

type Ping struct {
	Tag string
}

func (m *Ping) Type() string     { return TypePing }
func (m *Ping) fields() []string { return []string{m.Tag} }
