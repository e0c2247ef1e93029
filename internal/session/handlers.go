package session

import (
	"strings"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// ProtocolVersion is the server's protocol revision, reported in VERSIONACK.
const ProtocolVersion = 2

// serverFeatures is advertised in the handshake so clients can check for
// optional behavior without version bumps.
const serverFeatures = "sb,reset,6p"

func (m *Manager) registerHandlers() {
	// Handshake and lobby.
	m.router[message.TypeVersion] = (*Manager).handleVersion
	m.router[message.TypeImARobot] = (*Manager).handleImARobot
	m.router[message.TypeSetNick] = (*Manager).handleSetNick
	m.router[message.TypePing] = (*Manager).handlePing
	m.router[message.TypeNewGame] = (*Manager).handleNewGame
	m.router[message.TypeJoinGame] = (*Manager).handleJoinGame
	m.router[message.TypeLeaveGame] = (*Manager).handleLeaveGame
	m.router[message.TypeSitDown] = (*Manager).handleSitDown
	m.router[message.TypeStartGame] = (*Manager).handleStartGame

	// In-game actions. Each one resolves the game, applies the action and
	// fans out whatever the rules produced.
	m.router[message.TypeRoll] = (*Manager).handleRoll
	m.router[message.TypeDiscard] = (*Manager).handleDiscard
	m.router[message.TypeMoveRobber] = (*Manager).handleMoveRobber
	m.router[message.TypeChooseVictim] = (*Manager).handleChooseVictim
	m.router[message.TypeBuild] = (*Manager).handleBuild
	m.router[message.TypeBuyDevCard] = (*Manager).handleBuyDevCard
	m.router[message.TypePlayDevCard] = (*Manager).handlePlayDevCard
	m.router[message.TypeBankTrade] = (*Manager).handleBankTrade
	m.router[message.TypeTradeOffer] = (*Manager).handleTradeOffer
	m.router[message.TypeTradeResp] = (*Manager).handleTradeResp
	m.router[message.TypeEndTurn] = (*Manager).handleEndTurn
	m.router[message.TypeSpecialBuild] = (*Manager).handleSpecialBuild
	m.router[message.TypeResetRequest] = (*Manager).handleResetRequest
	m.router[message.TypeResetVote] = (*Manager).handleResetVote
}

// --- handshake ---

func (m *Manager) handleVersion(c *conn, msg message.Message) {
	v := msg.(*message.Version)
	if v.Number < m.cfg.MinVersion {
		// Reason first, then the connection goes away.
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "protocol version too old"})
		c.sender.Close()
		return
	}
	m.mu.Lock()
	c.versioned = true
	c.version = v.Number
	m.mu.Unlock()
	m.sendTo(c, &message.VersionAck{Number: ProtocolVersion, Features: serverFeatures})
}

func (m *Manager) handleImARobot(c *conn, msg message.Message) {
	r := msg.(*message.ImARobot)
	if m.cfg.RobotCookie == "" || r.Cookie != m.cfg.RobotCookie {
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "bad robot cookie"})
		c.sender.Close()
		return
	}
	if !m.claimNick(c, r.Nick, true) {
		return
	}
	m.sendTo(c, &message.VersionAck{Number: ProtocolVersion, Features: serverFeatures})
	m.sendTo(c, &message.Welcome{Nick: r.Nick})
}

func (m *Manager) handleSetNick(c *conn, msg message.Message) {
	n := msg.(*message.SetNick)
	if !m.claimNick(c, n.Nick, false) {
		return
	}
	m.sendTo(c, &message.Welcome{Nick: n.Nick})
}

// claimNick takes a nickname for the connection, enforcing case-insensitive
// uniqueness. Robots are marked versioned as a side effect of the cookie.
func (m *Manager) claimNick(c *conn, nick string, robot bool) bool {
	nick = strings.TrimSpace(nick)
	if nick == "" || len(nick) > 20 || strings.ContainsAny(nick, "|\t\n\r,") {
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "unusable nickname"})
		return false
	}
	key := strings.ToLower(nick)
	m.mu.Lock()
	if holder, taken := m.nicks[key]; taken && holder != c {
		m.mu.Unlock()
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "nickname already in use"})
		return false
	}
	if c.nick != "" {
		delete(m.nicks, strings.ToLower(c.nick))
	}
	m.nicks[key] = c
	c.nick = nick
	c.robot = robot
	if robot {
		c.versioned = true
	}
	m.mu.Unlock()
	return true
}

func (m *Manager) handlePing(c *conn, msg message.Message) {
	p := msg.(*message.Ping)
	m.sendTo(c, &message.Pong{Tag: p.Tag})
}

// --- lobby ---

func (m *Manager) handleNewGame(c *conn, msg message.Message) {
	ng := msg.(*message.NewGame)
	if !m.requireNick(c, ng.Game) {
		return
	}
	if !m.roomForAnotherGame(c, ng.Game) {
		return
	}
	opts := game.Options{
		Seats:            ng.Seats,
		Target:           ng.Target,
		NoRobberOnDesert: ng.NoRobberOnDesert,
		SpecialBuilding:  ng.SpecialBuilding,
	}
	g, err := m.registry.Create(ng.Game, opts)
	if err != nil {
		m.reject(c, ng.Game, err)
		return
	}
	m.mu.Lock()
	c.created[g.Name] = true
	m.mu.Unlock()
	m.joinGame(c, g)
}

func (m *Manager) handleJoinGame(c *conn, msg message.Message) {
	j := msg.(*message.JoinGame)
	if !m.requireNick(c, j.Game) {
		return
	}
	g := m.registry.Get(j.Game)
	if g == nil {
		m.sendTo(c, &message.Reject{Game: j.Game, Code: game.CodeBadRequest, Reason: "no such game"})
		return
	}
	m.joinGame(c, g)
}

// joinGame makes the connection a member and sends the catch-up snapshot.
func (m *Manager) joinGame(c *conn, g *game.Game) {
	m.registry.Join(g.Name, c.sender.ID())
	m.mu.Lock()
	c.games[g.Name] = true
	m.mu.Unlock()

	members := m.memberNicks(g.Name)
	m.sendTo(c, &message.GameMembers{Game: g.Name, Members: members})
	for _, msg := range g.JoinSnapshot() {
		m.sendTo(c, msg)
	}
}

func (m *Manager) handleLeaveGame(c *conn, msg message.Message) {
	l := msg.(*message.LeaveGame)
	g, ok := m.memberGame(c, l.Game)
	if !ok {
		return
	}
	m.registry.Leave(g.Name, c.sender.ID())
	m.mu.Lock()
	delete(c.games, g.Name)
	m.mu.Unlock()

	outs, needRobot := g.Disconnect(c.sender.ID())
	m.deliver(g, outs)
	if needRobot != game.NoSeat && m.robots != nil {
		m.robots.SpawnRobot(g.Name, needRobot)
	}
}

func (m *Manager) handleSitDown(c *conn, msg message.Message) {
	s := msg.(*message.SitDown)
	g, ok := m.memberGame(c, s.Game)
	if !ok {
		return
	}
	m.mu.Lock()
	nick, robot := c.nick, c.robot
	m.mu.Unlock()
	outs, err := g.Sit(s.Seat, nick, c.sender.ID(), robot)
	if err != nil {
		m.reject(c, s.Game, err)
		return
	}
	m.deliver(g, outs)
}

func (m *Manager) handleStartGame(c *conn, msg message.Message) {
	s := msg.(*message.StartGame)
	g, ok := m.memberGame(c, s.Game)
	if !ok {
		return
	}
	outs, err := g.Start(c.sender.ID())
	if err != nil {
		m.reject(c, s.Game, err)
		return
	}
	m.deliver(g, outs)
}

// --- in-game actions ---

func (m *Manager) handleRoll(c *conn, msg message.Message) {
	a := msg.(*message.Roll)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.Roll(c.sender.ID())
	})
}

func (m *Manager) handleDiscard(c *conn, msg message.Message) {
	a := msg.(*message.Discard)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.DiscardHalf(c.sender.ID(), a.Give)
	})
}

func (m *Manager) handleMoveRobber(c *conn, msg message.Message) {
	a := msg.(*message.MoveRobber)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.MoveRobber(c.sender.ID(), a.Hex)
	})
}

func (m *Manager) handleChooseVictim(c *conn, msg message.Message) {
	a := msg.(*message.ChooseVictim)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.ChooseVictim(c.sender.ID(), a.Seat)
	})
}

func (m *Manager) handleBuild(c *conn, msg message.Message) {
	a := msg.(*message.Build)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.BuildPiece(c.sender.ID(), a.Piece, a.Loc)
	})
}

func (m *Manager) handleBuyDevCard(c *conn, msg message.Message) {
	a := msg.(*message.BuyDevCard)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.BuyDevCard(c.sender.ID())
	})
}

func (m *Manager) handlePlayDevCard(c *conn, msg message.Message) {
	a := msg.(*message.PlayDevCard)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.PlayDevCard(c.sender.ID(), a.Card, a.Arg1, a.Arg2)
	})
}

func (m *Manager) handleBankTrade(c *conn, msg message.Message) {
	a := msg.(*message.BankTrade)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.BankTrade(c.sender.ID(), a.Give, a.Get)
	})
}

func (m *Manager) handleTradeOffer(c *conn, msg message.Message) {
	a := msg.(*message.TradeOffer)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.OfferTrade(c.sender.ID(), a.Give, a.Get, a.To)
	})
}

func (m *Manager) handleTradeResp(c *conn, msg message.Message) {
	a := msg.(*message.TradeResp)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.RespondTrade(c.sender.ID(), a.From, a.Accept)
	})
}

func (m *Manager) handleEndTurn(c *conn, msg message.Message) {
	a := msg.(*message.EndTurn)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.EndTurn(c.sender.ID())
	})
}

func (m *Manager) handleSpecialBuild(c *conn, msg message.Message) {
	a := msg.(*message.SpecialBuild)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.AskSpecialBuild(c.sender.ID())
	})
}

func (m *Manager) handleResetRequest(c *conn, msg message.Message) {
	a := msg.(*message.ResetRequest)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.RequestReset(c.sender.ID())
	})
}

func (m *Manager) handleResetVote(c *conn, msg message.Message) {
	a := msg.(*message.ResetVote)
	m.gameAction(c, a.Game, func(g *game.Game) ([]game.Outbound, error) {
		return g.VoteReset(c.sender.ID(), a.Approve)
	})
}

// --- shared helpers ---

// gameAction resolves the game, runs the action and fans out the result.
func (m *Manager) gameAction(c *conn, name string, fn func(*game.Game) ([]game.Outbound, error)) {
	g, ok := m.memberGame(c, name)
	if !ok {
		return
	}
	outs, err := fn(g)
	if err != nil {
		m.reject(c, name, err)
		return
	}
	m.deliver(g, outs)
}

// memberGame resolves a game the connection is a member of, rejecting
// otherwise.
func (m *Manager) memberGame(c *conn, name string) (*game.Game, bool) {
	g := m.registry.Get(name)
	if g == nil {
		m.sendTo(c, &message.Reject{Game: name, Code: game.CodeBadRequest, Reason: "no such game"})
		return nil, false
	}
	if !m.registry.IsMember(name, c.sender.ID()) {
		m.sendTo(c, &message.Reject{Game: name, Code: game.CodeBadRequest, Reason: "join the game first"})
		return nil, false
	}
	return g, true
}

func (m *Manager) requireNick(c *conn, gameName string) bool {
	m.mu.Lock()
	named := c.named()
	m.mu.Unlock()
	if !named {
		m.sendTo(c, &message.Reject{Game: gameName, Code: game.CodeBadRequest, Reason: "set a nickname first"})
	}
	return named
}

// roomForAnotherGame enforces the creation quota. Creations keep counting
// even after individual games die; the counter resets only once every game
// this connection created has emptied out.
func (m *Manager) roomForAnotherGame(c *conn, gameName string) bool {
	m.mu.Lock()
	names := make([]string, 0, len(c.created))
	for name := range c.created {
		names = append(names, name)
	}
	m.mu.Unlock()
	if len(names) < m.cfg.MaxGamesPerConn {
		return true
	}

	for _, name := range names {
		if len(m.registry.Members(name)) > 0 {
			m.sendTo(c, &message.Reject{Game: gameName, Code: game.CodeBadRequest, Reason: "too many games created"})
			return false
		}
	}
	m.mu.Lock()
	c.created = make(map[string]bool)
	m.mu.Unlock()
	return true
}

// memberNicks lists the nicknames of a game's members.
func (m *Manager) memberNicks(name string) []string {
	ids := m.registry.Members(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range ids {
		if c, ok := m.conns[id]; ok && c.nick != "" {
			out = append(out, c.nick)
		}
	}
	return out
}
