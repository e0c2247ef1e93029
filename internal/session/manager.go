package session

import (
	"errors"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
	"github.com/wbreen/CatanFinal-sub001/internal/message"
	"github.com/wbreen/CatanFinal-sub001/internal/network"
)

// CommandHandlerFunc handles one decoded client message.
type CommandHandlerFunc func(m *Manager, c *conn, msg message.Message)

// SummaryPublisher receives the record of every finished game.
type SummaryPublisher interface {
	PublishSummary(s game.Summary) error
}

// RobotSpawner is asked for a replacement when a robot's connection drops
// mid-game. The spawned robot is expected to connect, handshake and sit.
type RobotSpawner interface {
	SpawnRobot(gameName string, seat int)
}

// Manager owns every connection's session and routes decoded messages to
// the registry and the games. It implements network.EventHandler; the Hub
// drives it from one goroutine, the watchdog from another, so all state is
// behind one lock.
type Manager struct {
	mu sync.Mutex

	cfg      Config
	registry *Registry

	conns map[string]*conn // by connection ID
	nicks map[string]*conn // by lower-cased nickname

	router map[string]CommandHandlerFunc

	summaries SummaryPublisher // optional
	robots    RobotSpawner     // optional

	stop chan struct{}
}

func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:      cfg,
		registry: NewRegistry(cfg.MaxGames),
		conns:    make(map[string]*conn),
		nicks:    make(map[string]*conn),
		router:   make(map[string]CommandHandlerFunc),
		stop:     make(chan struct{}),
	}
	m.registerHandlers()
	return m
}

// SetSummaryPublisher wires the finished-game publisher. Call before Run.
func (m *Manager) SetSummaryPublisher(p SummaryPublisher) { m.summaries = p }

// SetRobotSpawner wires the robot replacement hook. Call before Run.
func (m *Manager) SetRobotSpawner(r RobotSpawner) { m.robots = r }

// Registry exposes the game registry, mainly for tests and the watchdog.
func (m *Manager) Registry() *Registry { return m.registry }

// --- network.EventHandler ---

func (m *Manager) OnConnect(c *network.Client)           { m.Connect(c) }
func (m *Manager) OnDisconnect(c *network.Client)        { m.Disconnect(c.ID()) }
func (m *Manager) OnLine(c *network.Client, line string) { m.HandleLine(c.ID(), line) }

// Connect registers a new connection. Nothing is sent until the client
// opens with VERSION (or IMAROBOT).
func (m *Manager) Connect(s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[s.ID()] = &conn{
		sender:      s,
		games:       make(map[string]bool),
		created:     make(map[string]bool),
		connectedAt: time.Now(),
	}
	log.Printf("session: connection %s opened (%d total)", s.ID(), len(m.conns))
}

// Disconnect tears a connection down: frees its nickname, leaves its games
// and lets each game lock or replace the vacated seat.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	c, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, connID)
	if c.nick != "" {
		delete(m.nicks, strings.ToLower(c.nick))
	}
	games := make([]string, 0, len(c.games))
	for name := range c.games {
		games = append(games, name)
	}
	m.mu.Unlock()

	for _, name := range games {
		g := m.registry.Get(name)
		m.registry.Leave(name, connID)
		if g == nil {
			continue
		}
		outs, needRobot := g.Disconnect(connID)
		m.deliver(g, outs)
		if needRobot != game.NoSeat && m.robots != nil {
			m.robots.SpawnRobot(name, needRobot)
		}
	}
	log.Printf("session: connection %s closed", connID)
}

// HandleLine decodes one line and routes it. Decode failures and rule
// rejections go back to the sender only; nothing else hears about them.
func (m *Manager) HandleLine(connID, line string) {
	m.mu.Lock()
	c, ok := m.conns[connID]
	var versioned bool
	if ok {
		versioned = c.versioned
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	msg, err := message.Decode(line)
	if err != nil {
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "malformed message"})
		return
	}

	h, ok := m.router[msg.Type()]
	if !ok {
		m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "unknown message " + msg.Type()})
		return
	}

	// Everything after the handshake requires a version; robots get theirs
	// implicitly with the cookie.
	switch msg.Type() {
	case message.TypeVersion, message.TypeImARobot, message.TypePing:
	default:
		if !versioned {
			m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "handshake first"})
			return
		}
	}

	// A panic in a handler aborts only this action. The connection and
	// every game survive; the sender just hears a rejection.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session: panic handling %s from %s: %v\n%s", msg.Type(), connID, r, debug.Stack())
			m.sendTo(c, &message.Reject{Code: game.CodeBadRequest, Reason: "internal error"})
		}
	}()
	h(m, c, msg)
}

// --- delivery ---

// sendTo encodes and queues one message for one connection. A full send
// buffer drops the message rather than stalling the whole server.
func (m *Manager) sendTo(c *conn, msg message.Message) {
	line, err := message.Encode(msg)
	if err != nil {
		log.Printf("session: encode %s: %v", msg.Type(), err)
		return
	}
	select {
	case c.sender.Send() <- line:
	default:
		log.Printf("session: send buffer full for %s, dropping %s", c.sender.ID(), msg.Type())
	}
}

// deliver fans a game's outbound batch out to its members. Seat-addressed
// messages go to the seat's connection; broadcasts go to every member,
// observers included.
func (m *Manager) deliver(g *game.Game, outs []game.Outbound) {
	if len(outs) == 0 {
		return
	}
	members := m.registry.Members(g.Name)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range outs {
		if o.To != game.Broadcast {
			id := g.SeatConn(o.To)
			if id == "" {
				continue
			}
			if c, ok := m.conns[id]; ok {
				m.sendTo(c, o.Msg)
			}
			continue
		}
		exceptID := ""
		if o.Except != game.NoSeat {
			exceptID = g.SeatConn(o.Except)
		}
		for _, id := range members {
			if id == exceptID {
				continue
			}
			if c, ok := m.conns[id]; ok {
				m.sendTo(c, o.Msg)
			}
		}
	}

	if g.IsOver() {
		m.publishSummary(g)
	}
}

// publishSummary sends the finished game's record out exactly once.
// Caller holds m.mu; the publisher call itself happens off the lock path
// via a goroutine so a slow broker never blocks gameplay.
func (m *Manager) publishSummary(g *game.Game) {
	if m.summaries == nil {
		return
	}
	if !m.registry.MarkSummarized(g.Name) {
		return
	}
	s := g.Summary()
	go func() {
		if err := m.summaries.PublishSummary(s); err != nil {
			log.Printf("session: publish summary for %q: %v", s.Name, err)
		}
	}()
}

// reject maps an action error to a Reject for the sender. Rule errors keep
// their code; anything else is reported as a bad request.
func (m *Manager) reject(c *conn, gameName string, err error) {
	var re *game.RuleError
	if errors.As(err, &re) {
		m.sendTo(c, &message.Reject{Game: gameName, Code: re.Code, Reason: re.Reason})
		return
	}
	m.sendTo(c, &message.Reject{Game: gameName, Code: game.CodeBadRequest, Reason: err.Error()})
}
