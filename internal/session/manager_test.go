package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

type fakeSender struct {
	id     string
	ch     chan string
	closed bool
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: id, ch: make(chan string, 128)}
}

func (f *fakeSender) ID() string          { return f.id }
func (f *fakeSender) Send() chan<- string { return f.ch }
func (f *fakeSender) Close() error        { f.closed = true; return nil }

// drain decodes everything queued for the connection so far.
func (f *fakeSender) drain(t *testing.T) []message.Message {
	t.Helper()
	var out []message.Message
	for {
		select {
		case line := <-f.ch:
			msg, err := message.Decode(line)
			require.NoError(t, err, "server sent an undecodable line: %q", line)
			out = append(out, msg)
		default:
			return out
		}
	}
}

func firstOf[M message.Message](msgs []message.Message) (M, bool) {
	for _, m := range msgs {
		if v, ok := m.(M); ok {
			return v, true
		}
	}
	var zero M
	return zero, false
}

func newTestManager() *Manager {
	return NewManager(Config{
		MinVersion:      2,
		RobotCookie:     "cookie",
		MaxGames:        4,
		MaxGamesPerConn: 1,
	})
}

func send(t *testing.T, m *Manager, f *fakeSender, msg message.Message) {
	t.Helper()
	line, err := message.Encode(msg)
	require.NoError(t, err)
	m.HandleLine(f.id, line)
}

// handshake connects, versions and names one fake client.
func handshake(t *testing.T, m *Manager, f *fakeSender, nick string) {
	t.Helper()
	m.Connect(f)
	send(t, m, f, &message.Version{Number: ProtocolVersion})
	send(t, m, f, &message.SetNick{Nick: nick})
	msgs := f.drain(t)
	_, ok := firstOf[*message.VersionAck](msgs)
	require.True(t, ok)
	w, ok := firstOf[*message.Welcome](msgs)
	require.True(t, ok)
	require.Equal(t, nick, w.Nick)
}

func TestHandshakeRequiredBeforeAnythingElse(t *testing.T) {
	m := newTestManager()
	f := newFakeSender("c1")
	m.Connect(f)

	send(t, m, f, &message.SetNick{Nick: "alice"})
	rej, ok := firstOf[*message.Reject](f.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "handshake")

	// PING is exempt so load balancers can health-check.
	send(t, m, f, &message.Ping{})
	_, ok = firstOf[*message.Pong](f.drain(t))
	assert.True(t, ok)

	send(t, m, f, &message.Version{Number: ProtocolVersion})
	ack, ok := firstOf[*message.VersionAck](f.drain(t))
	require.True(t, ok)
	assert.Equal(t, ProtocolVersion, ack.Number)
	assert.NotEmpty(t, ack.Features)
}

func TestVersionTooOldRefused(t *testing.T) {
	m := newTestManager()
	f := newFakeSender("c1")
	m.Connect(f)

	send(t, m, f, &message.Version{Number: 1})
	rej, ok := firstOf[*message.Reject](f.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "version")

	// The refusal reason goes out first, then the transport is torn down.
	assert.True(t, f.closed)
	m.Disconnect(f.id)

	// A client speaking a current protocol gets through.
	g := newFakeSender("c2")
	m.Connect(g)
	send(t, m, g, &message.Version{Number: ProtocolVersion})
	_, ok = firstOf[*message.VersionAck](g.drain(t))
	assert.True(t, ok)
	assert.False(t, g.closed)
}

func TestMalformedAndUnknownLines(t *testing.T) {
	m := newTestManager()
	f := newFakeSender("c1")
	m.Connect(f)

	m.HandleLine(f.id, "ROLL|missing|extra|fields|everywhere")
	rej, ok := firstOf[*message.Reject](f.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "malformed")

	m.HandleLine(f.id, "")
	_, ok = firstOf[*message.Reject](f.drain(t))
	assert.True(t, ok)

	// Lines for unknown connections are dropped silently.
	m.HandleLine("nobody", "PING|\t")
}

func TestNicknameRules(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "Alice")

	m.Connect(b)
	send(t, m, b, &message.Version{Number: ProtocolVersion})
	b.drain(t)

	// Case-insensitive collision.
	send(t, m, b, &message.SetNick{Nick: "ALICE"})
	rej, ok := firstOf[*message.Reject](b.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "in use")

	// Unusable names.
	send(t, m, b, &message.SetNick{Nick: "  "})
	_, ok = firstOf[*message.Reject](b.drain(t))
	assert.True(t, ok)
	send(t, m, b, &message.SetNick{Nick: "way,too,punctuated"})
	_, ok = firstOf[*message.Reject](b.drain(t))
	assert.True(t, ok)

	// Disconnecting frees the name.
	m.Disconnect(a.id)
	send(t, m, b, &message.SetNick{Nick: "alice"})
	w, ok := firstOf[*message.Welcome](b.drain(t))
	require.True(t, ok)
	assert.Equal(t, "alice", w.Nick)
}

func TestRobotHandshake(t *testing.T) {
	m := newTestManager()

	// A wrong cookie is refused and the connection is cut.
	bad := newFakeSender("r0")
	m.Connect(bad)
	send(t, m, bad, &message.ImARobot{Nick: "robo", Cookie: "wrong"})
	rej, ok := firstOf[*message.Reject](bad.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "cookie")
	assert.True(t, bad.closed)
	m.Disconnect(bad.id)

	f := newFakeSender("r1")
	m.Connect(f)
	send(t, m, f, &message.ImARobot{Nick: "robo", Cookie: "cookie"})
	msgs := f.drain(t)
	_, ok = firstOf[*message.VersionAck](msgs)
	assert.True(t, ok)
	w, ok := firstOf[*message.Welcome](msgs)
	require.True(t, ok)
	assert.Equal(t, "robo", w.Nick)

	// The cookie stands in for VERSION.
	send(t, m, f, &message.NewGame{Game: "bots", Seats: 4})
	_, ok = firstOf[*message.GameMembers](f.drain(t))
	assert.True(t, ok)
}

func TestCreateJoinSitStart(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "alice")
	handshake(t, m, b, "bob")

	send(t, m, a, &message.NewGame{Game: "Table1", Seats: 4, Target: 10})
	members, ok := firstOf[*message.GameMembers](a.drain(t))
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, members.Members)

	// Names resolve case-insensitively.
	send(t, m, b, &message.JoinGame{Game: "table1"})
	members, ok = firstOf[*message.GameMembers](b.drain(t))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members.Members)

	send(t, m, a, &message.SitDown{Game: "Table1", Seat: 0})
	send(t, m, b, &message.SitDown{Game: "Table1", Seat: 1})
	seatMsgs := a.drain(t)
	seat, ok := firstOf[*message.SeatUpdate](seatMsgs)
	require.True(t, ok)
	assert.Equal(t, 0, seat.Seat)
	assert.Equal(t, "alice", seat.Nick)
	b.drain(t)

	send(t, m, a, &message.StartGame{Game: "Table1"})
	for _, f := range []*fakeSender{a, b} {
		msgs := f.drain(t)
		_, ok := firstOf[*message.BoardLayout](msgs)
		assert.True(t, ok, "%s sees the board", f.id)
		st, ok := firstOf[*message.GameState](msgs)
		require.True(t, ok)
		assert.Equal(t, string(game.StateStart1Settlement), st.State)
	}
}

func TestGameQuotas(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "alice")
	handshake(t, m, b, "bob")

	send(t, m, a, &message.NewGame{Game: "one", Seats: 4})
	a.drain(t)

	// Duplicate names are refused case-insensitively.
	send(t, m, b, &message.NewGame{Game: "ONE", Seats: 4})
	rej, ok := firstOf[*message.Reject](b.drain(t))
	require.True(t, ok)
	assert.Equal(t, game.CodeBadRequest, rej.Code)
	assert.Contains(t, rej.Reason, "taken")

	// Alice is at her creation quota while "one" still has members.
	send(t, m, a, &message.NewGame{Game: "two", Seats: 4})
	rej, ok = firstOf[*message.Reject](a.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "too many games")
	assert.Equal(t, 1, m.registry.Count())

	// Joining costs nothing against the quota.
	send(t, m, b, &message.JoinGame{Game: "one"})
	_, ok = firstOf[*message.GameMembers](b.drain(t))
	assert.True(t, ok)

	// The quota resets only once every game alice created has emptied out.
	send(t, m, b, &message.LeaveGame{Game: "one"})
	send(t, m, a, &message.NewGame{Game: "two", Seats: 4})
	rej, ok = firstOf[*message.Reject](a.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "too many games")

	send(t, m, a, &message.LeaveGame{Game: "one"})
	a.drain(t)
	send(t, m, a, &message.NewGame{Game: "two", Seats: 4})
	_, ok = firstOf[*message.GameMembers](a.drain(t))
	assert.True(t, ok)
}

func TestActionsRequireMembership(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "alice")
	handshake(t, m, b, "bob")

	send(t, m, b, &message.Roll{Game: "nowhere"})
	rej, ok := firstOf[*message.Reject](b.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "no such game")

	send(t, m, a, &message.NewGame{Game: "priv", Seats: 4})
	a.drain(t)
	send(t, m, b, &message.Roll{Game: "priv"})
	rej, ok = firstOf[*message.Reject](b.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "join")

	// A nickname is required before creating or joining.
	anon := newFakeSender("c3")
	m.Connect(anon)
	send(t, m, anon, &message.Version{Number: ProtocolVersion})
	anon.drain(t)
	send(t, m, anon, &message.JoinGame{Game: "priv"})
	_, ok = firstOf[*message.Reject](anon.drain(t))
	assert.True(t, ok)
}

func TestRuleRejectionsGoBackToSenderOnly(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "alice")
	handshake(t, m, b, "bob")

	send(t, m, a, &message.NewGame{Game: "g", Seats: 4})
	send(t, m, b, &message.JoinGame{Game: "g"})
	send(t, m, a, &message.SitDown{Game: "g", Seat: 0})
	send(t, m, b, &message.SitDown{Game: "g", Seat: 1})
	send(t, m, a, &message.StartGame{Game: "g"})
	a.drain(t)
	b.drain(t)

	// Rolling during setup breaks a rule: the roller hears a Reject with
	// the game's code, the other player hears nothing. Roll as whoever
	// holds the turn so the rejection is about the state, not the seat.
	roller, other := a, b
	if m.registry.Get("g").CurrentSeat() == 1 {
		roller, other = b, a
	}
	send(t, m, roller, &message.Roll{Game: "g"})
	rej, ok := firstOf[*message.Reject](roller.drain(t))
	require.True(t, ok)
	assert.Equal(t, "g", rej.Game)
	assert.Equal(t, game.CodeBadState, rej.Code)
	assert.Empty(t, other.drain(t))
}

func TestHandlerPanicRejectsWithoutKillingTheSession(t *testing.T) {
	m := newTestManager()
	f := newFakeSender("c1")
	handshake(t, m, f, "alice")

	m.router[message.TypeRoll] = func(m *Manager, c *conn, msg message.Message) {
		panic("exploded mid-command")
	}
	send(t, m, f, &message.Roll{Game: "g"})
	rej, ok := firstOf[*message.Reject](f.drain(t))
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "internal")

	// The connection keeps working.
	send(t, m, f, &message.Ping{Tag: "x"})
	pong, ok := firstOf[*message.Pong](f.drain(t))
	require.True(t, ok)
	assert.Equal(t, "x", pong.Tag)
	assert.False(t, f.closed)
}

func TestDisconnectNotifiesGames(t *testing.T) {
	m := newTestManager()
	a := newFakeSender("c1")
	b := newFakeSender("c2")
	handshake(t, m, a, "alice")
	handshake(t, m, b, "bob")

	send(t, m, a, &message.NewGame{Game: "g", Seats: 4})
	send(t, m, b, &message.JoinGame{Game: "g"})
	send(t, m, a, &message.SitDown{Game: "g", Seat: 0})
	send(t, m, b, &message.SitDown{Game: "g", Seat: 1})
	send(t, m, a, &message.StartGame{Game: "g"})
	a.drain(t)
	b.drain(t)

	m.Disconnect(b.id)
	seat, ok := firstOf[*message.SeatUpdate](a.drain(t))
	require.True(t, ok)
	assert.Equal(t, 1, seat.Seat)
	assert.Equal(t, game.SeatLocked, seat.State)
}

func TestSweepReclaimsIdleGames(t *testing.T) {
	m := NewManager(Config{
		MinVersion:    1,
		MaxGames:      4,
		GameIdleAfter: time.Millisecond,
	})
	a := newFakeSender("c1")
	handshake(t, m, a, "alice")
	send(t, m, a, &message.NewGame{Game: "stale", Seats: 4})
	a.drain(t)

	// Nobody ever sat down; the game counts as deserted once idle.
	m.sweep(time.Now().Add(time.Hour))
	assert.Equal(t, 0, m.registry.Count())
	assert.Nil(t, m.registry.Get("stale"))

	// The sweep keepalive reached the connection.
	_, ok := firstOf[*message.Pong](a.drain(t))
	assert.True(t, ok)
}

type captureSummaries struct {
	got []game.Summary
}

func (c *captureSummaries) PublishSummary(s game.Summary) error {
	c.got = append(c.got, s)
	return nil
}

func TestFinishedGamePublishesSummaryOnce(t *testing.T) {
	m := newTestManager()
	sink := &captureSummaries{}
	m.SetSummaryPublisher(sink)

	g, err := m.registry.Create("done", game.Options{})
	require.NoError(t, err)

	// Drive the registry path deliver takes when a game ends.
	m.deliver(g, nil) // not over yet: nothing published
	assert.Empty(t, sink.got)

	require.True(t, m.registry.MarkSummarized("done"))
	assert.False(t, m.registry.MarkSummarized("done"), "summaries publish once")
}
