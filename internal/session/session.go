package session

import (
	"time"
)

// Sender is the slice of the network client the session layer needs. The
// network.Client satisfies it; tests substitute fakes.
type Sender interface {
	ID() string
	Send() chan<- string
	Close() error
}

// conn is the per-connection session record: handshake progress, identity
// and game memberships. Owned by the Manager and guarded by its lock.
type conn struct {
	sender Sender

	versioned bool
	version   int
	robot     bool
	nick      string

	games   map[string]bool // game names this connection is a member of
	created map[string]bool // game names this connection created

	connectedAt time.Time
}

func (c *conn) named() bool { return c.nick != "" }

// Config bundles the session layer's tunables. Zero values fall back to
// the defaults below.
type Config struct {
	// Protocol versions older than MinVersion are refused at handshake.
	MinVersion int

	// RobotCookie authenticates IMAROBOT handshakes. Empty disables robots.
	RobotCookie string

	// MaxGames caps the number of live games in the registry.
	MaxGames int

	// MaxGamesPerConn caps the games one connection may create. The count
	// resets only once every game it created has emptied out.
	MaxGamesPerConn int

	// DiscardAfter forces outstanding discards after a seven.
	DiscardAfter time.Duration

	// TurnAfter forces a stalled turn forward.
	TurnAfter time.Duration

	// GameIdleAfter destroys a game nobody has touched.
	GameIdleAfter time.Duration

	// SweepEvery is the watchdog interval.
	SweepEvery time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxGames == 0 {
		c.MaxGames = 100
	}
	if c.MaxGamesPerConn == 0 {
		c.MaxGamesPerConn = 5
	}
	if c.DiscardAfter == 0 {
		c.DiscardAfter = 30 * time.Second
	}
	if c.TurnAfter == 0 {
		c.TurnAfter = 90 * time.Second
	}
	if c.GameIdleAfter == 0 {
		c.GameIdleAfter = 30 * time.Minute
	}
	if c.SweepEvery == 0 {
		c.SweepEvery = 5 * time.Second
	}
	return c
}
