package session

import (
	"log"
	"time"

	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// RunWatchdog sweeps the registry until the context of the server ends:
// stalled games are forced forward, finished and abandoned games are
// reclaimed, and every connection gets a keepalive ping. Run it in its own
// goroutine; Stop ends it.
func (m *Manager) RunWatchdog() {
	ticker := time.NewTicker(m.cfg.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// Stop ends the watchdog.
func (m *Manager) Stop() { close(m.stop) }

func (m *Manager) sweep(now time.Time) {
	for _, g := range m.registry.Games() {
		// Finished or deserted games are torn down once they sit idle.
		if g.IsOver() || g.Occupied() == 0 {
			if g.IdleFor(now) > m.cfg.GameIdleAfter {
				m.destroyGame(g.Name)
			}
			continue
		}
		if outs := g.ForceStalled(now, m.cfg.DiscardAfter, m.cfg.TurnAfter); len(outs) > 0 {
			log.Printf("session: forced stalled game %q forward", g.Name)
			m.deliver(g, outs)
		}
	}
	m.keepalive()
}

// destroyGame removes a game and detaches its members.
func (m *Manager) destroyGame(name string) {
	ids := m.registry.Members(name)
	m.registry.Destroy(name)
	m.mu.Lock()
	for _, id := range ids {
		if c, ok := m.conns[id]; ok {
			delete(c.games, name)
		}
	}
	m.mu.Unlock()
	log.Printf("session: reclaimed idle game %q", name)
}

// keepalive pings every connection so that half-dead sockets surface as
// write failures instead of lingering.
func (m *Manager) keepalive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conns {
		m.sendTo(c, &message.Pong{Tag: "keepalive"})
	}
}
