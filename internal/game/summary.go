package game

import "time"

// Summary is the published record of a finished game.
type Summary struct {
	Name       string         `json:"name"`
	Winner     int            `json:"winner"`
	WinnerNick string         `json:"winnerNick"`
	Duration   time.Duration  `json:"durationNs"`
	Turns      int            `json:"turns"`
	Rounds     int            `json:"rounds"`
	Scores     map[string]int `json:"scores"`
	RollCounts [13]int        `json:"rollCounts"`
	Options    Options        `json:"options"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Summary snapshots the game for publication. Meaningful once the game is
// over, but safe to call at any time.
func (g *Game) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Summary{
		Name:       g.Name,
		Winner:     g.winner,
		Duration:   g.lastAction.Sub(g.created),
		Turns:      g.turn,
		Rounds:     g.round,
		Scores:     make(map[string]int),
		RollCounts: g.rollCounts,
		Options:    g.Opts,
		FinishedAt: g.lastAction,
	}
	if g.winner != NoSeat {
		s.WinnerNick = g.seats[g.winner].Nick
	}
	for i, p := range g.players {
		if p == nil {
			continue
		}
		nick := g.seats[i].Nick
		if nick == "" {
			continue
		}
		s.Scores[nick] = p.PublicVP()
	}
	return s
}
