package session

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
)

// Registry is the set of live games plus their member connections. Members
// include observers: every member hears broadcasts, only seated members act.
type Registry struct {
	mu      sync.Mutex
	maxGame int
	games   map[string]*gameEntry // keyed by lower-cased name
}

type gameEntry struct {
	game    *game.Game
	members map[string]bool // connection IDs
	// summarized flags that the finished-game summary went out already.
	summarized bool
}

func NewRegistry(maxGames int) *Registry {
	return &Registry{maxGame: maxGames, games: make(map[string]*gameEntry)}
}

func gameKey(name string) string { return strings.ToLower(name) }

// Create makes a game. Names are unique case-insensitively.
func (r *Registry) Create(name string, opts game.Options) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || strings.ContainsAny(name, "|\t\n\r") {
		return nil, &game.RuleError{Code: game.CodeBadRequest, Reason: "unusable game name"}
	}
	key := gameKey(name)
	if _, dup := r.games[key]; dup {
		return nil, &game.RuleError{Code: game.CodeBadRequest, Reason: "game name already taken"}
	}
	if len(r.games) >= r.maxGame {
		return nil, &game.RuleError{Code: game.CodeBadRequest, Reason: "too many games on this server"}
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g := game.New(name, opts, rng)
	r.games[key] = &gameEntry{game: g, members: make(map[string]bool)}
	return g, nil
}

// Get returns the named game, or nil.
func (r *Registry) Get(name string) *game.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.games[gameKey(name)]; ok {
		return e.game
	}
	return nil
}

// Join adds a connection to the game's member set.
func (r *Registry) Join(name, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[gameKey(name)]
	if !ok {
		return false
	}
	e.members[connID] = true
	return true
}

// Leave removes a connection from the member set.
func (r *Registry) Leave(name, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.games[gameKey(name)]; ok {
		delete(e.members, connID)
	}
}

// IsMember reports membership.
func (r *Registry) IsMember(name, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[gameKey(name)]
	return ok && e.members[connID]
}

// Members lists the game's member connection IDs, sorted for determinism.
func (r *Registry) Members(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[gameKey(name)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.members))
	for id := range e.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Destroy removes a game outright.
func (r *Registry) Destroy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameKey(name))
}

// Games snapshots every live game, for the watchdog sweep.
func (r *Registry) Games() []*game.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*game.Game, 0, len(r.games))
	for _, e := range r.games {
		out = append(out, e.game)
	}
	return out
}

// MarkSummarized records that the finished-game summary was published.
// Returns false if it already was, so the summary goes out exactly once.
func (r *Registry) MarkSummarized(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[gameKey(name)]
	if !ok || e.summarized {
		return false
	}
	e.summarized = true
	return true
}

// Count reports how many games are live.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
