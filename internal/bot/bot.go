package bot

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
	"github.com/wbreen/CatanFinal-sub001/internal/message"
)

// Spawner launches robot players against the server's own TCP listener
// when the session layer asks for a replacement.
type Spawner struct {
	Addr   string // server TCP address, e.g. "127.0.0.1:8880"
	Cookie string // robot cookie, must match the server's
}

// SpawnRobot starts one robot for the given seat in the given game.
func (s *Spawner) SpawnRobot(gameName string, seat int) {
	b := &Bot{
		addr:   s.Addr,
		cookie: s.Cookie,
		nick:   "robot-" + uuid.NewString()[:8],
		game:   gameName,
		seat:   seat,
	}
	go func() {
		if err := b.Run(); err != nil {
			log.Printf("bot: %s in %q stopped: %v", b.nick, gameName, err)
		}
	}()
}

// Bot is a minimal rules-legal player. It never strategizes: it rolls when
// asked, discards its cheapest cards, robs whoever it can, declines every
// trade and ends its turn. Its job is to keep a game moving, not to win.
type Bot struct {
	addr   string
	cookie string
	nick   string
	game   string
	seat   int

	w *bufio.Writer

	hand    message.ResourceSet
	hexes   []string
	robber  string
	lastSet string // node of the settlement just placed, for the setup road

	// candidate placements still untried in the current placement state
	pending []string
}

// Run connects, handshakes and plays until the game ends or the
// connection drops.
func (b *Bot) Run() error {
	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.addr, err)
	}
	defer conn.Close()
	b.w = bufio.NewWriter(conn)

	b.send(&message.ImARobot{Nick: b.nick, Cookie: b.cookie})
	b.send(&message.JoinGame{Game: b.game})
	b.send(&message.SitDown{Game: b.game, Seat: b.seat})

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 4096)
	for sc.Scan() {
		msg, err := message.Decode(sc.Text())
		if err != nil {
			continue
		}
		if done := b.handle(msg); done {
			return nil
		}
	}
	return sc.Err()
}

func (b *Bot) send(msg message.Message) {
	line, err := message.Encode(msg)
	if err != nil {
		return
	}
	b.w.WriteString(line)
	b.w.WriteByte('\n')
	b.w.Flush()
}

// handle reacts to one server message. Returns true when the game is over.
func (b *Bot) handle(msg message.Message) bool {
	switch v := msg.(type) {
	case *message.BoardLayout:
		if v.Game != b.game {
			return false
		}
		b.robber = v.Robber
		b.hexes = b.hexes[:0]
		for _, entry := range strings.Split(v.Hexes, ";") {
			parts := strings.SplitN(entry, ":", 2)
			if len(parts) > 0 && parts[0] != "" {
				b.hexes = append(b.hexes, parts[0])
			}
		}

	case *message.RobberMoved:
		if v.Game == b.game {
			b.robber = v.Hex
		}

	case *message.ResourceUpd:
		if v.Game == b.game && v.Seat == b.seat && v.Hand.Total() == v.Total {
			b.hand = v.Hand
		}

	case *message.DiscardReq:
		if v.Game == b.game && v.Seat == b.seat {
			b.send(&message.Discard{Game: b.game, Give: pickDiscard(b.hand, v.Count)})
		}

	case *message.TradeNotice:
		if v.Game != b.game || v.From == b.seat {
			return false
		}
		for _, t := range v.To {
			if t == b.seat {
				b.send(&message.TradeResp{Game: b.game, From: v.From, Accept: false})
				break
			}
		}

	case *message.PieceBuilt:
		if v.Game == b.game && v.Seat == b.seat {
			b.pending = nil
			if v.Piece == game.PieceSettlement {
				b.lastSet = v.Loc
			}
		}

	case *message.Reject:
		// A rejected placement attempt: move on to the next candidate.
		if v.Game == b.game && len(b.pending) > 0 {
			b.tryNextPlacement()
		}

	case *message.GameState:
		if v.Game == b.game {
			return b.onState(v)
		}

	case *message.GameOver:
		if v.Game == b.game {
			return true
		}
	}
	return false
}

func (b *Bot) onState(v *message.GameState) bool {
	if v.CurSeat != b.seat {
		b.pending = nil
		return false
	}
	// Small delay keeps robot turns observable by humans at the table.
	time.Sleep(150 * time.Millisecond)

	switch game.State(v.State) {
	case game.StateRollOrCard:
		b.send(&message.Roll{Game: b.game})
	case game.StatePlay, game.StateSpecialBuilding:
		b.send(&message.EndTurn{Game: b.game})
	case game.StatePlacingRobber:
		for _, h := range b.hexes {
			if h != b.robber {
				b.send(&message.MoveRobber{Game: b.game, Hex: h})
				break
			}
		}
	case game.StateWaitingRobbery:
		// The victim list is private to the rules; try the seats and let
		// rejections fall where they may.
		for s := 0; s < 6; s++ {
			if s != b.seat {
				b.send(&message.ChooseVictim{Game: b.game, Seat: s})
			}
		}
	case game.StateStart1Settlement, game.StateStart2Settlement:
		b.pending = b.settlementCandidates()
		b.tryNextPlacement()
	case game.StateStart1Road, game.StateStart2Road:
		b.pending = roadCandidates(b.lastSet)
		b.tryNextPlacement()
	case game.StateFreeRoad1, game.StateFreeRoad2:
		b.pending = nil
		// Road building is never self-inflicted: the bot plays no cards.
	}
	return false
}

func (b *Bot) tryNextPlacement() {
	if len(b.pending) == 0 {
		return
	}
	loc := b.pending[0]
	b.pending = b.pending[1:]
	piece := game.PieceSettlement
	if strings.Contains(loc, "+") {
		piece = game.PieceRoad
	}
	b.send(&message.Build{Game: b.game, Piece: piece, Loc: loc})
}

// settlementCandidates lists every node of the board, derived from the hex
// list: each hex "q,r" owns the north and south corners "q,r,N"/"q,r,S".
func (b *Bot) settlementCandidates() []string {
	var out []string
	for _, h := range b.hexes {
		out = append(out, h+",N", h+",S")
	}
	return out
}

// roadCandidates lists the three edges incident to a node.
func roadCandidates(node string) []string {
	parts := strings.Split(node, ",")
	if len(parts) != 3 {
		return nil
	}
	q, err1 := strconv.Atoi(parts[0])
	r, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	var neighbors []string
	if parts[2] == "N" {
		neighbors = []string{
			nodeID(q, r-1, "S"), nodeID(q+1, r-1, "S"), nodeID(q+1, r-2, "S"),
		}
	} else {
		neighbors = []string{
			nodeID(q, r+1, "N"), nodeID(q-1, r+1, "N"), nodeID(q-1, r+2, "N"),
		}
	}
	var out []string
	for _, n := range neighbors {
		a, c := node, n
		if c < a {
			a, c = c, a
		}
		out = append(out, a+"+"+c)
	}
	return out
}

func nodeID(q, r int, side string) string {
	return strconv.Itoa(q) + "," + strconv.Itoa(r) + "," + side
}

// pickDiscard takes n resources from the hand, most plentiful first.
func pickDiscard(hand message.ResourceSet, n int) message.ResourceSet {
	var give message.ResourceSet
	for i := 0; i < n; i++ {
		best, bestCount := -1, 0
		for res, c := range hand {
			if c-give[res] > bestCount {
				best, bestCount = res, c-give[res]
			}
		}
		if best < 0 {
			break
		}
		give[best]++
	}
	return give
}
