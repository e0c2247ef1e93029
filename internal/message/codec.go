package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// sep separates the type tag and fields on a wire line.
	sep = "|"
	// emptyTok stands in for a logically empty field so adjacent separators
	// stay unambiguous. Both sep and emptyTok are rejected inside field
	// values by Encode.
	emptyTok = "\t"
)

// ErrMalformed wraps every decode failure. Callers drop such lines (and may
// log them); a malformed line never yields a partial message.
var ErrMalformed = errors.New("malformed message")

// Encode renders m as a single wire line without the trailing newline.
// It fails only if a field value contains a reserved character.
func Encode(m Message) (string, error) {
	raw := m.fields()
	out := make([]string, 0, len(raw)+1)
	out = append(out, m.Type())
	for i, f := range raw {
		if strings.ContainsAny(f, sep+emptyTok+"\n\r") {
			return "", fmt.Errorf("encode %s: field %d contains reserved character", m.Type(), i)
		}
		if f == "" {
			f = emptyTok
		}
		out = append(out, f)
	}
	return strings.Join(out, sep), nil
}

// Decode parses a single wire line. Any failure (unknown tag, wrong field
// count, bad integer) returns an error wrapping ErrMalformed and no message.
func Decode(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	parts := strings.Split(line, sep)
	dec, ok := decoders[parts[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, parts[0])
	}
	fs := &fieldScanner{fields: parts[1:]}
	m := dec(fs)
	if fs.err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, parts[0], fs.err)
	}
	if fs.pos != len(fs.fields) {
		return nil, fmt.Errorf("%w: %s: want %d fields, got %d", ErrMalformed, parts[0], fs.pos, len(fs.fields))
	}
	return m, nil
}

// fieldScanner walks a decoded line's fields left to right, remembering the
// first error. Decoder funcs stay linear and check fs.err once at the end.
type fieldScanner struct {
	fields []string
	pos    int
	err    error
}

func (fs *fieldScanner) str() string {
	if fs.err != nil {
		return ""
	}
	if fs.pos >= len(fs.fields) {
		fs.err = fmt.Errorf("want %d+ fields, got %d", fs.pos+1, len(fs.fields))
		return ""
	}
	f := fs.fields[fs.pos]
	fs.pos++
	if f == emptyTok {
		return ""
	}
	return f
}

func (fs *fieldScanner) num() int {
	f := fs.str()
	if fs.err != nil {
		return 0
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		fs.err = fmt.Errorf("field %d: not an integer: %q", fs.pos, f)
		return 0
	}
	return n
}

func (fs *fieldScanner) boolean() bool {
	f := fs.str()
	if fs.err != nil {
		return false
	}
	switch f {
	case "1":
		return true
	case "0":
		return false
	}
	fs.err = fmt.Errorf("field %d: not a boolean: %q", fs.pos, f)
	return false
}

func (fs *fieldScanner) resSet() ResourceSet {
	var r ResourceSet
	for i := range r {
		r[i] = fs.num()
	}
	return r
}

// numList parses a comma-joined int list; the empty field is a nil list.
func (fs *fieldScanner) numList() []int {
	f := fs.str()
	if fs.err != nil || f == "" {
		return nil
	}
	parts := strings.Split(f, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			fs.err = fmt.Errorf("field %d: bad int list element %q", fs.pos, p)
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (fs *fieldScanner) strList() []string {
	f := fs.str()
	if fs.err != nil || f == "" {
		return nil
	}
	return strings.Split(f, ",")
}

// Encode-side helpers, the mirrors of the scanner methods.

func itoa(n int) string { return strconv.Itoa(n) }

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return ""
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func joinStrs(ss []string) string { return strings.Join(ss, ",") }

func appendResSet(out []string, r ResourceSet) []string {
	for _, v := range r {
		out = append(out, strconv.Itoa(v))
	}
	return out
}

// decoders maps type tags to their parse funcs. One entry per message type;
// a type missing here cannot arrive, a type missing a struct cannot leave.
var decoders = map[string]func(fs *fieldScanner) Message{
	TypeVersion:  func(fs *fieldScanner) Message { return &Version{Number: fs.num(), Features: fs.str()} },
	TypeImARobot: func(fs *fieldScanner) Message { return &ImARobot{Nick: fs.str(), Cookie: fs.str()} },
	TypeSetNick:  func(fs *fieldScanner) Message { return &SetNick{Nick: fs.str()} },
	TypeNewGame: func(fs *fieldScanner) Message {
		return &NewGame{Game: fs.str(), Seats: fs.num(), Target: fs.num(),
			NoRobberOnDesert: fs.boolean(), SpecialBuilding: fs.boolean()}
	},
	TypeJoinGame:  func(fs *fieldScanner) Message { return &JoinGame{Game: fs.str()} },
	TypeLeaveGame: func(fs *fieldScanner) Message { return &LeaveGame{Game: fs.str()} },
	TypeSitDown:   func(fs *fieldScanner) Message { return &SitDown{Game: fs.str(), Seat: fs.num()} },
	TypeStartGame: func(fs *fieldScanner) Message { return &StartGame{Game: fs.str()} },
	TypeRoll:      func(fs *fieldScanner) Message { return &Roll{Game: fs.str()} },
	TypeDiscard:   func(fs *fieldScanner) Message { return &Discard{Game: fs.str(), Give: fs.resSet()} },
	TypeMoveRobber: func(fs *fieldScanner) Message {
		return &MoveRobber{Game: fs.str(), Hex: fs.str()}
	},
	TypeChooseVictim: func(fs *fieldScanner) Message {
		return &ChooseVictim{Game: fs.str(), Seat: fs.num()}
	},
	TypeBuild: func(fs *fieldScanner) Message {
		return &Build{Game: fs.str(), Piece: fs.str(), Loc: fs.str()}
	},
	TypeBuyDevCard: func(fs *fieldScanner) Message { return &BuyDevCard{Game: fs.str()} },
	TypePlayDevCard: func(fs *fieldScanner) Message {
		return &PlayDevCard{Game: fs.str(), Card: fs.str(), Arg1: fs.str(), Arg2: fs.str()}
	},
	TypeBankTrade: func(fs *fieldScanner) Message {
		return &BankTrade{Game: fs.str(), Give: fs.resSet(), Get: fs.resSet()}
	},
	TypeTradeOffer: func(fs *fieldScanner) Message {
		return &TradeOffer{Game: fs.str(), Give: fs.resSet(), Get: fs.resSet(), To: fs.numList()}
	},
	TypeTradeResp: func(fs *fieldScanner) Message {
		return &TradeResp{Game: fs.str(), From: fs.num(), Accept: fs.boolean()}
	},
	TypeEndTurn:      func(fs *fieldScanner) Message { return &EndTurn{Game: fs.str()} },
	TypeSpecialBuild: func(fs *fieldScanner) Message { return &SpecialBuild{Game: fs.str()} },
	TypeResetRequest: func(fs *fieldScanner) Message { return &ResetRequest{Game: fs.str()} },
	TypeResetVote: func(fs *fieldScanner) Message {
		return &ResetVote{Game: fs.str(), Approve: fs.boolean()}
	},
	TypePing: func(fs *fieldScanner) Message { return &Ping{Tag: fs.str()} },

	TypeVersionAck: func(fs *fieldScanner) Message {
		return &VersionAck{Number: fs.num(), Features: fs.str()}
	},
	TypeReject: func(fs *fieldScanner) Message {
		return &Reject{Game: fs.str(), Code: fs.str(), Reason: fs.str()}
	},
	TypeWelcome: func(fs *fieldScanner) Message { return &Welcome{Nick: fs.str()} },
	TypeGameMembers: func(fs *fieldScanner) Message {
		return &GameMembers{Game: fs.str(), Members: fs.strList()}
	},
	TypeSeatUpdate: func(fs *fieldScanner) Message {
		return &SeatUpdate{Game: fs.str(), Seat: fs.num(), State: fs.str(), Nick: fs.str()}
	},
	TypeBoardLayout: func(fs *fieldScanner) Message {
		return &BoardLayout{Game: fs.str(), Hexes: fs.str(), Ports: fs.str(), Robber: fs.str()}
	},
	TypeGameState: func(fs *fieldScanner) Message {
		return &GameState{Game: fs.str(), State: fs.str(), CurSeat: fs.num()}
	},
	TypeTurnStart: func(fs *fieldScanner) Message {
		return &TurnStart{Game: fs.str(), Seat: fs.num(), Turn: fs.num()}
	},
	TypeDiceResult: func(fs *fieldScanner) Message {
		return &DiceResult{Game: fs.str(), D1: fs.num(), D2: fs.num()}
	},
	TypeResourceUpd: func(fs *fieldScanner) Message {
		return &ResourceUpd{Game: fs.str(), Seat: fs.num(), Hand: fs.resSet(), Total: fs.num()}
	},
	TypeDiscardReq: func(fs *fieldScanner) Message {
		return &DiscardReq{Game: fs.str(), Seat: fs.num(), Count: fs.num()}
	},
	TypeRobberMoved: func(fs *fieldScanner) Message {
		return &RobberMoved{Game: fs.str(), Hex: fs.str(), Seat: fs.num()}
	},
	TypeStolenFrom: func(fs *fieldScanner) Message {
		return &StolenFrom{Game: fs.str(), From: fs.num(), To: fs.num(), Res: fs.num()}
	},
	TypePieceBuilt: func(fs *fieldScanner) Message {
		return &PieceBuilt{Game: fs.str(), Seat: fs.num(), Piece: fs.str(), Loc: fs.str()}
	},
	TypeDevCardUpd: func(fs *fieldScanner) Message {
		return &DevCardUpd{Game: fs.str(), Seat: fs.num(), Action: fs.str(), Card: fs.str()}
	},
	TypeTradeNotice: func(fs *fieldScanner) Message {
		return &TradeNotice{Game: fs.str(), From: fs.num(), Give: fs.resSet(), Get: fs.resSet(), To: fs.numList()}
	},
	TypeTradeDone: func(fs *fieldScanner) Message {
		return &TradeDone{Game: fs.str(), From: fs.num(), To: fs.num(), Give: fs.resSet(), Get: fs.resSet()}
	},
	TypeAwardUpdate: func(fs *fieldScanner) Message {
		return &AwardUpdate{Game: fs.str(), Award: fs.str(), Seat: fs.num(), Size: fs.num()}
	},
	TypeResetNotice: func(fs *fieldScanner) Message {
		return &ResetNotice{Game: fs.str(), Seat: fs.num(), Status: fs.str()}
	},
	TypeGameOver: func(fs *fieldScanner) Message {
		return &GameOver{Game: fs.str(), Winner: fs.num(), Scores: fs.numList()}
	},
	TypePong: func(fs *fieldScanner) Message { return &Pong{Tag: fs.str()} },
}
