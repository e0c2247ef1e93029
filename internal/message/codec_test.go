package message

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	line, err := Encode(m)
	require.NoError(t, err)
	got, err := Decode(line)
	require.NoError(t, err, "decoding %q", line)
	return got
}

func TestRoundTripClientMessages(t *testing.T) {
	msgs := []Message{
		&Version{Number: 2, Features: "sb,reset"},
		&ImARobot{Nick: "robo", Cookie: "secret"},
		&SetNick{Nick: "alice"},
		&NewGame{Game: "练习", Seats: 6, Target: 12, NoRobberOnDesert: true, SpecialBuilding: true},
		&JoinGame{Game: "g1"},
		&LeaveGame{Game: "g1"},
		&SitDown{Game: "g1", Seat: 3},
		&StartGame{Game: "g1"},
		&Roll{Game: "g1"},
		&Discard{Game: "g1", Give: ResourceSet{1, 0, 2, 0, 1}},
		&MoveRobber{Game: "g1", Hex: "2,-1"},
		&ChooseVictim{Game: "g1", Seat: 2},
		&Build{Game: "g1", Piece: "road", Loc: "0,0,N+0,0,S"},
		&BuyDevCard{Game: "g1"},
		&PlayDevCard{Game: "g1", Card: "plenty", Arg1: "wood", Arg2: "ore"},
		&BankTrade{Game: "g1", Give: ResourceSet{4, 0, 0, 0, 0}, Get: ResourceSet{0, 1, 0, 0, 0}},
		&TradeOffer{Game: "g1", Give: ResourceSet{1, 0, 0, 0, 0}, Get: ResourceSet{0, 0, 1, 0, 0}, To: []int{1, 3}},
		&TradeResp{Game: "g1", From: 0, Accept: true},
		&EndTurn{Game: "g1"},
		&SpecialBuild{Game: "g1"},
		&ResetRequest{Game: "g1"},
		&ResetVote{Game: "g1", Approve: false},
		&Ping{Tag: "t1"},
	}
	for _, m := range msgs {
		got := roundTrip(t, m)
		assert.Equal(t, m, got, "type %s", m.Type())
	}
}

func TestRoundTripServerMessages(t *testing.T) {
	msgs := []Message{
		&VersionAck{Number: 2, Features: "sb,reset,6p"},
		&Reject{Game: "g1", Code: "wrong_turn", Reason: "not your turn"},
		&Reject{Code: "bad_request", Reason: "handshake first"}, // no game
		&Welcome{Nick: "alice"},
		&GameMembers{Game: "g1", Members: []string{"alice", "bob"}},
		&SeatUpdate{Game: "g1", Seat: 1, State: "human", Nick: "bob"},
		&SeatUpdate{Game: "g1", Seat: 2, State: "empty"},
		&BoardLayout{Game: "g1", Hexes: "0,0:wood:8;0,1:ore:5", Ports: "0,0,N:0,-1,S:any", Robber: "0,0"},
		&GameState{Game: "g1", State: "PLAY", CurSeat: 2},
		&TurnStart{Game: "g1", Seat: 0, Turn: 17},
		&DiceResult{Game: "g1", D1: 3, D2: 4},
		&ResourceUpd{Game: "g1", Seat: 1, Hand: ResourceSet{1, 2, 3, 4, 5}, Total: 15},
		&ResourceUpd{Game: "g1", Seat: 2, Total: 4}, // masked, hand zeroed
		&DiscardReq{Game: "g1", Seat: 0, Count: 4},
		&RobberMoved{Game: "g1", Hex: "1,-2", Seat: 3},
		&StolenFrom{Game: "g1", From: 1, To: 0, Res: 2},
		&StolenFrom{Game: "g1", From: 1, To: 0, Res: -1}, // bystander copy
		&PieceBuilt{Game: "g1", Seat: 0, Piece: "settlement", Loc: "0,0,N"},
		&DevCardUpd{Game: "g1", Seat: 2, Action: "bought", Card: "?"},
		&TradeNotice{Game: "g1", From: 0, Give: ResourceSet{0, 0, 0, 1, 0}, Get: ResourceSet{1, 0, 0, 0, 0}, To: []int{2}},
		&TradeDone{Game: "g1", From: 0, To: -1, Give: ResourceSet{4, 0, 0, 0, 0}, Get: ResourceSet{0, 0, 1, 0, 0}},
		&AwardUpdate{Game: "g1", Award: "longest_road", Seat: 1, Size: 6},
		&ResetNotice{Game: "g1", Seat: 0, Status: "requested"},
		&GameOver{Game: "g1", Winner: 2, Scores: []int{4, 7, 10, 2}},
		&Pong{Tag: "t1"},
	}
	for _, m := range msgs {
		got := roundTrip(t, m)
		assert.Equal(t, m, got, "type %s", m.Type())
	}
}

func TestEncodeEmptyFieldSentinel(t *testing.T) {
	line, err := Encode(&SetNick{Nick: ""})
	require.NoError(t, err)
	assert.Equal(t, "SETNICK|\t", line)

	got, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, "", got.(*SetNick).Nick)
}

func TestEncodeRejectsReservedCharacters(t *testing.T) {
	for _, nick := range []string{"a|b", "a\tb", "a\nb", "a\rb"} {
		_, err := Encode(&SetNick{Nick: nick})
		assert.Error(t, err, "nick %q", nick)
	}
}

func TestDecodeMalformed(t *testing.T) {
	lines := []string{
		"",                      // empty
		"NOSUCH|x",              // unknown type
		"ROLL",                  // missing field
		"ROLL|g1|extra",         // trailing field
		"SITDOWN|g1|notanumber", // bad integer
		"RESETVOTE|g1|maybe",    // bad boolean
		"DISCARD|g1|1|2|3",      // short resource set
		"TURN|g1|0",             // missing turn counter
	}
	for _, line := range lines {
		m, err := Decode(line)
		require.Errorf(t, err, "line %q", line)
		assert.Nil(t, m, "line %q", line)
		assert.True(t, errors.Is(err, ErrMalformed), "line %q: %v", line, err)
	}
}

func TestDecodeTrimsLineEndings(t *testing.T) {
	got, err := Decode("ROLL|g1\r\n")
	require.NoError(t, err)
	assert.Equal(t, &Roll{Game: "g1"}, got)
}
