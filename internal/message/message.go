// Package message defines the wire protocol: one message per line, a type
// tag followed by pipe-separated fields. The set of message types is closed;
// every type is a struct here and nothing else goes on the wire.
package message

// Message is implemented by every wire message type.
type Message interface {
	// Type returns the wire type tag, the first token of the encoded line.
	Type() string
	// fields returns the raw field values in wire order, before the
	// empty-field sentinel is applied.
	fields() []string
}

// Wire order for resource counts: clay, ore, sheep, wheat, wood.
const NumResources = 5

// ResourceSet is a per-resource count in wire order. Negative counts never
// appear in valid traffic but are representable so the rules engine can use
// the same type for deltas.
type ResourceSet [NumResources]int

// Total returns the summed count across all resources.
func (r ResourceSet) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// Type tags. Client-to-server and server-to-client tags share one namespace
// so the decoder stays a single table.
const (
	TypeVersion      = "VERSION"
	TypeImARobot     = "IMAROBOT"
	TypeSetNick      = "SETNICK"
	TypeNewGame      = "NEWGAME"
	TypeJoinGame     = "JOIN"
	TypeLeaveGame    = "LEAVE"
	TypeSitDown      = "SITDOWN"
	TypeStartGame    = "START"
	TypeRoll         = "ROLL"
	TypeDiscard      = "DISCARD"
	TypeMoveRobber   = "MOVEROBBER"
	TypeChooseVictim = "CHOOSEVICTIM"
	TypeBuild        = "BUILD"
	TypeBuyDevCard   = "BUYDEV"
	TypePlayDevCard  = "PLAYDEV"
	TypeBankTrade    = "BANKTRADE"
	TypeTradeOffer   = "OFFER"
	TypeTradeResp    = "TRADERESP"
	TypeEndTurn      = "ENDTURN"
	TypeSpecialBuild = "SPECIALBUILD"
	TypeResetRequest = "RESETREQ"
	TypeResetVote    = "RESETVOTE"
	TypePing         = "PING"

	TypeVersionAck  = "VERSIONACK"
	TypeReject      = "REJECT"
	TypeWelcome     = "WELCOME"
	TypeGameMembers = "MEMBERS"
	TypeSeatUpdate  = "SEAT"
	TypeBoardLayout = "BOARD"
	TypeGameState   = "STATE"
	TypeTurnStart   = "TURN"
	TypeDiceResult  = "DICE"
	TypeResourceUpd = "RESOURCES"
	TypeDiscardReq  = "DISCARDREQ"
	TypeRobberMoved = "ROBBER"
	TypeStolenFrom  = "STOLE"
	TypePieceBuilt  = "BUILT"
	TypeDevCardUpd  = "DEVCARD"
	TypeTradeNotice = "OFFERNOTICE"
	TypeTradeDone   = "TRADEDONE"
	TypeAwardUpdate = "AWARD"
	TypeResetNotice = "RESETNOTE"
	TypeGameOver    = "GAMEOVER"
	TypePong        = "PONG"
)
