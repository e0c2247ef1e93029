package game

import "fmt"

// Rejection codes carried in Reject messages. Machine-checkable; the Reason
// string next to them is for display.
const (
	CodeWrongTurn  = "wrong_turn"
	CodeBadState   = "bad_state"
	CodeNotSeated  = "not_seated"
	CodeCantAfford = "cant_afford"
	CodeBadLoc     = "bad_location"
	CodeNoSupply   = "no_supply"
	CodeBadTrade   = "bad_trade"
	CodeBadRequest = "bad_request"
)

// RuleError is an illegal-action rejection: the action mutated nothing and
// only the requester hears about it.
type RuleError struct {
	Code   string
	Reason string
}

func (e *RuleError) Error() string { return e.Code + ": " + e.Reason }

func ruleErr(code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
