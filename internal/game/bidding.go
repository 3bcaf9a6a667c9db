package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// ActionType is a bidding or game selection step.
type ActionType int

const (
	ActionBid ActionType = iota
	ActionPassBid
	ActionHoldBid
	ActionPassHold
	ActionTakeSkat
	ActionStartGame
	ActionPlayHand
	ActionDoNotPlayHand
)

var actionNames = map[ActionType]string{
	ActionBid:           "BID",
	ActionPassBid:       "PASS_BID",
	ActionHoldBid:       "HOLD_BID",
	ActionPassHold:      "PASS_HOLD",
	ActionTakeSkat:      "TAKE_SKAT",
	ActionStartGame:     "START_GAME",
	ActionPlayHand:      "PLAY_HAND",
	ActionDoNotPlayHand: "DO_NOT_PLAY_HAND",
}

var allActions = []ActionType{
	ActionBid, ActionPassBid, ActionHoldBid, ActionPassHold,
	ActionTakeSkat, ActionStartGame, ActionPlayHand, ActionDoNotPlayHand,
}

func (a ActionType) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(a))
}

// ParseActionType is the inverse of ActionType.String.
func ParseActionType(s string) (ActionType, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText encodes the action by name.
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *ActionType) UnmarshalText(text []byte) error {
	parsed, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (t *SkatTable) biddingActive() bool {
	return t.gamePlayer == nil && !t.gameEnded
}

// CanPerformPlayerAction reports whether the named player may take the action now.
func (t *SkatTable) CanPerformPlayerAction(name string, action ActionType) bool {
	p, err := t.player(name)
	if err != nil {
		return false
	}
	return t.canPerform(p, action)
}

func (t *SkatTable) canPerform(p *Player, action ActionType) bool {
	switch action {
	case ActionBid:
		return t.biddingActive() && p.BidStatus == StatusBid && !t.bidSaid &&
			t.bidValueIndex+1 < len(t.bidValues)
	case ActionPassBid:
		return t.biddingActive() && p.BidStatus == StatusBid && !t.bidSaid
	case ActionHoldBid, ActionPassHold:
		return t.biddingActive() && p.BidStatus == StatusAccept && t.bidSaid
	case ActionTakeSkat:
		return t.selecting(p) && !t.skatTaken && !p.Game.Option.Has(contract.Hand)
	case ActionStartGame:
		return t.canStartGame(p)
	case ActionPlayHand:
		return t.canSetOption(p, contract.Hand, true)
	case ActionDoNotPlayHand:
		return t.canSetOption(p, contract.Hand, false)
	default:
		return false
	}
}

// PerformPlayerAction executes a bidding or selection step for the named player.
func (t *SkatTable) PerformPlayerAction(name string, action ActionType) error {
	p, err := t.player(name)
	if err != nil {
		return err
	}
	if !t.canPerform(p, action) {
		return fmt.Errorf("%w: %s by %s", ErrActionNotAllowed, action, name)
	}

	t.logger.Debug("player action",
		zap.String("player", name),
		zap.Stringer("action", action),
		zap.Int("bid_value", t.CurrentBidValue()),
	)

	switch action {
	case ActionBid:
		t.bid(p)
	case ActionPassBid:
		t.passBid(p)
	case ActionHoldBid:
		t.bidSaid = false
	case ActionPassHold:
		t.passHold(p)
	case ActionTakeSkat:
		t.takeSkat(p)
	case ActionStartGame:
		t.startGame(p)
	case ActionPlayHand:
		t.applyOption(p, contract.Hand, true)
	case ActionDoNotPlayHand:
		t.applyOption(p, contract.Hand, false)
	}
	return nil
}

func (t *SkatTable) bid(p *Player) {
	t.bidValueIndex++
	if t.countPassed() == len(t.players)-1 {
		t.setGamePlayer(p)
		return
	}
	t.bidSaid = true
}

func (t *SkatTable) passBid(p *Player) {
	p.BidStatus = StatusPass
	t.bidSaid = false
	if rear := t.players[Rearhand]; rear.BidStatus == StatusWait {
		rear.BidStatus = StatusBid
	}
	t.resolvePasses()
}

func (t *SkatTable) passHold(p *Player) {
	p.BidStatus = StatusPass
	t.bidSaid = false
	// Forehand dropped out against Middlehand: Middlehand now listens to Rearhand.
	if rear := t.players[Rearhand]; rear.BidStatus == StatusWait {
		if bidder := t.GetBidPlayer(StatusBid); bidder != nil {
			bidder.BidStatus = StatusAccept
		}
		rear.BidStatus = StatusBid
	}
	t.resolvePasses()
}

func (t *SkatTable) countPassed() int {
	n := 0
	for _, p := range t.players {
		if p.BidStatus == StatusPass {
			n++
		}
	}
	return n
}

func (t *SkatTable) resolvePasses() {
	switch t.countPassed() {
	case len(t.players):
		t.allPassed()
	case len(t.players) - 1:
		var survivor *Player
		for _, p := range t.players {
			if p.BidStatus != StatusPass {
				survivor = p
			}
		}
		if survivor.Position == Forehand && t.bidValueIndex < 0 {
			// Nobody said a value: Forehand has to open with the lowest bid to play.
			survivor.BidStatus = StatusBid
			return
		}
		t.setGamePlayer(survivor)
	}
}

func (t *SkatTable) setGamePlayer(p *Player) {
	t.gamePlayer = p
	t.bidSaid = false
	t.currentPlayer = nil
	t.currentHistory.GamePlayer = p.Name
	t.currentHistory.BidValue = t.CurrentBidValue()

	t.logger.Debug("bidding won",
		zap.String("player", p.Name),
		zap.Int("bid_value", t.CurrentBidValue()),
	)
}

// allPassed ends the round without a game. The first seat is recorded as nominal declarer.
func (t *SkatTable) allPassed() {
	t.gamePlayer = t.players[Forehand]
	t.bidSaid = false
	t.gameEnded = true
	t.gameValue = contract.Value{Description: "all players passed"}
	for _, p := range t.players {
		p.Hand = nil
		p.Stitches = nil
	}
	t.skat = nil

	h := t.currentHistory
	h.GamePlayer = t.gamePlayer.Name
	h.AllPassed = true
	h.GameValue = t.gameValue
	h.FinishedAt = time.Now().UTC()
	t.skatResult.Append(h)

	t.logger.Info("all players passed", zap.Int("round", t.round))
}
