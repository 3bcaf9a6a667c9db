package game

import (
	"fmt"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// PlayerStatus describes what a seat can do right now, for rendering.
type PlayerStatus struct {
	Prompt           string       `json:"prompt"`
	Actions          []ActionType `json:"actions"`
	BidValue         int          `json:"bid_value"`
	IsActive         bool         `json:"is_active"`
	IsGamePlayer     bool         `json:"is_game_player"`
	PlayableCards    []cards.Card `json:"playable_cards,omitempty"`
	CanCollectStitch bool         `json:"can_collect_stitch"`
	CanSpeedUp       bool         `json:"can_speed_up"`
	CanGiveUp        bool         `json:"can_give_up"`
	CanConfirmSpeed  bool         `json:"can_confirm_speed_up"`
	CanSetGameType   bool         `json:"can_set_game_type"`
	CanSetHand       bool         `json:"can_set_hand"`
	CanSetOuvert     bool         `json:"can_set_ouvert"`
	CanSetSchneider  bool         `json:"can_set_schneider"`
	CanSetSchwarz    bool         `json:"can_set_schwarz"`
	CanStartNewGame  bool         `json:"can_start_new_game"`
}

// GetPlayerStatus collects the available actions and a prompt for the named player.
func (t *SkatTable) GetPlayerStatus(name string) (PlayerStatus, error) {
	p, err := t.player(name)
	if err != nil {
		return PlayerStatus{}, err
	}

	active := t.GetActivePlayer()
	st := PlayerStatus{
		IsActive:        active == p,
		IsGamePlayer:    t.gamePlayer == p,
		CanSetGameType:  t.CanSetGameType(name),
		CanSetHand:      t.CanSetHand(name),
		CanSetOuvert:    t.CanSetOuvert(name),
		CanSetSchneider: t.CanSetSchneider(name),
		CanSetSchwarz:   t.CanSetSchwarz(name),
		CanStartNewGame: t.CanStartNewGame(),
	}
	for _, a := range allActions {
		if t.canPerform(p, a) {
			st.Actions = append(st.Actions, a)
		}
	}
	for _, c := range p.Hand {
		if t.CanPlayCard(name, c) {
			st.PlayableCards = append(st.PlayableCards, c)
		}
	}
	st.CanCollectStitch = t.CanCollectStitch(name)
	st.CanSpeedUp = t.CanSpeedUp(name)
	st.CanGiveUp = t.CanGiveUp(name)
	st.CanConfirmSpeed = t.speedUpRequested && t.playing() && p != t.gamePlayer

	switch {
	case t.gameEnded:
		st.Prompt = t.gameValue.Description
	case t.biddingActive():
		st.Prompt, st.BidValue = t.biddingPrompt(p)
	case !t.gameStarted:
		st.BidValue = t.CurrentBidValue()
		if p == t.gamePlayer {
			st.Prompt = fmt.Sprintf("You play for %d, choose the game", st.BidValue)
		} else {
			st.Prompt = fmt.Sprintf("%s chooses the game", t.gamePlayer.Name)
		}
	case t.speedUpRequested:
		st.Prompt = fmt.Sprintf("%s claims the remaining tricks", t.gamePlayer.Name)
	case st.CanCollectStitch:
		st.Prompt = "Collect the stitch"
	case st.IsActive:
		st.Prompt = "Play a card"
	default:
		st.Prompt = fmt.Sprintf("Waiting for %s", active.Name)
	}
	return st, nil
}

func (t *SkatTable) biddingPrompt(p *Player) (string, int) {
	switch p.BidStatus {
	case StatusBid:
		if t.bidSaid {
			return "Waiting for an answer", t.CurrentBidValue()
		}
		return fmt.Sprintf("Bid %d or pass", t.NextBidValue()), t.NextBidValue()
	case StatusAccept:
		if t.bidSaid {
			return fmt.Sprintf("Hold %d or pass", t.CurrentBidValue()), t.CurrentBidValue()
		}
		return "Waiting for a bid", t.CurrentBidValue()
	case StatusPass:
		return "Passed", t.CurrentBidValue()
	default:
		return "Waiting for the bidding", t.CurrentBidValue()
	}
}

// GetActivePlayer returns who has to act next, or nil when nobody does.
func (t *SkatTable) GetActivePlayer() *Player {
	switch {
	case t.gameEnded:
		return nil
	case t.biddingActive():
		if t.bidSaid {
			return t.GetBidPlayer(StatusAccept)
		}
		return t.GetBidPlayer(StatusBid)
	case !t.gameStarted:
		return t.gamePlayer
	case t.speedUpRequested:
		return nil
	default:
		return t.currentPlayer
	}
}

// GetBidPlayer returns the first active player in seat order with the given status.
func (t *SkatTable) GetBidPlayer(status BidStatus) *Player {
	for _, p := range t.players {
		if p.BidStatus == status {
			return p
		}
	}
	return nil
}

// GetScore returns the pips the named player took. Once a round is over the Skat counts for
// the declarer of a suit or Grand game.
func (t *SkatTable) GetScore(name string) (int, error) {
	p, err := t.player(name)
	if err != nil {
		return 0, err
	}
	score := p.Points()
	if t.gameEnded && p == t.gamePlayer && p.Game.Type != contract.Null {
		score += cards.Points(t.skat)
	}
	return score, nil
}
