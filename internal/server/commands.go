package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skatclub/skat-server-go/internal/game"
	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

var errNoCard = errors.New("card is required")

type command func(t *game.SkatTable) error

func decodeData(msg Message) (commandData, error) {
	var data commandData
	if len(msg.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return data, fmt.Errorf("invalid data for %s: %w", msg.Type, err)
	}
	return data, nil
}

func (d commandData) card() (cards.Card, error) {
	if d.Card == nil {
		return 0, errNoCard
	}
	return cards.New(*d.Card)
}

// parseCommand turns a table message into an engine call on behalf of player.
func parseCommand(msg Message, player string) (command, error) {
	data, err := decodeData(msg)
	if err != nil {
		return nil, err
	}

	switch msg.Type {
	case MsgAction:
		action, err := game.ParseActionType(data.Action)
		if err != nil {
			return nil, err
		}
		return func(t *game.SkatTable) error { return t.PerformPlayerAction(player, action) }, nil

	case MsgSetGame:
		gameType, err := contract.ParseGameType(data.Game)
		if err != nil {
			return nil, err
		}
		trump, err := cards.ParseSuit(data.Trump)
		if err != nil {
			return nil, err
		}
		return func(t *game.SkatTable) error { return t.SetGameType(player, gameType, trump) }, nil

	case MsgSetOption:
		opt, err := contract.ParseGameOption(data.Option)
		if err != nil {
			return nil, err
		}
		return func(t *game.SkatTable) error { return t.SetOption(player, opt, data.Enabled) }, nil

	case MsgPlayCard:
		c, err := data.card()
		if err != nil {
			return nil, err
		}
		return func(t *game.SkatTable) error { return t.PlayCard(player, c) }, nil

	case MsgPickupSkat:
		c, err := data.card()
		if err != nil {
			return nil, err
		}
		return func(t *game.SkatTable) error { return t.PickupSkat(player, c) }, nil

	case MsgCollectStitch:
		return func(t *game.SkatTable) error { return t.CollectStitch(player) }, nil

	case MsgSpeedUp:
		return func(t *game.SkatTable) error { return t.SpeedUp(player) }, nil

	case MsgSpeedUpConfirm, MsgSpeedUpReject:
		confirm := msg.Type == MsgSpeedUpConfirm
		return func(t *game.SkatTable) error {
			if err := checkOpponent(t, player); err != nil {
				return err
			}
			if confirm {
				return t.SpeedUpConfirmed()
			}
			return t.SpeedUpRejected()
		}, nil

	case MsgGiveUp:
		return func(t *game.SkatTable) error { return t.GiveUp(player) }, nil

	case MsgNewRound:
		return func(t *game.SkatTable) error {
			if _, ok := t.Player(player); !ok {
				return fmt.Errorf("%w: %q", game.ErrUnknownPlayer, player)
			}
			return t.StartNewRound()
		}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// checkOpponent allows only active players other than the declarer to answer a speed-up.
func checkOpponent(t *game.SkatTable, player string) error {
	if _, err := t.GetPlayerStatus(player); err != nil {
		return err
	}
	if gp := t.GamePlayer(); gp != nil && gp.Name == player {
		return fmt.Errorf("%w: the declarer cannot answer a speed up", game.ErrActionNotAllowed)
	}
	return nil
}
