package game

import (
	"fmt"

	"go.uber.org/zap"
)

// RotateSeats computes the seating of the next round. Middlehand deals out as Forehand,
// Rearhand moves to Middlehand and Forehand moves to Rearhand. With a fourth participant the
// old Forehand sits out and the one sitting out joins as Rearhand. Inputs are not modified.
func RotateSeats(players []*Player, inactive *Player) ([]*Player, *Player) {
	if len(players) != minPlayers {
		return append([]*Player(nil), players...), inactive
	}
	if inactive == nil {
		return []*Player{players[Middlehand], players[Rearhand], players[Forehand]}, nil
	}
	return []*Player{players[Middlehand], players[Rearhand], inactive}, players[Forehand]
}

// CanStartNewGame reports whether the current round is over.
func (t *SkatTable) CanStartNewGame() bool {
	return t.gameEnded
}

// StartNewRound rotates the seats and deals the next round. A failed deal leaves the
// finished round in place.
func (t *SkatTable) StartNewRound() error {
	if !t.CanStartNewGame() {
		return fmt.Errorf("%w: round %d still running", ErrActionNotAllowed, t.round)
	}
	hands, skat, err := t.drawDeal()
	if err != nil {
		return err
	}
	t.players, t.inactivePlayer = RotateSeats(t.players, t.inactivePlayer)
	t.assignSeats()
	t.deal(hands, skat)

	fields := []zap.Field{
		zap.Int("round", t.round),
		zap.String("forehand", t.players[Forehand].Name),
	}
	if t.inactivePlayer != nil {
		fields = append(fields, zap.String("inactive", t.inactivePlayer.Name))
	}
	t.logger.Info("new round", fields...)
	return nil
}
