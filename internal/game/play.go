package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

const (
	tournamentWinBonus   = 50
	tournamentLossCredit = 40
	giveUpMinHand        = handSize - 1
)

func (t *SkatTable) playing() bool {
	return t.gameStarted && !t.gameEnded
}

// IsValidForStitch reports whether the card may be added to the current trick by its holder.
func (t *SkatTable) IsValidForStitch(name string, c cards.Card) bool {
	p, err := t.player(name)
	if err != nil || !cards.Contains(p.Hand, c) {
		return false
	}
	switch len(t.stitch) {
	case 0:
		return true
	case minPlayers:
		return false
	default:
		return contract.CanFollow(t.stitch[0], c, p.Hand, t.Game())
	}
}

// CanPlayCard reports whether it is the named player's turn and the card is legal.
func (t *SkatTable) CanPlayCard(name string, c cards.Card) bool {
	if !t.playing() || t.speedUpRequested || t.currentPlayer == nil || t.currentPlayer.Name != name {
		return false
	}
	return len(t.stitch) < minPlayers && t.IsValidForStitch(name, c)
}

// PlayCard puts the card on the trick. The third card decides the trick and hands the turn
// to its winner, who then collects it.
func (t *SkatTable) PlayCard(name string, c cards.Card) error {
	if !t.CanPlayCard(name, c) {
		if _, err := t.player(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: play %s by %s", ErrActionNotAllowed, c, name)
	}
	p := t.currentPlayer
	p.Hand, _ = cards.Remove(p.Hand, c)
	t.stitch = append(t.stitch, c)
	t.stitchPlayers = append(t.stitchPlayers, p)
	t.currentHistory.Played = append(t.currentHistory.Played, PlayedCard{Player: name, Card: c})

	if len(t.stitch) < minPlayers {
		t.currentPlayer = t.nextSeat(p)
		return nil
	}
	winner := t.stitchPlayers[contract.TrickWinner(t.stitch, t.Game())]
	t.currentPlayer = winner

	t.logger.Debug("stitch decided",
		zap.String("winner", winner.Name),
		zap.Stringers("cards", t.stitch),
	)
	return nil
}

// CanCollectStitch reports whether the named player won the full trick on the table.
func (t *SkatTable) CanCollectStitch(name string) bool {
	return t.playing() && len(t.stitch) == minPlayers &&
		t.currentPlayer != nil && t.currentPlayer.Name == name
}

// CollectStitch moves the decided trick into the winner's stitches. The round is scored once
// the declarer has no cards left.
func (t *SkatTable) CollectStitch(name string) error {
	if !t.CanCollectStitch(name) {
		if _, err := t.player(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: collect stitch by %s", ErrActionNotAllowed, name)
	}
	winner := t.currentPlayer
	winner.Stitches = append(winner.Stitches, t.stitch...)
	t.lastStitch = t.stitch
	t.stitch = nil
	t.stitchPlayers = nil

	if len(t.gamePlayer.Hand) == 0 {
		t.endGame(false)
	}
	return nil
}

// CanSpeedUp reports whether the declarer may claim the remaining tricks.
func (t *SkatTable) CanSpeedUp(name string) bool {
	p, err := t.player(name)
	if err != nil {
		return false
	}
	return t.playing() && p == t.gamePlayer && len(p.Hand) > 0 &&
		len(t.stitch) == 0 && !t.speedUpRequested
}

// SpeedUp records the declarer's claim. The opponents answer with SpeedUpConfirmed or
// SpeedUpRejected; no card may be played meanwhile.
func (t *SkatTable) SpeedUp(name string) error {
	if !t.CanSpeedUp(name) {
		if _, err := t.player(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: speed up by %s", ErrActionNotAllowed, name)
	}
	t.speedUpRequested = true
	t.logger.Debug("speed up requested", zap.String("player", name))
	return nil
}

// SpeedUpConfirmed awards every card still in hand to the declarer (to the first opponent in
// Null) and scores the round.
func (t *SkatTable) SpeedUpConfirmed() error {
	if !t.playing() || !t.speedUpRequested {
		return fmt.Errorf("%w: no speed up pending", ErrActionNotAllowed)
	}
	receiver := t.gamePlayer
	if t.Game().Type == contract.Null {
		receiver = t.opponents()[0]
	}
	for _, p := range t.players {
		receiver.Stitches = append(receiver.Stitches, p.Hand...)
		p.Hand = nil
	}
	t.currentHistory.SpeedUp = true
	t.endGame(true)
	return nil
}

// SpeedUpRejected withdraws a pending speed-up request and play continues.
func (t *SkatTable) SpeedUpRejected() error {
	if !t.playing() || !t.speedUpRequested {
		return fmt.Errorf("%w: no speed up pending", ErrActionNotAllowed)
	}
	t.speedUpRequested = false
	return nil
}

// CanGiveUp reports whether the declarer may concede. Only possible on turn before the
// first trick was completed.
func (t *SkatTable) CanGiveUp(name string) bool {
	p, err := t.player(name)
	if err != nil {
		return false
	}
	return t.playing() && p == t.gamePlayer && p == t.currentPlayer &&
		len(p.Hand) >= giveUpMinHand && !t.speedUpRequested
}

// GiveUp concedes the round. All cards go to the first opponent, in Null to the declarer.
func (t *SkatTable) GiveUp(name string) error {
	if !t.CanGiveUp(name) {
		if _, err := t.player(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: give up by %s", ErrActionNotAllowed, name)
	}
	receiver := t.opponents()[0]
	if t.Game().Type == contract.Null {
		receiver = t.gamePlayer
	}

	var all []cards.Card
	for _, p := range t.players {
		all = append(all, p.Hand...)
		all = append(all, p.Stitches...)
		p.Hand = nil
		p.Stitches = nil
	}
	all = append(all, t.skat...)
	all = append(all, t.stitch...)
	receiver.Stitches = all
	t.skat = nil
	t.stitch = nil
	t.stitchPlayers = nil

	t.currentHistory.GaveUp = true
	t.endGame(true)
	return nil
}

// endGame scores the round and books it into the player scores and the history.
func (t *SkatTable) endGame(gaveUp bool) {
	gp := t.gamePlayer
	g := gp.Game
	v := g.GameValue(t.matadorsJackStraight, gp.Stitches, t.skat, t.CurrentBidValue(), gaveUp)

	t.gameValue = v
	t.gameEnded = true
	t.currentPlayer = nil
	t.speedUpRequested = false

	gp.Score += v.Score
	gp.Played++
	if v.IsWinner {
		gp.Won++
	} else {
		gp.Lost++
	}
	t.updateTournamentScore(v)

	h := t.currentHistory
	h.GameValue = v
	h.Tournament = make(map[string]int, len(t.players))
	for _, p := range t.players {
		h.Tournament[p.Name] = p.TournamentScore
	}
	h.FinishedAt = time.Now().UTC()
	t.skatResult.Append(h)

	t.logger.Info("round finished",
		zap.Int("round", t.round),
		zap.String("declarer", gp.Name),
		zap.Stringer("game", g),
		zap.Int("score", v.Score),
		zap.Bool("won", v.IsWinner),
		zap.String("description", v.Description),
	)
}

// TournamentDeltas returns the tournament list points a round adds per player: the declarer
// gets the round score plus 50 for a win or minus 50 for a loss; on a loss every other active
// player gets 40. A zero score changes nothing.
func TournamentDeltas(declarer string, players []string, v contract.Value) map[string]int {
	deltas := make(map[string]int, len(players))
	if v.Score == 0 {
		return deltas
	}
	if v.IsWinner {
		deltas[declarer] = v.Score + tournamentWinBonus
		return deltas
	}
	deltas[declarer] = v.Score - tournamentWinBonus
	for _, name := range players {
		if name != declarer {
			deltas[name] = tournamentLossCredit
		}
	}
	return deltas
}

func (t *SkatTable) updateTournamentScore(v contract.Value) {
	deltas := TournamentDeltas(t.gamePlayer.Name, names(t.players), v)
	for _, p := range t.players {
		p.TournamentScore += deltas[p.Name]
	}
}

func names(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}
