package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// selecting reports whether p is the declarer choosing the contract.
func (t *SkatTable) selecting(p *Player) bool {
	return t.gamePlayer != nil && p == t.gamePlayer && !t.gameStarted && !t.gameEnded
}

// CanSetGameType reports whether the named player may change their game selection. Before
// the game starts every active player may pick a sort order; the declarer's pick is the contract.
func (t *SkatTable) CanSetGameType(name string) bool {
	_, err := t.player(name)
	return err == nil && !t.gameStarted && !t.gameEnded
}

// SetGameType changes the game type of the named player, keeping the options that stay legal.
func (t *SkatTable) SetGameType(name string, gameType contract.GameType, trump cards.Suit) error {
	p, err := t.player(name)
	if err != nil {
		return err
	}
	if !t.CanSetGameType(name) {
		return fmt.Errorf("%w: set game by %s", ErrActionNotAllowed, name)
	}
	switch gameType {
	case contract.Grand, contract.Null:
	case contract.Color:
		if trump != cards.NoSuit && !trump.Valid() {
			return fmt.Errorf("%w: trump %d", ErrInvalidGame, int(trump))
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidGame, gameType)
	}

	old := p.Game
	g := contract.NewGame(gameType, trump)
	if old.Option.Has(contract.Hand) {
		g = g.WithOption(contract.Hand)
	}
	if gameType != contract.Null {
		g = g.WithOption(old.Option & (contract.Schneider | contract.Schwarz))
	}
	if old.Option.Has(contract.Ouvert) && (gameType == contract.Null || !t.skatTaken) {
		g = withOuvert(g)
	}
	p.setGame(g)

	t.logger.Debug("game selected",
		zap.String("player", name),
		zap.Stringer("game", g),
	)
	return nil
}

// withOuvert switches Ouvert on. Outside Null an open game must also be Hand, Schneider and Schwarz.
func withOuvert(g contract.Game) contract.Game {
	if g.Type == contract.Null {
		return g.WithOption(contract.Ouvert)
	}
	return g.WithOption(contract.Ouvert | contract.Hand | contract.Schneider | contract.Schwarz)
}

func (t *SkatTable) canSetOption(p *Player, opt contract.GameOption, enabled bool) bool {
	if !t.selecting(p) {
		return false
	}
	g := p.Game
	if g.Option.Has(opt) == enabled {
		return false
	}
	null := g.Type == contract.Null

	switch opt {
	case contract.Hand:
		return !enabled || !t.skatTaken
	case contract.Ouvert:
		return !t.skatTaken
	case contract.Schneider, contract.Schwarz:
		if null || t.skatTaken || !g.Option.Has(contract.Hand) {
			return false
		}
		return enabled || !g.Option.Has(contract.Ouvert)
	default:
		return false
	}
}

func (t *SkatTable) applyOption(p *Player, opt contract.GameOption, enabled bool) {
	g := p.Game
	switch {
	case opt == contract.Hand && enabled:
		g = g.WithOption(contract.Hand)
	case opt == contract.Hand:
		g = g.WithoutOption(contract.Hand | contract.Schneider | contract.Schwarz)
		if g.Type != contract.Null {
			g = g.WithoutOption(contract.Ouvert)
		}
	case opt == contract.Ouvert && enabled:
		g = withOuvert(g)
	case opt == contract.Ouvert:
		g = g.WithoutOption(contract.Ouvert)
	case opt == contract.Schneider && enabled:
		g = g.WithOption(contract.Schneider)
	case opt == contract.Schneider:
		g = g.WithoutOption(contract.Schneider | contract.Schwarz)
	case opt == contract.Schwarz && enabled:
		g = g.WithOption(contract.Schwarz | contract.Schneider)
	case opt == contract.Schwarz:
		g = g.WithoutOption(contract.Schwarz)
	}
	p.setGame(g)
}

func (t *SkatTable) canSetOptionByName(name string, opt contract.GameOption) bool {
	p, err := t.player(name)
	if err != nil {
		return false
	}
	return t.canSetOption(p, opt, !p.Game.Option.Has(opt))
}

// CanSetHand reports whether the declarer may toggle Hand.
func (t *SkatTable) CanSetHand(name string) bool { return t.canSetOptionByName(name, contract.Hand) }

// CanSetOuvert reports whether the declarer may toggle Ouvert.
func (t *SkatTable) CanSetOuvert(name string) bool {
	return t.canSetOptionByName(name, contract.Ouvert)
}

// CanSetSchneider reports whether the declarer may toggle Schneider.
func (t *SkatTable) CanSetSchneider(name string) bool {
	return t.canSetOptionByName(name, contract.Schneider)
}

// CanSetSchwarz reports whether the declarer may toggle Schwarz.
func (t *SkatTable) CanSetSchwarz(name string) bool {
	return t.canSetOptionByName(name, contract.Schwarz)
}

// SetOption switches a single option of the declarer's game on or off.
func (t *SkatTable) SetOption(name string, opt contract.GameOption, enabled bool) error {
	p, err := t.player(name)
	if err != nil {
		return err
	}
	if !t.canSetOption(p, opt, enabled) {
		return fmt.Errorf("%w: set %s=%t by %s", ErrActionNotAllowed, opt, enabled, name)
	}
	t.applyOption(p, opt, enabled)
	return nil
}

func (t *SkatTable) takeSkat(p *Player) {
	p.Hand = append(p.Hand, t.skat...)
	p.sortHand()
	t.skat = nil
	t.skatTaken = true
}

// CanPickupSkat reports whether the declarer may move the card between hand and Skat.
func (t *SkatTable) CanPickupSkat(name string, c cards.Card) bool {
	p, err := t.player(name)
	if err != nil {
		return false
	}
	if !t.selecting(p) || !t.skatTaken {
		return false
	}
	if cards.Contains(t.skat, c) {
		return true
	}
	return cards.Contains(p.Hand, c) && len(t.skat) < skatSize
}

// PickupSkat moves a card from the Skat into the hand, or from the hand into the Skat.
func (t *SkatTable) PickupSkat(name string, c cards.Card) error {
	if !t.CanPickupSkat(name, c) {
		if _, err := t.player(name); err != nil {
			return err
		}
		return fmt.Errorf("%w: move %s by %s", ErrActionNotAllowed, c, name)
	}
	p := t.gamePlayer
	if rest, ok := cards.Remove(t.skat, c); ok {
		t.skat = rest
		p.Hand = append(p.Hand, c)
		p.sortHand()
		return nil
	}
	p.Hand, _ = cards.Remove(p.Hand, c)
	t.skat = append(t.skat, c)
	return nil
}

func (t *SkatTable) canStartGame(p *Player) bool {
	if !t.selecting(p) || len(t.skat) != skatSize {
		return false
	}
	g := p.Game
	if g.Type == contract.Color && !g.HasTrump() {
		return false
	}
	return !(g.Option.Has(contract.Hand) && t.skatTaken)
}

// startGame fixes the contract, shares it as sort order with everyone and opens play.
func (t *SkatTable) startGame(p *Player) {
	g := p.Game
	t.matadorsJackStraight = g.MatadorsJackStraight(p.Hand, t.skat)
	for _, other := range t.players {
		other.setGame(g)
	}
	t.gameStarted = true
	t.currentPlayer = t.players[Forehand]

	h := t.currentHistory
	h.Game = g
	h.Matadors = t.matadorsJackStraight
	h.Discarded = append([]cards.Card(nil), t.skat...)

	t.logger.Debug("game started",
		zap.String("player", p.Name),
		zap.Stringer("game", g),
		zap.Stringer("matadors", t.matadorsJackStraight),
	)
}
