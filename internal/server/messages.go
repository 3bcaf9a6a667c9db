package server

import (
	"encoding/json"

	"github.com/skatclub/skat-server-go/internal/game"
	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
	"github.com/skatclub/skat-server-go/internal/tournament"
)

// Message types understood on the table socket.
const (
	MsgCreateTable    = "create_table"
	MsgJoinTable      = "join_table"
	MsgAction         = "action"
	MsgSetGame        = "set_game"
	MsgSetOption      = "set_option"
	MsgPlayCard       = "play_card"
	MsgPickupSkat     = "pickup_skat"
	MsgCollectStitch  = "collect_stitch"
	MsgSpeedUp        = "speed_up"
	MsgSpeedUpConfirm = "speed_up_confirm"
	MsgSpeedUpReject  = "speed_up_reject"
	MsgGiveUp         = "give_up"
	MsgNewRound       = "new_round"
	MsgState          = "state"
	MsgStandings      = "standings"

	MsgTableView = "table_view"
	MsgError     = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	TableID string          `json:"table_id,omitempty"`
	Player  string          `json:"player,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// commandData carries the arguments of all client messages.
type commandData struct {
	Players []string `json:"players,omitempty"`
	Action  string   `json:"action,omitempty"`
	Game    string   `json:"game,omitempty"`
	Trump   string   `json:"trump,omitempty"`
	Option  string   `json:"option,omitempty"`
	Enabled bool     `json:"enabled,omitempty"`
	Card    *int     `json:"card,omitempty"`
}

// ErrorData is the payload of an error reply.
type ErrorData struct {
	Request string `json:"request"`
	Message string `json:"message"`
}

// PlayerView is the public part of a seat.
type PlayerView struct {
	Name            string `json:"name"`
	Position        string `json:"position"`
	BidStatus       string `json:"bid_status"`
	Cards           int    `json:"cards"`
	Stitches        int    `json:"stitches"`
	Score           int    `json:"score"`
	TournamentScore int    `json:"tournament_score"`
	Played          int    `json:"played"`
	Won             int    `json:"won"`
	Lost            int    `json:"lost"`
}

// TableView is what one player may see of a table. Only the viewer's own hand is included,
// plus the declarer's hand in an Ouvert game.
type TableView struct {
	TableID          string            `json:"table_id"`
	Viewer           string            `json:"viewer"`
	Round            int               `json:"round"`
	Players          []PlayerView      `json:"players"`
	Inactive         string            `json:"inactive,omitempty"`
	Hand             []cards.Card      `json:"hand"`
	OpenHand         []cards.Card      `json:"open_hand,omitempty"`
	Skat             []cards.Card      `json:"skat,omitempty"`
	Stitch           []cards.Card      `json:"stitch"`
	LastStitch       []cards.Card      `json:"last_stitch,omitempty"`
	GamePlayer       string            `json:"game_player,omitempty"`
	CurrentPlayer    string            `json:"current_player,omitempty"`
	ActivePlayer     string            `json:"active_player,omitempty"`
	Game             string            `json:"game,omitempty"`
	BidValue         int               `json:"bid_value"`
	GameStarted      bool              `json:"game_started"`
	GameEnded        bool              `json:"game_ended"`
	SkatTaken        bool              `json:"skat_taken"`
	SpeedUpRequested bool              `json:"speed_up_requested"`
	Result           *contract.Value   `json:"result,omitempty"`
	Status           game.PlayerStatus `json:"status"`
}

// StandingsView is the reply to a standings request.
type StandingsView struct {
	TournamentID string                      `json:"tournament_id"`
	Name         string                      `json:"name"`
	State        string                      `json:"state"`
	Players      []tournament.PlayerSnapshot `json:"players"`
}

func nameOf(p *game.Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func playerView(p *game.Player) PlayerView {
	return PlayerView{
		Name:            p.Name,
		Position:        p.Position.String(),
		BidStatus:       p.BidStatus.String(),
		Cards:           len(p.Hand),
		Stitches:        len(p.Stitches),
		Score:           p.Score,
		TournamentScore: p.TournamentScore,
		Played:          p.Played,
		Won:             p.Won,
		Lost:            p.Lost,
	}
}

// buildView renders the table for one participant.
func buildView(tableID string, t *game.SkatTable, viewer string) (TableView, error) {
	me, ok := t.Player(viewer)
	if !ok {
		return TableView{}, game.ErrUnknownPlayer
	}

	v := TableView{
		TableID:          tableID,
		Viewer:           viewer,
		Round:            t.Round(),
		Hand:             append([]cards.Card(nil), me.Hand...),
		Stitch:           t.Stitch(),
		LastStitch:       t.LastStitch(),
		GamePlayer:       nameOf(t.GamePlayer()),
		CurrentPlayer:    nameOf(t.CurrentPlayer()),
		ActivePlayer:     nameOf(t.GetActivePlayer()),
		BidValue:         t.CurrentBidValue(),
		GameStarted:      t.GameStarted(),
		GameEnded:        t.GameEnded(),
		SkatTaken:        t.SkatTaken(),
		SpeedUpRequested: t.SpeedUpRequested(),
	}
	for _, p := range t.Players() {
		v.Players = append(v.Players, playerView(p))
	}
	if inactive := t.InactivePlayer(); inactive != nil {
		v.Inactive = inactive.Name
	}

	gp := t.GamePlayer()
	if gp != nil && t.GameStarted() {
		v.Game = t.Game().String()
		if t.Game().Option.Has(contract.Ouvert) && gp != me {
			v.OpenHand = append([]cards.Card(nil), gp.Hand...)
		}
	}
	switch {
	case t.GameEnded():
		v.Skat = t.Skat()
		result := t.GameValue()
		v.Result = &result
	case gp == me && t.SkatTaken() && !t.GameStarted():
		v.Skat = t.Skat()
	}

	status, err := t.GetPlayerStatus(viewer)
	if err != nil {
		// sitting out this round
		status = game.PlayerStatus{
			Prompt:          "Sitting out",
			CanStartNewGame: t.CanStartNewGame(),
		}
	}
	v.Status = status
	return v, nil
}

func standingsView(t *tournament.Tournament) StandingsView {
	snap := t.Snapshot()
	return StandingsView{
		TournamentID: snap.ID,
		Name:         snap.Name,
		State:        snap.State.String(),
		Players:      t.Standings(),
	}
}
