package view

import (
	"fmt"

	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/state"
)

// SeatView is one side of the table.
type SeatView struct {
	Position game.Position `json:"position"`
	Seat     game.Seat     `json:"seat"`
	Name     string        `json:"name,omitempty"`
	HandSize int           `json:"handSize"`
	Played   *cards.Face   `json:"played,omitempty"`
	Dealer   bool          `json:"dealer"`
	Turn     bool          `json:"turn"`
	Alone    bool          `json:"alone"`
}

// Scoreboard is kept from the local team's point of view: index 0 is us.
type Scoreboard struct {
	Dealing bool   `json:"dealing"`
	MyTurn  bool   `json:"myTurn"`
	Trump   string `json:"trump,omitempty"`
	Tricks  [2]int `json:"tricks"`
	Score   [2]int `json:"score"`
}

// Table is everything drawn for one frame.
type Table struct {
	Phase      string       `json:"phase"`
	LocalSeat  game.Seat    `json:"localSeat"`
	Seats      [4]SeatView  `json:"seats"`
	Upcard     *cards.Face  `json:"upcard,omitempty"`
	Hand       []cards.Face `json:"hand"`
	BidOptions []string     `json:"bidOptions,omitempty"`
	Scoreboard Scoreboard   `json:"scoreboard"`
	Chat       []string     `json:"chat"`
}

func face(c *cards.Card) *cards.Face {
	if c == nil {
		return nil
	}
	f := cards.Format(*c)
	return &f
}

// currentTrick prefers the server's trick and falls back to the one rebuilt
// from played cards.
func currentTrick(snap state.Snapshot) game.Trick {
	if snap.State.Trick.Len() > 0 || snap.State.Phase != game.PhasePlay {
		return snap.State.Trick
	}
	if len(snap.Tricks) == 0 {
		return game.Trick{}
	}
	return snap.Tricks[len(snap.Tricks)-1]
}

// Render lays the snapshot out around the local seat. Spectators see the
// table from seat 0. bidOptions are shown only while it is our bid.
func Render(snap state.Snapshot, bidOptions []string) Table {
	st := snap.State
	local := snap.LocalSeat
	viewer := local
	if !viewer.Valid() {
		viewer = 0
	}

	t := Table{
		Phase:     st.Phase.String(),
		LocalSeat: local,
		Hand:      make([]cards.Face, 0, len(st.Hand)),
		Chat:      make([]string, 0, len(snap.Chat)),
	}
	trick := currentTrick(snap)
	for _, pos := range game.Positions {
		seat := game.SeatAt(pos, viewer)
		sv := SeatView{
			Position: pos,
			Seat:     seat,
			HandSize: st.HandSizes[seat],
			Dealer:   st.Dealer == seat,
			Turn:     st.Turn == seat,
			Alone:    st.Alone == seat,
		}
		if p, ok := snap.Seats[seat]; ok {
			sv.Name = p.Name
		}
		if st.Phase.CardPhase() {
			sv.Played = face(trick[seat])
		}
		t.Seats[pos] = sv
	}
	if st.Phase.Bidding() {
		t.Upcard = face(st.Upcard)
	}
	for _, c := range st.Hand {
		t.Hand = append(t.Hand, cards.Format(c))
	}
	myTurn := local.Valid() && st.Turn == local
	if myTurn && st.Phase.Bidding() {
		t.BidOptions = append([]string(nil), bidOptions...)
	}

	us := viewer.Team()
	them := 1 - us
	t.Scoreboard = Scoreboard{
		Dealing: local.Valid() && st.Dealer == local,
		MyTurn:  myTurn,
		Tricks:  [2]int{st.TrickScore[us], st.TrickScore[them]},
		Score:   [2]int{st.Score[us], st.Score[them]},
	}
	if st.Trump != nil {
		t.Scoreboard.Trump = st.Trump.Symbol()
	}
	for _, m := range snap.Chat {
		t.Chat = append(t.Chat, fmt.Sprintf("%s: %s", m.Sender, m.Text))
	}
	return t
}
