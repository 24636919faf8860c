package game

import (
	"fmt"
	"time"

	"voyager.com/euchre/internal/cards"
)

// NumSeats is the number of seats at the table.
const NumSeats = 4

// HandSize is the number of cards dealt to each seat.
const HandSize = 5

// Seat is an absolute table index 0-3, assigned by the server.
type Seat int

// NoSeat marks an unseated (lobby or spectator) client.
const NoSeat Seat = -1

func (s Seat) Valid() bool {
	return s >= 0 && s < NumSeats
}

// Team returns 0 or 1; partners share a team.
func (s Seat) Team() int {
	return int(s) % 2
}

// Partner returns the seat across the table.
func (s Seat) Partner() Seat {
	return (s + 2) % NumSeats
}

// Next returns the seat to the left.
func (s Seat) Next() Seat {
	return (s + 1) % NumSeats
}

func (s Seat) String() string {
	if !s.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d", int(s))
}

// Phase of a hand as reported by the server.
type Phase string

const (
	PhaseNone     Phase = ""
	PhaseBid1     Phase = "bid1"
	PhaseBid2     Phase = "bid2"
	PhaseDiscard  Phase = "discard"
	PhasePlay     Phase = "play"
	PhaseComplete Phase = "complete"
)

// ParsePhase maps the wire phase name. A JSON null maps to PhaseNone.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseNone, PhaseBid1, PhaseBid2, PhaseDiscard, PhasePlay, PhaseComplete:
		return p, nil
	}
	return PhaseNone, &ProtocolError{Msg: fmt.Sprintf("unknown phase '%s'", s)}
}

// Bidding reports whether the upcard is on the table.
func (p Phase) Bidding() bool {
	return p == PhaseBid1 || p == PhaseBid2
}

// CardPhase reports whether the local player answers the phase with a card.
func (p Phase) CardPhase() bool {
	return p == PhasePlay || p == PhaseDiscard
}

func (p Phase) String() string {
	if p == PhaseNone {
		return "none"
	}
	return string(p)
}

// Player occupies a seat.
type Player struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Seat Seat   `json:"seat"`
}

// Trick holds the face-up cards of one trick by seat.
type Trick [NumSeats]*cards.Card

// Len returns the number of cards in the trick.
func (t Trick) Len() int {
	n := 0
	for _, c := range t {
		if c != nil {
			n++
		}
	}
	return n
}

// Cards returns a seat to card map of the filled entries.
func (t Trick) Cards() map[Seat]cards.Card {
	m := make(map[Seat]cards.Card)
	for seat, c := range t {
		if c != nil {
			m[Seat(seat)] = *c
		}
	}
	return m
}

// Copy returns a trick that shares no card pointers with t.
func (t Trick) Copy() Trick {
	var out Trick
	for seat, c := range t {
		if c != nil {
			card := *c
			out[seat] = &card
		}
	}
	return out
}

// GameState is the public, server-authoritative snapshot plus the local hand.
type GameState struct {
	Phase      Phase
	Dealer     Seat
	Turn       Seat
	Trump      *cards.Suit
	Upcard     *cards.Card
	Alone      Seat
	Score      [2]int
	TrickScore [2]int
	HandSizes  map[Seat]int
	Trick      Trick

	// Hand is only ever filled from the private channel.
	Hand []cards.Card
}

// Copy returns a deep copy of the state.
func (g GameState) Copy() GameState {
	out := g
	if g.Trump != nil {
		trump := *g.Trump
		out.Trump = &trump
	}
	if g.Upcard != nil {
		upcard := *g.Upcard
		out.Upcard = &upcard
	}
	out.HandSizes = make(map[Seat]int, len(g.HandSizes))
	for seat, n := range g.HandSizes {
		out.HandSizes[seat] = n
	}
	out.Trick = g.Trick.Copy()
	out.Hand = append([]cards.Card(nil), g.Hand...)
	return out
}

// ChatMessage is one line of the chat log.
type ChatMessage struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	When   time.Time `json:"when"`
}

// MoveType names a perform_move action.
type MoveType string

const (
	MoveBid1    MoveType = "bid1"
	MoveBid2    MoveType = "bid2"
	MovePlay    MoveType = "play"
	MoveDiscard MoveType = "discard"
)

// MoveFor returns the card move the phase expects.
func MoveFor(p Phase) (MoveType, bool) {
	switch p {
	case PhasePlay:
		return MovePlay, true
	case PhaseDiscard:
		return MoveDiscard, true
	}
	return "", false
}
