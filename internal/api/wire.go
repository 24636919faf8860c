package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PublicStateWire is the publicstate payload as the server names it.
type PublicStateWire struct {
	Phase      *string   `json:"phase"`
	Dealer     *int      `json:"dealer"`
	Turn       *int      `json:"turn"`
	Trump      *string   `json:"trump"`
	UpCard     *string   `json:"up_card"`
	Alone      *int      `json:"alone"`
	Score      []int     `json:"score"`
	TrickScore []int     `json:"trick_score"`
	HandSizes  []int     `json:"hand_sizes"`
	Trick      []*string `json:"trick"`
}

// PlayerWire is one seat entry of the seats payload.
type PlayerWire struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ChatWire is the chat payload.
type ChatWire struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// CardPlayedWire is the cardplayed payload.
type CardPlayedWire struct {
	Card string `json:"card"`
	Seat int    `json:"seat"`
}

func protocolError(topic string, format string, args ...interface{}) error {
	return &game.ProtocolError{Topic: topic, Msg: fmt.Sprintf(format, args...)}
}

func seatField(topic string, field string, v *int) (game.Seat, error) {
	if v == nil {
		return game.NoSeat, nil
	}
	seat := game.Seat(*v)
	if !seat.Valid() {
		return game.NoSeat, protocolError(topic, "%s seat %d out of range", field, *v)
	}
	return seat, nil
}

func pair(topic string, field string, v []int) ([2]int, error) {
	var out [2]int
	switch len(v) {
	case 0:
		return out, nil
	case 2:
		out[0], out[1] = v[0], v[1]
		return out, nil
	}
	return out, protocolError(topic, "%s has %d entries; expected 2", field, len(v))
}

// TranslatePublicState validates a publicstate payload and maps it to the
// internal schema. Hand is always left empty.
func TranslatePublicState(topic string, data []byte) (game.GameState, error) {
	var w PublicStateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return game.GameState{}, protocolError(topic, "malformed payload: %s", err)
	}
	return w.translate(topic)
}

func (w PublicStateWire) translate(topic string) (game.GameState, error) {
	var err error
	state := game.GameState{HandSizes: make(map[game.Seat]int)}

	if w.Phase != nil {
		if state.Phase, err = game.ParsePhase(*w.Phase); err != nil {
			return game.GameState{}, protocolError(topic, "%s", err)
		}
	}
	if state.Dealer, err = seatField(topic, "dealer", w.Dealer); err != nil {
		return game.GameState{}, err
	}
	if state.Turn, err = seatField(topic, "turn", w.Turn); err != nil {
		return game.GameState{}, err
	}
	if state.Alone, err = seatField(topic, "alone", w.Alone); err != nil {
		return game.GameState{}, err
	}
	if w.Trump != nil {
		suit, err := cards.ParseSuit(*w.Trump)
		if err != nil {
			return game.GameState{}, protocolError(topic, "trump: %s", err)
		}
		state.Trump = &suit
	}
	// The upcard is only on the table while bidding.
	if w.UpCard != nil && state.Phase.Bidding() {
		upcard, err := cards.Parse(*w.UpCard)
		if err != nil {
			return game.GameState{}, protocolError(topic, "up_card: %s", err)
		}
		state.Upcard = &upcard
	}
	if state.Score, err = pair(topic, "score", w.Score); err != nil {
		return game.GameState{}, err
	}
	if state.TrickScore, err = pair(topic, "trick_score", w.TrickScore); err != nil {
		return game.GameState{}, err
	}
	if len(w.HandSizes) != 0 && len(w.HandSizes) != game.NumSeats {
		return game.GameState{}, protocolError(topic, "hand_sizes has %d entries", len(w.HandSizes))
	}
	for seat, n := range w.HandSizes {
		if n < 0 || n > game.HandSize+1 {
			return game.GameState{}, protocolError(topic, "hand size %d for seat %d", n, seat)
		}
		state.HandSizes[game.Seat(seat)] = n
	}
	if len(w.Trick) > game.NumSeats {
		return game.GameState{}, protocolError(topic, "trick has %d entries", len(w.Trick))
	}
	for seat, s := range w.Trick {
		if s == nil {
			continue
		}
		c, err := cards.Parse(*s)
		if err != nil {
			return game.GameState{}, protocolError(topic, "trick: %s", err)
		}
		state.Trick[seat] = &c
	}
	return state, nil
}

// TranslateHand parses the private hand payload.
func TranslateHand(topic string, data []byte) ([]cards.Card, error) {
	var strs []string
	if err := json.Unmarshal(data, &strs); err != nil {
		return nil, protocolError(topic, "malformed payload: %s", err)
	}
	hand, err := cards.ParseAll(strs)
	if err != nil {
		return nil, protocolError(topic, "%s", err)
	}
	return hand, nil
}

// TranslateSeats parses a seats delta. A nil player means the seat was vacated.
func TranslateSeats(topic string, data []byte) (map[game.Seat]*game.Player, error) {
	var w map[string]*PlayerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, protocolError(topic, "malformed payload: %s", err)
	}
	out := make(map[game.Seat]*game.Player, len(w))
	for key, p := range w {
		n, err := strconv.Atoi(key)
		if err != nil || !game.Seat(n).Valid() {
			return nil, protocolError(topic, "invalid seat '%s'", key)
		}
		seat := game.Seat(n)
		if p == nil {
			out[seat] = nil
			continue
		}
		out[seat] = &game.Player{ID: p.ID, Name: p.Name, Seat: seat}
	}
	return out, nil
}

// TranslateChat parses a chat payload, stamping it with the receive time.
func TranslateChat(topic string, data []byte, now time.Time) (game.ChatMessage, error) {
	var w ChatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return game.ChatMessage{}, protocolError(topic, "malformed payload: %s", err)
	}
	return game.ChatMessage{
		ID:     uuid.New().String(),
		Sender: w.Sender,
		Text:   w.Text,
		When:   now,
	}, nil
}

// TranslateCardPlayed parses a cardplayed payload.
func TranslateCardPlayed(topic string, data []byte) (game.Seat, cards.Card, error) {
	var w CardPlayedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return game.NoSeat, cards.Card{}, protocolError(topic, "malformed payload: %s", err)
	}
	seat := game.Seat(w.Seat)
	if !seat.Valid() {
		return game.NoSeat, cards.Card{}, protocolError(topic, "seat %d out of range", w.Seat)
	}
	c, err := cards.Parse(w.Card)
	if err != nil {
		return game.NoSeat, cards.Card{}, protocolError(topic, "%s", err)
	}
	return seat, c, nil
}

// truthy follows the server's notion of success: null, false, 0 and ""
// are failures.
func truthy(raw []byte) bool {
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
