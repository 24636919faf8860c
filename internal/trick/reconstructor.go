package trick

import (
	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/logging"
)

// Reconstructor rebuilds the tricks of the current hand from single
// "card played" events, so the server never has to resend a whole trick.
type Reconstructor struct {
	logger *zerolog.Logger
	tricks []game.Trick
}

// NewReconstructor creates a reconstructor with no open trick.
func NewReconstructor(logger *zerolog.Logger) *Reconstructor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reconstructor{
		logger: logger,
		tricks: make([]game.Trick, 0, game.HandSize),
	}
}

func (r *Reconstructor) SetLogger(logger *zerolog.Logger) {
	r.logger = logger
}

// StartNewTrick opens an empty trick.
func (r *Reconstructor) StartNewTrick() {
	r.tricks = append(r.tricks, game.Trick{})
}

// RecordCardPlayed puts the card at the seat in the open trick. Without an
// open trick the event is out of order; it is logged and dropped.
func (r *Reconstructor) RecordCardPlayed(seat game.Seat, card cards.Card) {
	if !seat.Valid() {
		r.logger.Warn().Int(logging.SeatNoKey, int(seat)).Msgf("Dropping card %s played by invalid seat", card)
		return
	}
	if len(r.tricks) == 0 {
		err := &game.OutOfOrderError{Msg: "card played before any trick was started"}
		r.logger.Warn().Err(err).Int(logging.SeatNoKey, int(seat)).Msgf("Dropping card %s", card)
		return
	}
	current := &r.tricks[len(r.tricks)-1]
	if prev := current[seat]; prev != nil {
		if *prev == card {
			// Duplicate delivery.
			r.logger.Debug().Int(logging.SeatNoKey, int(seat)).Msgf("Ignoring duplicate card %s", card)
			return
		}
		r.logger.Warn().Int(logging.SeatNoKey, int(seat)).Msgf("Seat already played %s in this trick, replacing with %s", *prev, card)
	}
	c := card
	current[seat] = &c
}

// ResetForNewHand forgets every trick.
func (r *Reconstructor) ResetForNewHand() {
	r.tricks = r.tricks[:0]
}

// Len returns the number of tricks started this hand.
func (r *Reconstructor) Len() int {
	return len(r.tricks)
}

// Current returns the open trick, if any.
func (r *Reconstructor) Current() (game.Trick, bool) {
	if len(r.tricks) == 0 {
		return game.Trick{}, false
	}
	return r.tricks[len(r.tricks)-1].Copy(), true
}

// Tricks returns a copy of the tricks of this hand in play order.
func (r *Reconstructor) Tricks() []game.Trick {
	out := make([]game.Trick, len(r.tricks))
	for i, t := range r.tricks {
		out[i] = t.Copy()
	}
	return out
}

// PlayedBy counts the cards the seat has played this hand.
func (r *Reconstructor) PlayedBy(seat game.Seat) int {
	if !seat.Valid() {
		return 0
	}
	n := 0
	for _, t := range r.tricks {
		if t[seat] != nil {
			n++
		}
	}
	return n
}
