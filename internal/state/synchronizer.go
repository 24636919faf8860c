package state

import (
	"sync"

	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/trick"
	"voyager.com/euchre/logging"
)

// MoveTicket is taken when a card move is sent. It remembers which hand the
// move was made from.
type MoveTicket struct {
	Card        cards.Card
	HandVersion uint64
}

// Snapshot is a deep copy of everything a renderer needs.
type Snapshot struct {
	State     game.GameState
	Seats     map[game.Seat]game.Player
	LocalSeat game.Seat
	Chat      []game.ChatMessage
	Tricks    []game.Trick
}

// Synchronizer owns the canonical local view. Mutations happen on the
// client's event goroutine; readers on other goroutines use Snapshot.
type Synchronizer struct {
	logger *zerolog.Logger

	mu          sync.RWMutex
	state       game.GameState
	handVersion uint64
	seats       map[game.Seat]game.Player
	localSeat   game.Seat
	chat        []game.ChatMessage
	tricks      *trick.Reconstructor
}

// NewSynchronizer creates an empty view for an unseated client.
func NewSynchronizer(logger *zerolog.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Synchronizer{
		logger: logger,
		state: game.GameState{
			Dealer:    game.NoSeat,
			Turn:      game.NoSeat,
			Alone:     game.NoSeat,
			HandSizes: make(map[game.Seat]int),
		},
		seats:     make(map[game.Seat]game.Player),
		localSeat: game.NoSeat,
		tricks:    trick.NewReconstructor(logger),
	}
}

// SetLogger replaces the logger of the view and its trick reconstructor.
// Call it from the event goroutine or before it starts.
func (s *Synchronizer) SetLogger(logger *zerolog.Logger) {
	s.logger = logger
	s.tricks.SetLogger(logger)
}

// Reset forgets everything, as when changing lobby.
func (s *Synchronizer) Reset() {
	fresh := NewSynchronizer(s.logger)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fresh.state
	s.handVersion++
	s.seats = fresh.seats
	s.localSeat = fresh.localSeat
	s.chat = nil
	s.tricks = fresh.tricks
}

// ApplyPublicState replaces every public field with the snapshot. The hand
// is kept. Snapshots are applied in arrival order.
func (s *Synchronizer) ApplyPublicState(public game.GameState) {
	s.mu.Lock()
	hand := s.state.Hand
	s.state = public.Copy()
	s.state.Hand = hand
	s.mu.Unlock()
	s.checkHandSize()
}

// ApplyHand replaces the local hand and advances the hand version.
func (s *Synchronizer) ApplyHand(hand []cards.Card) {
	s.mu.Lock()
	s.state.Hand = append([]cards.Card(nil), hand...)
	s.handVersion++
	s.mu.Unlock()
	s.checkHandSize()
}

// checkHandSize compares the private hand to the public count for our seat.
// A mismatch is only reported; the next snapshot from the server settles it.
func (s *Synchronizer) checkHandSize() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.localSeat.Valid() || s.state.HandSizes == nil {
		return
	}
	n, ok := s.state.HandSizes[s.localSeat]
	if !ok || n == len(s.state.Hand) {
		return
	}
	s.logger.Warn().
		Int(logging.SeatNoKey, int(s.localSeat)).
		Msgf("Hand has %d cards but the table reports %d", len(s.state.Hand), n)
}

// BeginMove records the hand version a card move is made from.
func (s *Synchronizer) BeginMove(c cards.Card) MoveTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MoveTicket{Card: c, HandVersion: s.handVersion}
}

// MoveAccepted removes the moved card from the hand, unless a newer hand
// arrived after the move was made; that hand already reflects the move.
// Returns whether the card was removed.
func (s *Synchronizer) MoveAccepted(t MoveTicket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.HandVersion != s.handVersion {
		s.logger.Debug().Msgf("Hand replaced since %s was moved; keeping server hand", t.Card)
		return false
	}
	idx := cards.Index(s.state.Hand, t.Card)
	if idx < 0 {
		return false
	}
	hand := make([]cards.Card, 0, len(s.state.Hand)-1)
	hand = append(hand, s.state.Hand[:idx]...)
	hand = append(hand, s.state.Hand[idx+1:]...)
	s.state.Hand = hand
	return true
}

// ApplySeats merges a seat delta. A nil player vacates the seat.
func (s *Synchronizer) ApplySeats(delta map[game.Seat]*game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for seat, p := range delta {
		if p == nil {
			delete(s.seats, seat)
			continue
		}
		s.seats[seat] = *p
	}
}

// SetLocalSeat records the seat the server granted us.
func (s *Synchronizer) SetLocalSeat(seat game.Seat) {
	s.mu.Lock()
	s.localSeat = seat
	s.mu.Unlock()
}

func (s *Synchronizer) LocalSeat() game.Seat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localSeat
}

// AppendChat adds a line to the log.
func (s *Synchronizer) AppendChat(msg game.ChatMessage) {
	s.mu.Lock()
	s.chat = append(s.chat, msg)
	s.mu.Unlock()
}

func (s *Synchronizer) StartNewTrick() {
	s.mu.Lock()
	s.tricks.StartNewTrick()
	s.mu.Unlock()
}

func (s *Synchronizer) RecordCardPlayed(seat game.Seat, c cards.Card) {
	s.mu.Lock()
	s.tricks.RecordCardPlayed(seat, c)
	s.mu.Unlock()
}

func (s *Synchronizer) ResetForNewHand() {
	s.mu.Lock()
	s.tricks.ResetForNewHand()
	s.mu.Unlock()
}

// Phase returns the current phase.
func (s *Synchronizer) Phase() game.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Phase
}

// MyTurn reports whether the server is waiting on the local seat.
func (s *Synchronizer) MyTurn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localSeat.Valid() && s.state.Turn == s.localSeat
}

// HandCard returns the card at the index of the local hand.
func (s *Synchronizer) HandCard(index int) (cards.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.state.Hand) {
		return cards.Card{}, false
	}
	return s.state.Hand[index], true
}

// HandSize returns the number of cards held at the seat. The server count
// wins; without one, the count is derived from the cards played this hand.
func (s *Synchronizer) HandSize(seat game.Seat) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handSize(seat)
}

func (s *Synchronizer) handSize(seat game.Seat) int {
	if n, ok := s.state.HandSizes[seat]; ok {
		return n
	}
	if seat == s.localSeat {
		return len(s.state.Hand)
	}
	if s.state.Phase == game.PhaseNone {
		return 0
	}
	// The partner of a lone caller sits the hand out.
	if s.state.Alone.Valid() && seat == s.state.Alone.Partner() {
		return 0
	}
	n := game.HandSize - s.tricks.PlayedBy(seat)
	if n < 0 {
		return 0
	}
	return n
}

// Snapshot returns a deep copy of the view. Hand sizes are filled for every
// seat.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		State:     s.state.Copy(),
		Seats:     make(map[game.Seat]game.Player, len(s.seats)),
		LocalSeat: s.localSeat,
		Chat:      append([]game.ChatMessage(nil), s.chat...),
		Tricks:    s.tricks.Tricks(),
	}
	for seat, p := range s.seats {
		snap.Seats[seat] = p
	}
	for seat := game.Seat(0); seat < game.NumSeats; seat++ {
		snap.State.HandSizes[seat] = s.handSize(seat)
	}
	return snap
}
