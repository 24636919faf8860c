package client

import (
	"voyager.com/euchre/internal/bid"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/view"
	"voyager.com/euchre/logging"
)

type itemKind int

const (
	itemPublicState itemKind = iota
	itemHand
	itemSeats
	itemChat
	itemCardPlayed
	itemNewTrick
	itemNewHand
	itemResult
	itemClickCard
	itemClickBid
	itemBarrier
)

type callResult struct {
	op   string
	err  error
	then func(err error)
}

// item is one unit of work for the message loop.
type item struct {
	kind    itemKind
	state   game.GameState
	hand    []cards.Card
	seats   map[game.Seat]*game.Player
	chat    game.ChatMessage
	seat    game.Seat
	card    cards.Card
	index   int
	label   string
	result  *callResult
	barrier chan struct{}
}

func (c *Client) messageLoop() {
	for {
		select {
		case <-c.end:
			return
		case it := <-c.chEvent:
			c.process(it)
		}
	}
}

func (c *Client) process(it *item) {
	switch it.kind {
	case itemPublicState:
		c.sync.ApplyPublicState(it.state)
		c.checkBidOpportunity()
	case itemHand:
		c.sync.ApplyHand(it.hand)
	case itemSeats:
		c.applySeats(it.seats)
	case itemChat:
		c.sync.AppendChat(it.chat)
	case itemCardPlayed:
		c.sync.RecordCardPlayed(it.seat, it.card)
	case itemNewTrick:
		c.sync.StartNewTrick()
	case itemNewHand:
		c.sync.ResetForNewHand()
	case itemResult:
		c.processResult(it.result)
	case itemClickCard:
		c.clickCard(it.index)
	case itemClickBid:
		c.clickBid(it.label)
	case itemBarrier:
		close(it.barrier)
		return
	}
	c.refresh()
}

func (c *Client) processResult(r *callResult) {
	defer c.pending.Done()
	if r.err != nil {
		c.logger.Debug().Err(r.err).Msgf("Call %s failed", r.op)
	}
	if r.then != nil {
		r.then(r.err)
	}
}

func (c *Client) refresh() {
	table := view.Render(c.sync.Snapshot(), c.bidOptions())
	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
	if c.onUpdate != nil {
		c.onUpdate(table)
	}
}

func (c *Client) bidOptions() []string {
	if c.bidPhase == game.PhaseNone || c.bid.Done() {
		return nil
	}
	return c.bid.Options()
}

// checkBidOpportunity restarts the bid flow whenever the table starts
// waiting on our bid.
func (c *Client) checkBidOpportunity() {
	phase := c.sync.Phase()
	if !phase.Bidding() || !c.sync.MyTurn() {
		c.bidPhase = game.PhaseNone
		return
	}
	if phase == c.bidPhase {
		return
	}
	c.bidPhase = phase
	round := bid.Round1
	if phase == game.PhaseBid2 {
		round = bid.Round2
	}
	c.bid.Reset(round)
	c.logger.Info().Msgf("Our bid in %s", phase)
}

// applySeats merges a seat delta. Vacated seats are handled before granted
// ones, so a move between seats in one delta ends with us seated.
func (c *Client) applySeats(delta map[game.Seat]*game.Player) {
	c.sync.ApplySeats(delta)
	for seat, p := range delta {
		if p == nil && seat == c.sync.LocalSeat() {
			c.sync.SetLocalSeat(game.NoSeat)
			c.event(SessionEvent__LEAVE_SEAT)
		}
	}
	for seat, p := range delta {
		if p != nil && p.ID == c.player.ID {
			c.takeSeat(seat)
		}
	}
}

func (c *Client) takeSeat(seat game.Seat) {
	c.sync.SetLocalSeat(seat)
	c.event(SessionEvent__TAKE_SEAT)
	c.logger.Info().Int(logging.SeatNoKey, int(seat)).Msgf("Seated at %d", seat)
	// A snapshot that arrived before the seat was known may already be
	// waiting on us.
	c.checkBidOpportunity()
}
