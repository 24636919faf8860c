package client

import (
	"context"

	"voyager.com/euchre/internal/api"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/chat"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/logging"
)

// Submit runs one line of chat input. It returns whether the line was
// accepted and the input can be cleared.
func (c *Client) Submit(line string) bool {
	return c.chat.Submit(line)
}

// Input returns a chat input line bound to this client.
func (c *Client) Input() *chat.Input {
	return chat.NewInput(c.chat)
}

// ClickCard plays or discards the card at the index of our hand.
func (c *Client) ClickCard(index int) {
	c.post(&item{kind: itemClickCard, index: index})
}

// ClickBid presses one of the bid buttons.
func (c *Client) ClickBid(label string) {
	c.post(&item{kind: itemClickBid, label: label})
}

// CreateLobby creates a lobby and enters it. Lobbies are numbered by the
// server; the name is only logged.
func (c *Client) CreateLobby(name string) {
	var lobbyID int
	c.goCall(api.OpCreateLobby, func(ctx context.Context) error {
		var err error
		lobbyID, err = c.game.CreateLobby(ctx)
		return err
	}, func(err error) {
		if err != nil {
			c.advisory("Unable to create lobby: %s", err)
			return
		}
		if name != "" {
			c.logger.Info().Int(logging.LobbyIDKey, lobbyID).Msgf("Created lobby %d for '%s'", lobbyID, name)
		}
		c.enterLobby(lobbyID)
	})
}

// JoinLobby enters an existing lobby.
func (c *Client) JoinLobby(lobbyID int) {
	c.goCall(api.OpJoinLobby, func(ctx context.Context) error {
		return c.game.JoinLobby(ctx, lobbyID)
	}, func(err error) {
		if err != nil {
			c.advisory("Unable to join lobby %d: %s", lobbyID, err)
			return
		}
		c.enterLobby(lobbyID)
	})
}

func (c *Client) SetName(name string) {
	c.goCall(api.OpSetName, func(ctx context.Context) error {
		return c.game.SetName(ctx, name)
	}, func(err error) {
		if err != nil {
			c.advisory("Unable to set name: %s", err)
			return
		}
		c.mu.Lock()
		c.player.Name = name
		c.mu.Unlock()
	})
}

func (c *Client) SendMessage(text string) {
	c.goCall(api.OpChat, func(ctx context.Context) error {
		return c.game.SendMessage(ctx, text)
	}, func(err error) {
		if err != nil {
			c.advisory("Message not sent: %s", err)
		}
	})
}

// JoinSeat asks for a seat. The seat is ours once the server grants it.
func (c *Client) JoinSeat(seat game.Seat) {
	c.goCall(api.OpJoinSeat, func(ctx context.Context) error {
		return c.game.JoinSeat(ctx, seat)
	}, func(err error) {
		if err != nil {
			c.advisory("Unable to take seat %d: %s", seat, err)
			return
		}
		c.takeSeat(seat)
	})
}

func (c *Client) StartGame() {
	c.goCall(api.OpStartGame, func(ctx context.Context) error {
		return c.game.StartGame(ctx)
	}, func(err error) {
		if err != nil {
			c.advisory("Unable to start game: %s", err)
		}
	})
}

// Error reports a chat input problem to the user.
func (c *Client) Error(msg string) {
	c.advisory("%s", msg)
}

// enterLobby subscribes to the lobby topics. Runs on the message loop.
func (c *Client) enterLobby(lobbyID int) {
	c.game.Unsubscribe()
	c.sync.Reset()
	c.bidPhase = game.PhaseNone

	subscribe := []func() error{
		func() error {
			return c.game.OnPublicState(func(s game.GameState) {
				c.post(&item{kind: itemPublicState, state: s})
			})
		},
		func() error {
			return c.game.OnHand(func(hand []cards.Card) {
				c.post(&item{kind: itemHand, hand: hand})
			})
		},
		func() error {
			return c.game.OnSeats(func(seats map[game.Seat]*game.Player) {
				c.post(&item{kind: itemSeats, seats: seats})
			})
		},
		func() error {
			return c.game.OnChat(func(msg game.ChatMessage) {
				c.post(&item{kind: itemChat, chat: msg})
			})
		},
		func() error {
			return c.game.OnCardPlayed(func(seat game.Seat, card cards.Card) {
				c.post(&item{kind: itemCardPlayed, seat: seat, card: card})
			})
		},
		func() error {
			return c.game.OnNewTrick(func() { c.post(&item{kind: itemNewTrick}) })
		},
		func() error {
			return c.game.OnNewHand(func() { c.post(&item{kind: itemNewHand}) })
		},
	}
	for _, fn := range subscribe {
		if err := fn(); err != nil {
			c.logger.Error().Err(err).Int(logging.LobbyIDKey, lobbyID).Msg("Unable to subscribe")
			c.advisory("Unable to follow lobby %d", lobbyID)
			c.game.Unsubscribe()
			return
		}
	}
	c.event(SessionEvent__ENTER_LOBBY)
}

// clickCard sends the card move. The card leaves the hand once the server
// accepts it, unless a newer hand has arrived in the meantime.
func (c *Client) clickCard(index int) {
	phase := c.sync.Phase()
	if !phase.CardPhase() || !c.sync.MyTurn() {
		c.advisory("Not your turn.")
		return
	}
	card, ok := c.sync.HandCard(index)
	if !ok {
		c.advisory("No card at %d.", index)
		return
	}
	ticket := c.sync.BeginMove(card)
	c.goCall(string(phase), func(ctx context.Context) error {
		return c.game.CardMove(ctx, phase, card)
	}, func(err error) {
		if err != nil {
			c.advisory("Move %s rejected: %s", card, err)
			return
		}
		c.sync.MoveAccepted(ticket)
	})
}

func (c *Client) clickBid(label string) {
	if c.bidPhase == game.PhaseNone {
		c.advisory("Not your bid.")
		return
	}
	if err := c.bid.Click(c.ctx, label); err != nil {
		c.advisory("%s", err)
	}
}

// bidMover sends the bid without blocking the message loop.
type bidMover struct {
	c *Client
}

func (m *bidMover) Bid1(ctx context.Context, call bool, alone bool) error {
	phase := m.c.bidPhase
	m.c.goCall(string(game.MoveBid1), func(ctx context.Context) error {
		return m.c.game.Bid1(ctx, call, alone)
	}, func(err error) { m.done(phase, err) })
	return nil
}

func (m *bidMover) Bid2(ctx context.Context, call bool, trump *cards.Suit, alone bool) error {
	phase := m.c.bidPhase
	m.c.goCall(string(game.MoveBid2), func(ctx context.Context) error {
		return m.c.game.Bid2(ctx, call, trump, alone)
	}, func(err error) { m.done(phase, err) })
	return nil
}

// done runs on the message loop. A rejected bid reopens the flow while the
// table is still waiting on the same bid.
func (m *bidMover) done(phase game.Phase, err error) {
	if err == nil {
		return
	}
	m.c.advisory("Bid rejected: %s", err)
	if phase != game.PhaseNone && m.c.bidPhase == phase {
		m.c.bid.Reset(m.c.bid.Round())
	}
}
