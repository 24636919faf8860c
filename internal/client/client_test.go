package client

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voyager.com/euchre/internal/api"
	"voyager.com/euchre/internal/bid"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/transport"
)

// table is a scripted server for player 1 in lobby 0.
type table struct {
	hub *transport.Hub

	mu         sync.Mutex
	moves      [][]interface{}
	onMove     func(args []interface{}) (interface{}, error)
	advisories []string
}

func newTable(t *testing.T) *table {
	tb := &table{hub: transport.NewHub()}
	tb.onMove = func([]interface{}) (interface{}, error) { return true, nil }
	tb.hub.Handle(api.JoinServerEndpoint, func([]jsoniter.RawMessage) (interface{}, error) {
		return []interface{}{1, "Player 1"}, nil
	})
	tb.hub.Handle("player1.create_lobby", func([]jsoniter.RawMessage) (interface{}, error) {
		return 0, nil
	})
	tb.hub.Handle("player1.join_seat", func(args []jsoniter.RawMessage) (interface{}, error) {
		return true, nil
	})
	tb.hub.Handle("player1.set_name", func(args []jsoniter.RawMessage) (interface{}, error) {
		return nil, nil
	})
	tb.hub.Handle("player1.perform_move", func(raw []jsoniter.RawMessage) (interface{}, error) {
		args := make([]interface{}, len(raw))
		for i, a := range raw {
			if err := jsoniter.Unmarshal(a, &args[i]); err != nil {
				return nil, err
			}
		}
		tb.mu.Lock()
		tb.moves = append(tb.moves, args)
		onMove := tb.onMove
		tb.mu.Unlock()
		return onMove(args)
	})
	return tb
}

func (tb *table) setOnMove(fn func(args []interface{}) (interface{}, error)) {
	tb.mu.Lock()
	tb.onMove = fn
	tb.mu.Unlock()
}

func (tb *table) lastMove() []interface{} {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if len(tb.moves) == 0 {
		return nil
	}
	return tb.moves[len(tb.moves)-1]
}

func (tb *table) moveCount() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.moves)
}

func (tb *table) lastAdvisory() string {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if len(tb.advisories) == 0 {
		return ""
	}
	return tb.advisories[len(tb.advisories)-1]
}

// seatedClient returns a client sitting at seat 1 of lobby 0.
func seatedClient(t *testing.T) (*Client, *table) {
	tb := newTable(t)
	c := New(tb.hub.Connect(), Config{}, nil)
	c.OnAdvisory(func(msg string) {
		tb.mu.Lock()
		tb.advisories = append(tb.advisories, msg)
		tb.mu.Unlock()
	})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	assert.Equal(t, Session__CONNECTED, c.SessionState())

	assert.True(t, c.Submit("/create"))
	c.Flush()
	require.Equal(t, Session__IN_LOBBY, c.SessionState())
	require.True(t, tb.hub.Subscribed("lobby0.publicstate"))
	require.True(t, tb.hub.Subscribed("lobby0.hands.player1"))

	assert.True(t, c.Submit("/seat 1"))
	c.Flush()
	require.Equal(t, Session__SEATED, c.SessionState())
	return c, tb
}

func TestBidFlow(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 1, "up_card": "J.D", "hand_sizes": [5, 5, 5, 5]}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "10.H", "J.H", "Q.H", "K.H"]`))
	c.Flush()

	table := c.Table()
	assert.Equal(t, []string{bid.LabelPickUp, bid.LabelPass}, table.BidOptions)
	require.NotNil(t, table.Upcard)
	assert.Len(t, table.Hand, 5)

	c.ClickBid(bid.LabelPickUp)
	c.Flush()
	assert.Equal(t, []string{bid.LabelYes, bid.LabelNo}, c.Table().BidOptions)
	assert.Equal(t, 0, tb.moveCount(), "nothing sent before the alone answer")

	c.ClickBid(bid.LabelNo)
	c.Flush()
	assert.Equal(t, []interface{}{float64(0), "bid1", true, false}, tb.lastMove())
	assert.Empty(t, c.Table().BidOptions)

	// A repeated snapshot of the same opportunity does not reopen the flow.
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 1, "up_card": "J.D"}`))
	c.Flush()
	assert.Empty(t, c.Table().BidOptions)

	// Second round.
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid2", "dealer": 0, "turn": 1}`))
	c.Flush()
	assert.Equal(t, []string{bid.LabelNameTrump, bid.LabelPass}, c.Table().BidOptions)
	c.ClickBid(bid.LabelNameTrump)
	c.ClickBid("S")
	c.ClickBid(bid.LabelYes)
	c.Flush()
	assert.Equal(t, []interface{}{float64(0), "bid2", true, "S", true}, tb.lastMove())
	assert.Equal(t, 2, tb.moveCount())
}

func TestBidOutOfTurn(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 2}`))
	c.Flush()
	assert.Empty(t, c.Table().BidOptions)
	c.ClickBid(bid.LabelPass)
	c.Flush()
	assert.Equal(t, "Not your bid.", tb.lastAdvisory())
	assert.Equal(t, 0, tb.moveCount())
}

func TestRejectedBid(t *testing.T) {
	c, tb := seatedClient(t)
	tb.setOnMove(func([]interface{}) (interface{}, error) { return nil, errors.New("Not your turn.") })
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 1}`))
	c.Flush()
	c.ClickBid(bid.LabelPass)
	c.Flush()
	assert.Contains(t, tb.lastAdvisory(), "Bid rejected")
	assert.Equal(t, "bid1", c.Snapshot().State.Phase.String())

	// The table is still waiting on us, so the buttons come back.
	assert.Equal(t, []string{bid.LabelPickUp, bid.LabelPass}, c.Table().BidOptions)
	tb.setOnMove(func([]interface{}) (interface{}, error) { return true, nil })
	c.ClickBid(bid.LabelPass)
	c.Flush()
	assert.Equal(t, 2, tb.moveCount())
	assert.Equal(t, []interface{}{float64(0), "bid1", false, false}, tb.lastMove())
	assert.Empty(t, c.Table().BidOptions)
}

func TestRejectedBidAfterTurnMoved(t *testing.T) {
	c, tb := seatedClient(t)
	tb.setOnMove(func([]interface{}) (interface{}, error) {
		tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 2}`))
		return nil, errors.New("Not your turn.")
	})
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 1}`))
	c.Flush()
	c.ClickBid(bid.LabelPass)
	c.Flush()
	assert.Contains(t, tb.lastAdvisory(), "Bid rejected")
	assert.Empty(t, c.Table().BidOptions)
}

func TestPlayCard(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 1, "trump": "H"}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "10.H", "J.H"]`))
	c.Flush()

	c.ClickCard(1)
	c.Flush()
	assert.Equal(t, []interface{}{float64(0), "play", "10.H"}, tb.lastMove())
	assert.Equal(t, []string{"9.H", "J.H"}, cards.Strings(c.Snapshot().State.Hand))
}

func TestDiscardUsesPhase(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "discard", "dealer": 1, "turn": 1}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "10.H", "J.H", "Q.H", "K.H", "J.D"]`))
	c.Flush()
	c.ClickCard(0)
	c.Flush()
	assert.Equal(t, []interface{}{float64(0), "discard", "9.H"}, tb.lastMove())
	assert.Len(t, c.Snapshot().State.Hand, 5)
}

func TestRejectedPlayKeepsHand(t *testing.T) {
	c, tb := seatedClient(t)
	tb.setOnMove(func([]interface{}) (interface{}, error) { return nil, errors.New("Must follow suit.") })
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 1}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "10.H"]`))
	c.Flush()
	c.ClickCard(0)
	c.Flush()
	assert.Contains(t, tb.lastAdvisory(), "Must follow suit.")
	assert.Equal(t, []string{"9.H", "10.H"}, cards.Strings(c.Snapshot().State.Hand))
}

func TestPlayAfterServerHand(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 1}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "10.H", "J.H"]`))
	c.Flush()

	// The server sends the updated hand before answering the call.
	tb.setOnMove(func([]interface{}) (interface{}, error) {
		tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H", "J.H"]`))
		return true, nil
	})
	c.ClickCard(0)
	c.Flush()
	assert.Equal(t, []string{"9.H", "J.H"}, cards.Strings(c.Snapshot().State.Hand))
}

func TestPlayOutOfTurn(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 3}`))
	tb.hub.PublishRaw("lobby0.hands.player1", []byte(`["9.H"]`))
	c.Flush()
	c.ClickCard(0)
	c.Flush()
	assert.Equal(t, "Not your turn.", tb.lastAdvisory())
	assert.Equal(t, 0, tb.moveCount())
}

func TestTrickEvents(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 2}`))
	tb.hub.PublishRaw("lobby0.cardplayed", []byte(`{"card": "Q.S", "seat": 3}`))
	tb.hub.PublishRaw("lobby0.newtrick", nil)
	tb.hub.PublishRaw("lobby0.cardplayed", []byte(`{"card": "A.S", "seat": 0}`))
	tb.hub.PublishRaw("lobby0.cardplayed", []byte(`{"card": "K.S", "seat": 1}`))
	c.Flush()

	snap := c.Snapshot()
	require.Len(t, snap.Tricks, 1)
	assert.Nil(t, snap.Tricks[0][3], "the card before any trick is dropped")
	require.NotNil(t, snap.Tricks[0][1])
	assert.Equal(t, "K.S", snap.Tricks[0][1].String())
	assert.Equal(t, 4, snap.State.HandSizes[0])
	assert.Equal(t, 5, snap.State.HandSizes[3])
	require.NotNil(t, c.Table().Seats[game.Bottom].Played)
	assert.Equal(t, "K♠", c.Table().Seats[game.Bottom].Played.String())

	tb.hub.PublishRaw("lobby0.newhand", nil)
	c.Flush()
	assert.Empty(t, c.Snapshot().Tricks)
}

func TestSeatMoveInOneDelta(t *testing.T) {
	// Map order decides which entry is seen first, so repeat the move.
	for i := 0; i < 20; i++ {
		c, tb := seatedClient(t)
		require.Equal(t, game.Seat(1), c.Snapshot().LocalSeat)
		tb.hub.PublishRaw("lobby0.seats", []byte(`{"1": null, "3": {"id": 1, "name": "Player 1"}}`))
		c.Flush()
		assert.Equal(t, game.Seat(3), c.Snapshot().LocalSeat, "run %d", i)
		assert.Equal(t, Session__SEATED, c.SessionState(), "run %d", i)
		c.Close()
	}
}

func TestSeatsAndChat(t *testing.T) {
	c, tb := seatedClient(t)
	tb.hub.PublishRaw("lobby0.seats", []byte(`{"1": {"id": 1, "name": "Player 1"}, "2": {"id": 5, "name": "Eve"}}`))
	tb.hub.PublishRaw("lobby0.chat", []byte(`{"sender": "Eve", "text": "hello"}`))
	c.Flush()
	snap := c.Snapshot()
	assert.Equal(t, "Eve", snap.Seats[2].Name)
	require.Len(t, snap.Chat, 1)
	assert.Equal(t, "hello", snap.Chat[0].Text)

	tb.hub.PublishRaw("lobby0.seats", []byte(`{"1": null}`))
	c.Flush()
	assert.Equal(t, Session__IN_LOBBY, c.SessionState())
}

func TestChatCommands(t *testing.T) {
	c, tb := seatedClient(t)
	assert.False(t, c.Submit("/bogus"))
	assert.Contains(t, tb.lastAdvisory(), "Unrecognized command")

	in := c.Input()
	in.SetValue("/name Bob")
	in.Key(true, false)
	assert.Equal(t, "", in.Value())
	c.Flush()
	assert.Equal(t, "Bob", c.Player().Name)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for scanner.Scan() {
		var line map[string]interface{}
		if jsoniter.Unmarshal(scanner.Bytes(), &line) == nil {
			out = append(out, line)
		}
	}
	return out
}

func TestComponentsLogPlayer(t *testing.T) {
	tb := newTable(t)
	out := &lockedBuffer{}
	logger := zerolog.New(out).Level(zerolog.InfoLevel)
	c := New(tb.hub.Connect(), Config{}, &logger)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	assert.True(t, c.Submit("/create"))
	c.Flush()
	assert.True(t, c.Submit("/seat 1"))
	c.Flush()
	tb.hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "bid1", "dealer": 0, "turn": 1}`))
	c.Flush()
	c.ClickBid(bid.LabelPass)
	c.Flush()
	require.Equal(t, 1, tb.moveCount())

	seen := map[string]bool{}
	for _, line := range out.lines() {
		msg, _ := line["message"].(string)
		assert.Equal(t, float64(1), line["playerID"], msg)
		for _, prefix := range []string{"Performing move", "Sending", "Our bid"} {
			if strings.HasPrefix(msg, prefix) {
				seen[prefix] = true
			}
		}
	}
	assert.True(t, seen["Performing move"], "api log line")
	assert.True(t, seen["Sending"], "bid flow log line")
	assert.True(t, seen["Our bid"], "client log line")
}

func TestClose(t *testing.T) {
	c, tb := seatedClient(t)
	require.NoError(t, c.Close())
	assert.Equal(t, Session__DISCONNECTED, c.SessionState())
	assert.False(t, tb.hub.Subscribed("lobby0.publicstate"))
	require.NoError(t, c.Close())
}
