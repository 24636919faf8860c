package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voyager.com/euchre/internal/cards"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/transport"
)

func rawArgs(t *testing.T, args []jsoniter.RawMessage) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		require.NoError(t, jsoniter.Unmarshal(a, &out[i]))
	}
	return out
}

func newJoinedGame(t *testing.T) (*Game, *transport.Hub) {
	hub := transport.NewHub()
	hub.Handle(JoinServerEndpoint, func(args []jsoniter.RawMessage) (interface{}, error) {
		return []interface{}{3, "Player 3"}, nil
	})
	hub.Handle("player3.join_lobby", func(args []jsoniter.RawMessage) (interface{}, error) {
		return nil, nil
	})
	g := New(hub.Connect(), nil)
	player, err := g.JoinServer(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), player.ID)
	require.Equal(t, "Player 3", player.Name)
	require.NoError(t, g.JoinLobby(context.Background(), 0))
	return g, hub
}

func TestTranslatePublicState(t *testing.T) {
	payload := `{
		"phase": "bid1", "dealer": 3, "turn": 0, "trump": null, "up_card": "J.D",
		"alone": null, "score": [4, 7], "trick_score": [1, 2],
		"hand_sizes": [5, 5, 5, 5], "trick": [null, "K.H", null, null]
	}`
	state, err := TranslatePublicState("lobby0.publicstate", []byte(payload))
	require.NoError(t, err)

	upcard := cards.MustParse("J.D")
	kh := cards.MustParse("K.H")
	expected := game.GameState{
		Phase:      game.PhaseBid1,
		Dealer:     3,
		Turn:       0,
		Upcard:     &upcard,
		Alone:      game.NoSeat,
		Score:      [2]int{4, 7},
		TrickScore: [2]int{1, 2},
		HandSizes:  map[game.Seat]int{0: 5, 1: 5, 2: 5, 3: 5},
		Trick:      game.Trick{nil, &kh, nil, nil},
	}
	if diff := cmp.Diff(expected, state); diff != "" {
		t.Errorf("TranslatePublicState mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslatePublicStateUpcardOnlyWhileBidding(t *testing.T) {
	payload := `{"phase": "play", "dealer": 0, "turn": 1, "trump": "S", "up_card": "J.D"}`
	state, err := TranslatePublicState("t", []byte(payload))
	require.NoError(t, err)
	assert.Nil(t, state.Upcard)
	require.NotNil(t, state.Trump)
	assert.Equal(t, cards.Spades, *state.Trump)
}

func TestTranslatePublicStateNullPhase(t *testing.T) {
	state, err := TranslatePublicState("t", []byte(`{"phase": null}`))
	require.NoError(t, err)
	assert.Equal(t, game.PhaseNone, state.Phase)
	assert.Equal(t, game.NoSeat, state.Turn)
	assert.Empty(t, state.HandSizes)
}

func TestTranslatePublicStateFaults(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"phase": "shuffle"}`,
		`{"phase": "play", "turn": 4}`,
		`{"phase": "play", "dealer": -1}`,
		`{"phase": "bid1", "up_card": "J.X"}`,
		`{"phase": "play", "trump": "X"}`,
		`{"phase": "play", "score": [1]}`,
		`{"phase": "play", "hand_sizes": [5, 5]}`,
		`{"phase": "play", "trick": ["K.H", null, null, null, null]}`,
		`{"phase": "play", "trick": ["KH"]}`,
	}
	for _, p := range payloads {
		_, err := TranslatePublicState("lobby0.publicstate", []byte(p))
		if assert.Error(t, err, p) {
			_, ok := errors.Cause(err).(*game.ProtocolError)
			assert.True(t, ok, "payload %s gave %T", p, err)
		}
	}
}

func TestTranslateSeats(t *testing.T) {
	seats, err := TranslateSeats("s", []byte(`{"1": {"id": 7, "name": "Fred"}, "3": null}`))
	require.NoError(t, err)
	expected := map[game.Seat]*game.Player{
		1: {ID: 7, Name: "Fred", Seat: 1},
		3: nil,
	}
	if diff := cmp.Diff(expected, seats); diff != "" {
		t.Errorf("TranslateSeats mismatch (-want +got):\n%s", diff)
	}
	_, err = TranslateSeats("s", []byte(`{"4": null}`))
	assert.Error(t, err)
	_, err = TranslateSeats("s", []byte(`{"x": null}`))
	assert.Error(t, err)
}

func TestTranslateOthers(t *testing.T) {
	hand, err := TranslateHand("h", []byte(`["K.H", "Q.D"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"K.H", "Q.D"}, cards.Strings(hand))
	_, err = TranslateHand("h", []byte(`["K.H", "Q"]`))
	assert.Error(t, err)

	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := TranslateChat("c", []byte(`{"sender": "Fred", "text": "hi"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "Fred", msg.Sender)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, now, msg.When)
	assert.NotEmpty(t, msg.ID)

	seat, c, err := TranslateCardPlayed("p", []byte(`{"card": "A.S", "seat": 2}`))
	require.NoError(t, err)
	assert.Equal(t, game.Seat(2), seat)
	assert.Equal(t, cards.MustParse("A.S"), c)
	_, _, err = TranslateCardPlayed("p", []byte(`{"card": "A.S", "seat": 5}`))
	assert.Error(t, err)
}

func TestCallsBeforeJoining(t *testing.T) {
	g := New(transport.NewHub().Connect(), nil)
	assert.Equal(t, ErrNotJoined, g.SetName(context.Background(), "x"))
	assert.Equal(t, ErrNoLobby, g.StartGame(context.Background()))
	assert.Equal(t, ErrNoLobby, g.OnPublicState(func(game.GameState) {}))
}

func TestMoves(t *testing.T) {
	g, hub := newJoinedGame(t)
	hub.Handle("player3.perform_move", func(args []jsoniter.RawMessage) (interface{}, error) {
		return true, nil
	})
	ctx := context.Background()
	hearts := cards.Hearts
	require.NoError(t, g.Bid1(ctx, true, true))
	require.NoError(t, g.Bid2(ctx, true, &hearts, false))
	require.NoError(t, g.Bid2(ctx, false, nil, false))
	require.NoError(t, g.CardMove(ctx, game.PhaseDiscard, cards.MustParse("9.C")))
	require.NoError(t, g.Play(ctx, cards.MustParse("10.H")))
	assert.Error(t, g.CardMove(ctx, game.PhaseBid1, cards.MustParse("9.C")))

	var moves [][]interface{}
	for _, c := range hub.Calls() {
		if c.Endpoint == "player3.perform_move" {
			moves = append(moves, rawArgs(t, c.Args))
		}
	}
	expected := [][]interface{}{
		{float64(0), "bid1", true, true},
		{float64(0), "bid2", true, "H", false},
		{float64(0), "bid2", false, nil, false},
		{float64(0), "discard", "9.C"},
		{float64(0), "play", "10.H"},
	}
	if diff := cmp.Diff(expected, moves); diff != "" {
		t.Errorf("perform_move calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRejectedAndFalsyMoves(t *testing.T) {
	g, hub := newJoinedGame(t)
	ctx := context.Background()

	hub.Handle("player3.perform_move", func(args []jsoniter.RawMessage) (interface{}, error) {
		return nil, errors.New("Not your turn.")
	})
	err := g.Play(ctx, cards.MustParse("A.H"))
	require.Error(t, err)
	rejected, ok := errors.Cause(err).(*game.RejectedError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, "Not your turn.", rejected.Reason)

	hub.Handle("player3.perform_move", func(args []jsoniter.RawMessage) (interface{}, error) {
		return false, nil
	})
	err = g.Play(ctx, cards.MustParse("A.H"))
	_, ok = errors.Cause(err).(*game.RejectedError)
	assert.True(t, ok, "a falsy result is a rejection")

	hub.Handle("player3.join_seat", func(args []jsoniter.RawMessage) (interface{}, error) {
		return true, nil
	})
	assert.NoError(t, g.JoinSeat(ctx, 2))
	assert.Error(t, g.JoinSeat(ctx, 4))
	calls := hub.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "player3.join_seat", last.Endpoint)
	assert.Equal(t, []interface{}{float64(0), float64(2)}, rawArgs(t, last.Args))
}

func TestSubscriptions(t *testing.T) {
	g, hub := newJoinedGame(t)
	var states []game.GameState
	var hands [][]cards.Card
	var chats []game.ChatMessage
	var played []string
	newTricks, newHands := 0, 0

	require.NoError(t, g.OnPublicState(func(s game.GameState) { states = append(states, s) }))
	require.NoError(t, g.OnHand(func(h []cards.Card) { hands = append(hands, h) }))
	require.NoError(t, g.OnChat(func(m game.ChatMessage) { chats = append(chats, m) }))
	require.NoError(t, g.OnCardPlayed(func(s game.Seat, c cards.Card) { played = append(played, c.String()) }))
	require.NoError(t, g.OnNewTrick(func() { newTricks++ }))
	require.NoError(t, g.OnNewHand(func() { newHands++ }))

	hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "play", "dealer": 0, "turn": 1}`))
	hub.PublishRaw("lobby0.publicstate", []byte(`{"phase": "nonsense"}`))
	hub.PublishRaw("lobby0.hands.player3", []byte(`["A.S"]`))
	hub.PublishRaw("lobby0.hands.player1", []byte(`["A.H"]`))
	hub.PublishRaw("lobby0.chat", []byte(`{"sender": "a", "text": "b"}`))
	hub.PublishRaw("lobby0.cardplayed", []byte(`{"card": "9.H", "seat": 1}`))
	hub.PublishRaw("lobby0.cardplayed", []byte(`{"card": "9.H"`))
	hub.PublishRaw("lobby0.newtrick", nil)
	hub.PublishRaw("lobby0.newhand", nil)

	assert.Len(t, states, 1, "the malformed snapshot is dropped")
	assert.Equal(t, [][]cards.Card{{cards.MustParse("A.S")}}, hands)
	assert.Len(t, chats, 1)
	assert.Equal(t, []string{"9.H"}, played)
	assert.Equal(t, 1, newTricks)
	assert.Equal(t, 1, newHands)

	g.Unsubscribe()
	assert.False(t, hub.Subscribed("lobby0.publicstate"))
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"", "null", "false", "0", `""`} {
		assert.False(t, truthy([]byte(v)), v)
	}
	for _, v := range []string{"true", "1", `"ok"`, "[]", "{}"} {
		assert.True(t, truthy([]byte(v)), v)
	}
}
