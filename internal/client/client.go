package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"voyager.com/euchre/internal/api"
	"voyager.com/euchre/internal/bid"
	"voyager.com/euchre/internal/chat"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/state"
	"voyager.com/euchre/internal/transport"
	"voyager.com/euchre/internal/view"
	"voyager.com/euchre/logging"
)

// Config holds the client settings.
type Config struct {
	// Name is sent with set_name after joining, if not empty.
	Name string
	// CallTimeout bounds each remote call. Zero means no limit.
	CallTimeout time.Duration
}

// Client runs one player's session. All state is owned by the message loop;
// remote calls run on their own goroutines and post their results back.
type Client struct {
	logger *zerolog.Logger
	config Config
	conn   transport.Conn
	game   *api.Game
	sync   *state.Synchronizer
	bid    *bid.Flow
	chat   *chat.Dispatcher
	sm     *fsm.FSM

	ctx    context.Context
	cancel context.CancelFunc

	player game.Player
	// bidPhase is the phase of the bid opportunity being answered, if any.
	bidPhase game.Phase

	chEvent   chan *item
	end       chan struct{}
	closeOnce sync.Once
	pending   sync.WaitGroup

	mu         sync.RWMutex
	table      view.Table
	onUpdate   func(view.Table)
	onAdvisory func(string)
}

// New creates a client over an open connection. The client owns the
// connection from here on and closes it in Close.
func New(conn transport.Conn, config Config, logger *zerolog.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		logger:  logger,
		config:  config,
		conn:    conn,
		game:    api.New(conn, logger),
		sync:    state.NewSynchronizer(logger),
		ctx:     ctx,
		cancel:  cancel,
		player:  game.Player{Seat: game.NoSeat},
		chEvent: make(chan *item, 64),
		end:     make(chan struct{}),
	}
	c.bid = bid.NewFlow(bid.Round1, &bidMover{c: c}, logger)
	c.chat = chat.NewDispatcher(c, logger)
	c.sm = fsm.NewFSM(
		Session__DISCONNECTED,
		fsm.Events{
			{
				Name: SessionEvent__JOIN_SERVER,
				Src:  []string{Session__DISCONNECTED},
				Dst:  Session__CONNECTED,
			},
			{
				Name: SessionEvent__ENTER_LOBBY,
				Src:  []string{Session__CONNECTED, Session__IN_LOBBY, Session__SEATED},
				Dst:  Session__IN_LOBBY,
			},
			{
				Name: SessionEvent__TAKE_SEAT,
				Src:  []string{Session__IN_LOBBY, Session__SEATED},
				Dst:  Session__SEATED,
			},
			{
				Name: SessionEvent__LEAVE_SEAT,
				Src:  []string{Session__SEATED},
				Dst:  Session__IN_LOBBY,
			},
			{
				Name: SessionEvent__CLOSE,
				Src:  []string{Session__CONNECTED, Session__IN_LOBBY, Session__SEATED},
				Dst:  Session__DISCONNECTED,
			},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { c.enterState(e) },
		},
	)
	c.table = view.Render(c.sync.Snapshot(), nil)
	return c
}

func (c *Client) enterState(e *fsm.Event) {
	c.logger.Info().Msgf("[%s] ===> [%s]", e.Src, e.Dst)
}

func (c *Client) event(event string) error {
	err := c.sm.Event(event)
	if err != nil {
		if _, ok := err.(fsm.NoTransitionError); ok {
			return nil
		}
		c.logger.Warn().Msgf("Error from state machine: %s", err.Error())
	}
	return err
}

// SessionState returns the lifecycle state.
func (c *Client) SessionState() string {
	return c.sm.Current()
}

// OnUpdate registers a callback run on the message loop after every change.
// Set it before Connect.
func (c *Client) OnUpdate(fn func(view.Table)) {
	c.onUpdate = fn
}

// OnAdvisory registers a callback for messages meant for the user, such as
// rejected moves. Set it before Connect.
func (c *Client) OnAdvisory(fn func(string)) {
	c.onAdvisory = fn
}

// Connect joins the server and starts the message loop.
func (c *Client) Connect(ctx context.Context) error {
	player, err := c.game.JoinServer(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to join server")
	}
	if c.config.Name != "" {
		if err := c.game.SetName(ctx, c.config.Name); err != nil {
			c.logger.Warn().Err(err).Msgf("Unable to set name %s", c.config.Name)
		} else {
			player.Name = c.config.Name
		}
	}
	c.mu.Lock()
	c.player = player
	c.mu.Unlock()
	c.updateLogger(player)
	c.event(SessionEvent__JOIN_SERVER)
	go c.messageLoop()
	return nil
}

// updateLogger tags every component's log lines with the player. Runs
// before the message loop starts.
func (c *Client) updateLogger(player game.Player) {
	logger := c.logger.With().
		Uint64(logging.PlayerIDKey, player.ID).
		Str(logging.PlayerNameKey, player.Name).
		Logger()
	c.logger = &logger
	c.game.SetLogger(c.logger)
	c.sync.SetLogger(c.logger)
	c.bid.SetLogger(c.logger)
	c.chat.SetLogger(c.logger)
}

// Player returns who the server knows us as.
func (c *Client) Player() game.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.player
}

// Table returns the last rendered view. Safe from any goroutine.
func (c *Client) Table() view.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table
}

// Snapshot returns a copy of the synchronized state. Safe from any goroutine.
func (c *Client) Snapshot() state.Snapshot {
	return c.sync.Snapshot()
}

// Flush waits until everything queued so far, including the results of
// calls in flight, has been processed.
func (c *Client) Flush() {
	done := make(chan struct{})
	if !c.post(&item{kind: itemBarrier, barrier: done}) {
		return
	}
	select {
	case <-done:
	case <-c.end:
		return
	}
	c.pending.Wait()
}

// Close stops the loop, drops the subscriptions and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.end)
		c.cancel()
		c.game.Unsubscribe()
		err = c.conn.Close()
		c.event(SessionEvent__CLOSE)
	})
	return err
}

func (c *Client) advisory(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Warn().Msg(msg)
	if c.onAdvisory != nil {
		c.onAdvisory(msg)
	}
}

// goCall runs fn on its own goroutine. then runs on the message loop with
// fn's result.
func (c *Client) goCall(op string, fn func(ctx context.Context) error, then func(err error)) {
	c.pending.Add(1)
	go func() {
		ctx := c.ctx
		if c.config.CallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
			defer cancel()
		}
		err := fn(ctx)
		c.post(&item{kind: itemResult, result: &callResult{op: op, err: err, then: then}})
	}()
}

// post queues an item for the loop. It returns false once the client is closed.
func (c *Client) post(it *item) bool {
	select {
	case c.chEvent <- it:
		return true
	case <-c.end:
		if it.kind == itemResult {
			c.pending.Done()
		}
		return false
	}
}
