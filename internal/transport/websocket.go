package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"voyager.com/euchre/logging"
)

const (
	frameCall        = "call"
	frameResult      = "result"
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameEvent       = "event"

	// frameClosed never goes on the wire; it releases pending calls.
	frameClosed = "closed"
)

// frame is the single message shape exchanged over the websocket.
type frame struct {
	Type     string              `json:"type"`
	ID       string              `json:"id,omitempty"`
	Endpoint string              `json:"endpoint,omitempty"`
	Topic    string              `json:"topic,omitempty"`
	Args     []interface{}       `json:"args,omitempty"`
	Result   jsoniter.RawMessage `json:"result,omitempty"`
	Payload  jsoniter.RawMessage `json:"payload,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// wsConn multiplexes calls and topic subscriptions over one websocket.
type wsConn struct {
	logger *zerolog.Logger
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	err      error
	pending  map[string]chan frame
	handlers map[string]map[string]Handler
}

type wsSubscription struct {
	c     *wsConn
	topic string
	id    string
}

func (s *wsSubscription) Topic() string {
	return s.topic
}

func (s *wsSubscription) Unsubscribe() error {
	return s.c.unsubscribe(s)
}

// DialWebsocket opens a websocket to url and starts reading frames.
func DialWebsocket(ctx context.Context, url string, logger *zerolog.Logger) (Conn, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Info().Msgf("Connecting to websocket URL: %s", url)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Error connecting to websocket [%s]", url))
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c := &wsConn{
		logger:   logger,
		conn:     conn,
		ctx:      readCtx,
		cancel:   cancel,
		pending:  make(map[string]chan frame),
		handlers: make(map[string]map[string]Handler),
	}
	go c.readLoop()
	return c, nil
}

func (c *wsConn) readLoop() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.fail(err)
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Error().Msgf("Error [%s] while unmarshalling websocket frame [%s]", err, string(data))
			continue
		}
		switch f.Type {
		case frameResult:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if !ok {
				c.logger.Warn().Msgf("Result for unknown call %s", f.ID)
				continue
			}
			ch <- f
		case frameEvent:
			c.mu.Lock()
			handlers := make([]Handler, 0, len(c.handlers[f.Topic]))
			for _, h := range c.handlers[f.Topic] {
				handlers = append(handlers, h)
			}
			c.mu.Unlock()
			for _, h := range handlers {
				h([]byte(f.Payload))
			}
		default:
			c.logger.Warn().Msgf("Ignoring websocket frame type [%s]", f.Type)
		}
	}
}

// fail drops every pending call after the read side stops.
func (c *wsConn) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.logger.Warn().Err(err).Msg("Websocket read loop stopped")
	}
	c.closed = true
	c.err = err
	for id, ch := range c.pending {
		ch <- frame{Type: frameClosed, ID: id, Error: err.Error()}
		delete(c.pending, id)
	}
}

func (c *wsConn) write(ctx context.Context, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "unable to encode websocket frame")
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error) {
	id := uuid.New().String()
	ch := make(chan frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if args == nil {
		args = []interface{}{}
	}
	err := c.write(ctx, frame{Type: frameCall, ID: id, Endpoint: endpoint, Args: args})
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, errors.Wrap(err, fmt.Sprintf("Request to [%s] failed", endpoint))
	}
	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case f := <-ch:
		if f.Type == frameClosed {
			return nil, errors.Wrap(ErrClosed, f.Error)
		}
		if f.Error != "" {
			return nil, rejected(endpoint, f.Error)
		}
		return []byte(f.Result), nil
	}
}

func (c *wsConn) Subscribe(topic string, handler Handler) (Subscription, error) {
	sub := &wsSubscription{c: c, topic: topic, id: uuid.New().String()}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	first := len(c.handlers[topic]) == 0
	if first {
		c.handlers[topic] = make(map[string]Handler)
	}
	c.handlers[topic][sub.id] = handler
	c.mu.Unlock()

	if first {
		c.logger.Info().Str(logging.TopicKey, topic).Msgf("Subscribing to %s", topic)
		if err := c.write(c.ctx, frame{Type: frameSubscribe, Topic: topic}); err != nil {
			c.mu.Lock()
			delete(c.handlers, topic)
			c.mu.Unlock()
			return nil, errors.Wrap(err, fmt.Sprintf("Unable to subscribe to the topic [%s]", topic))
		}
	}
	return sub, nil
}

func (c *wsConn) unsubscribe(s *wsSubscription) error {
	c.mu.Lock()
	handlers, ok := c.handlers[s.topic]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(handlers, s.id)
	last := len(handlers) == 0
	if last {
		delete(c.handlers, s.topic)
	}
	closed := c.closed
	c.mu.Unlock()

	if last && !closed {
		return c.write(c.ctx, frame{Type: frameUnsubscribe, Topic: s.topic})
	}
	return nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	c.cancel()
	return err
}
