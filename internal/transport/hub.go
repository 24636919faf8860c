package transport

import (
	"context"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// EndpointFunc serves a call on the Hub. Args are the raw JSON arguments.
type EndpointFunc func(args []jsoniter.RawMessage) (interface{}, error)

// CallRecord is a call the Hub has served.
type CallRecord struct {
	Endpoint string
	Args     []jsoniter.RawMessage
}

// Hub ties a scripted server and clients together in-process without any
// broker. Payloads go through the same JSON encoding as on the wire.
// Publish delivers synchronously on the publishing goroutine.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[string]EndpointFunc
	subs      map[string]map[int]Handler
	nextSubID int
	calls     []CallRecord
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		endpoints: make(map[string]EndpointFunc),
		subs:      make(map[string]map[int]Handler),
	}
}

// Handle registers the server side of an endpoint.
func (h *Hub) Handle(endpoint string, fn EndpointFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endpoints[endpoint] = fn
}

// Publish broadcasts payload to the topic subscribers.
func (h *Hub) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "unable to encode payload for [%s]", topic)
	}
	h.PublishRaw(topic, data)
	return nil
}

// PublishRaw broadcasts already encoded bytes.
func (h *Hub) PublishRaw(topic string, data []byte) {
	h.mu.RLock()
	ids := make([]int, 0, len(h.subs[topic]))
	for id := range h.subs[topic] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, h.subs[topic][id])
	}
	h.mu.RUnlock()
	for _, handler := range handlers {
		handler(data)
	}
}

// Subscribed reports whether anyone listens on the topic.
func (h *Hub) Subscribed(topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic]) > 0
}

// Calls returns the calls served so far.
func (h *Hub) Calls() []CallRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]CallRecord(nil), h.calls...)
}

// Connect opens a client connection to the hub.
func (h *Hub) Connect() Conn {
	return &hubConn{hub: h}
}

func (h *Hub) serve(endpoint string, data []byte) ([]byte, error) {
	var req struct {
		Args []jsoniter.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Wrap(err, "malformed call request")
	}
	h.mu.Lock()
	h.calls = append(h.calls, CallRecord{Endpoint: endpoint, Args: req.Args})
	fn, ok := h.endpoints[endpoint]
	h.mu.Unlock()

	reply := callReply{}
	if !ok {
		reply.Error = "no such endpoint"
	} else if result, err := fn(req.Args); err != nil {
		reply.Error = err.Error()
	} else {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode result")
		}
		reply.Result = raw
	}
	return json.Marshal(reply)
}

type hubConn struct {
	hub *Hub

	mu     sync.Mutex
	closed bool
	subs   []*hubSubscription
}

type hubSubscription struct {
	c     *hubConn
	topic string
	id    int
}

func (s *hubSubscription) Topic() string {
	return s.topic
}

func (s *hubSubscription) Unsubscribe() error {
	h := s.c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[s.topic], s.id)
	return nil
}

func (c *hubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *hubConn) Call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encodeCall(args)
	if err != nil {
		return nil, err
	}
	replyData, err := c.hub.serve(endpoint, data)
	if err != nil {
		return nil, err
	}
	return decodeReply(endpoint, replyData)
}

func (c *hubConn) Subscribe(topic string, handler Handler) (Subscription, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	h := c.hub
	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]Handler)
	}
	h.subs[topic][id] = handler
	h.mu.Unlock()

	sub := &hubSubscription{c: c, topic: topic, id: id}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub, nil
}

func (c *hubConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
	return nil
}
