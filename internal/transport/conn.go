package transport

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"voyager.com/euchre/internal/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("connection closed")

// Handler receives the raw payload of a broadcast.
type Handler func(payload []byte)

// Subscription is an active topic registration.
type Subscription interface {
	Topic() string
	Unsubscribe() error
}

// Conn is the session with the game server. It is opened by one of the Dial
// functions, handed to the api facade and closed by its owner.
type Conn interface {
	// Call invokes a remote endpoint and returns its raw JSON result.
	// A server-side failure is returned as *game.RejectedError.
	Call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error)
	// Subscribe registers a handler for a broadcast topic.
	Subscribe(topic string, handler Handler) (Subscription, error)
	Close() error
}

// callRequest is the body of an outbound call.
type callRequest struct {
	Args []interface{} `json:"args"`
}

// callReply is the body the server answers a call with.
type callReply struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  string              `json:"error,omitempty"`
}

func encodeCall(args []interface{}) ([]byte, error) {
	if args == nil {
		args = []interface{}{}
	}
	data, err := json.Marshal(callRequest{Args: args})
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode call arguments")
	}
	return data, nil
}

func decodeReply(endpoint string, data []byte) ([]byte, error) {
	var reply callReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, &game.ProtocolError{Topic: endpoint, Msg: "malformed call reply"}
	}
	if reply.Error != "" {
		return nil, rejected(endpoint, reply.Error)
	}
	return []byte(reply.Result), nil
}

func rejected(endpoint string, reason string) error {
	return &game.RejectedError{Endpoint: endpoint, Reason: reason}
}
