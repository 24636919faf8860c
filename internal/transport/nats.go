package transport

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"voyager.com/euchre/logging"
)

// natsConn calls endpoints with NATS request/reply and receives
// broadcasts as subject subscriptions.
type natsConn struct {
	logger *zerolog.Logger
	nc     *natsgo.Conn
}

type natsSubscription struct {
	sub *natsgo.Subscription
}

func (s *natsSubscription) Topic() string {
	return s.sub.Subject
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// DialNATS connects to the NATS server at url.
func DialNATS(url string, name string, logger *zerolog.Logger) (Conn, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Info().Msgf("Connecting to NATS URL: %s", url)
	nc, err := natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			logger.Warn().Err(err).Msg("Disconnected from NATS server")
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Msgf("Reconnected to NATS server %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		logger.Error().Err(err).Msgf("Could not connect to NATS server at %s", url)
		return nil, errors.Wrap(err, fmt.Sprintf("Error connecting to NATS server [%s]", url))
	}
	return &natsConn{logger: logger, nc: nc}, nil
}

func (c *natsConn) Call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error) {
	if c.nc.IsClosed() {
		return nil, ErrClosed
	}
	data, err := encodeCall(args)
	if err != nil {
		return nil, err
	}
	msg, err := c.nc.RequestWithContext(ctx, endpoint, data)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Request to [%s] failed", endpoint))
	}
	return decodeReply(endpoint, msg.Data)
}

func (c *natsConn) Subscribe(topic string, handler Handler) (Subscription, error) {
	if c.nc.IsClosed() {
		return nil, ErrClosed
	}
	c.logger.Info().Str(logging.TopicKey, topic).Msgf("Subscribing to %s", topic)
	sub, err := c.nc.Subscribe(topic, func(msg *natsgo.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Unable to subscribe to the subject [%s]", topic))
	}
	return &natsSubscription{sub: sub}, nil
}

func (c *natsConn) Close() error {
	c.nc.Close()
	return nil
}
