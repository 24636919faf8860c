package transport

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// throttled limits the rate of outbound calls. Subscriptions pass through.
type throttled struct {
	Conn
	limiter *rate.Limiter
}

// Throttle wraps c so that at most perSecond calls are made, with bursts
// up to burst. A non-positive rate disables throttling.
func Throttle(c Conn, perSecond float64, burst int) Conn {
	if perSecond <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{Conn: c, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *throttled) Call(ctx context.Context, endpoint string, args ...interface{}) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "call to [%s] throttled", endpoint)
	}
	return t.Conn.Call(ctx, endpoint, args...)
}
