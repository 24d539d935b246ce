package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var _ context.Context = &Exchange{}

type exchangeKey struct{}

// Exchange is the per-request state of one screen transition. It carries the
// decrypted request and implements context.Context so it can be handed to
// slog and to the flight lookup directly.
type Exchange struct {
	ID      string
	Request Request
	ctx     context.Context // real context carrying deadline/cancellation
}

// context.Context implementation, delegating to the embedded ctx so that
// request cancellation reaches every slog and HTTP call.

func (e *Exchange) Deadline() (deadline time.Time, ok bool) {
	return e.ctx.Deadline()
}

func (e *Exchange) Done() <-chan struct{} {
	return e.ctx.Done()
}

func (e *Exchange) Err() error {
	return e.ctx.Err()
}

func (e *Exchange) Value(key any) any {
	if _, ok := key.(exchangeKey); ok {
		return e
	}
	return e.ctx.Value(key)
}

// Field returns the submitted data value stored under key.
func (e *Exchange) Field(key string) (any, bool) {
	v, ok := e.Request.Data[key]
	return v, ok && v != nil
}

func NewExchange(ctx context.Context, request Request) *Exchange {
	if ctx == nil {
		ctx = context.Background()
	}
	if request.Data == nil {
		request.Data = map[string]any{}
	}
	return &Exchange{
		ID:      uuid.New().String(),
		Request: request,
		ctx:     ctx,
	}
}

// ExchangeFrom returns the Exchange carried by ctx, if any.
func ExchangeFrom(ctx context.Context) (*Exchange, bool) {
	if ctx == nil {
		return nil, false
	}
	ex, ok := ctx.Value(exchangeKey{}).(*Exchange)
	return ex, ok
}
