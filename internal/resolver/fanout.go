package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
)

// providerReply is what one provider produced within the deadline.
type providerReply[T any] struct {
	index int
	value T
	err   error
}

// fanOut calls every provider concurrently and waits for all of them, but
// never longer than deadline. Providers that have not answered by then get
// a timeout error; their context is cancelled and any late reply is dropped.
// Replies are returned in provider order.
func fanOut[T any](ctx context.Context, deadline time.Duration, providers []book.Provider,
	call func(context.Context, book.Provider) (T, error),
) []providerReply[T] {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered so abandoned goroutines can always deliver and exit.
	ch := make(chan providerReply[T], len(providers))
	for i, p := range providers {
		go func() {
			reply := providerReply[T]{index: i}
			defer func() {
				if r := recover(); r != nil {
					reply.err = fmt.Errorf("provider panicked: %v", r)
				}
				ch <- reply
			}()
			reply.value, reply.err = call(ctx, p)
		}()
	}

	replies := make([]providerReply[T], len(providers))
	done := make([]bool, len(providers))
	for pending := len(providers); pending > 0; pending-- {
		select {
		case r := <-ch:
			replies[r.index] = r
			done[r.index] = true
		case <-ctx.Done():
			for i := range replies {
				if done[i] {
					continue
				}
				replies[i] = providerReply[T]{index: i, err: abandonedError(ctx.Err())}
				slog.Debug("Provider abandoned", "provider", providers[i].Name(), "reason", ctx.Err())
			}
			return replies
		}
	}
	return replies
}

func abandonedError(cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return book.ErrProviderTimeout
	}
	return cause
}
