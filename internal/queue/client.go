package queue

import "context"

// Client publishes review events to downstream consumers.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// NopClient drops every message. It stands in when no broker is configured.
type NopClient struct{}

func (NopClient) Send(ctx context.Context, msg Message) error {
	return ctx.Err()
}

var _ Client = NopClient{}
