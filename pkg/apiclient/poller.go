package apiclient

import (
	"context"
	"time"
)

// ChatPoller periodically fetches a project's messages and invokes OnMessage
// for each one it has not seen before. Run blocks until the context is
// cancelled.
type ChatPoller struct {
	Client    *Client
	ProjectID string
	Interval  time.Duration
	Limit     int
	OnMessage func(ChatMessage)
	OnError   func(error)

	seen map[string]bool
}

// Run polls immediately, then on every tick. Transient fetch errors go to
// OnError and polling continues; only context cancellation stops the loop.
func (p *ChatPoller) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		p.Interval = 3 * time.Second
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	p.seen = make(map[string]bool)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *ChatPoller) poll(ctx context.Context) {
	messages, err := p.Client.Messages(ctx, p.ProjectID, p.Limit)
	if err != nil {
		if p.OnError != nil && ctx.Err() == nil {
			p.OnError(err)
		}
		return
	}

	// Keep only the ids still inside the fetched window. The window moves
	// forward in time, so an id that ages out never comes back.
	window := make(map[string]bool, len(messages))
	for _, msg := range messages {
		window[msg.ID] = true
		if p.seen[msg.ID] {
			continue
		}
		if p.OnMessage != nil {
			p.OnMessage(msg)
		}
	}
	p.seen = window
}
