// Package events fans project changes out to every API replica over Redis
// pub/sub so that live views stay in sync.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// Channel carries every project change event.
const Channel = "portfolio:projects:events"

type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// Event describes one confirmed change. Project is nil for deletions.
type Event struct {
	Type    Type            `json:"type"`
	ID      string          `json:"id"`
	Project *domain.Project `json:"project,omitempty"`
	At      time.Time       `json:"at"`
}

// Created, Updated and Deleted build events stamped with the current time.
func Created(p domain.Project) Event {
	return Event{Type: TypeCreated, ID: p.ID, Project: &p, At: time.Now().UTC()}
}

func Updated(p domain.Project) Event {
	return Event{Type: TypeUpdated, ID: p.ID, Project: &p, At: time.Now().UTC()}
}

func Deleted(id string) Event {
	return Event{Type: TypeDeleted, ID: id, At: time.Now().UTC()}
}

// Bus publishes and subscribes to project events on Redis.
type Bus struct {
	client  *redis.Client
	channel string
}

func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client, channel: Channel}
}

// Publish broadcasts ev to every subscriber.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of events that closes when ctx is done or the
// returned stop func is called. The subscription is confirmed before return.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event, 16)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[warn] operation=events.subscribe error=%v", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}
