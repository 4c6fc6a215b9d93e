package storage

import (
	"context"
	"encoding/json"

	"RoomRelay/logger"
	"RoomRelay/module/chat/model"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// RoomBus is the pub/sub side of Redis: the worker publishes persisted
// messages on `<prefix><roomId>`, gateways pattern-subscribe `<prefix>*`.
type RoomBus struct {
	rdb    *goredis.Client
	prefix string
}

func NewRoomBus(rdb *goredis.Client, prefix string) *RoomBus {
	return &RoomBus{rdb: rdb, prefix: prefix}
}

func (b *RoomBus) Channel(roomID string) string { return b.prefix + roomID }

// Publish sends the envelope to the room channel and reports how many
// subscribers received it at that instant (Redis PUBLISH reply). The worker's
// retry policy keys off a zero count.
func (b *RoomBus) Publish(ctx context.Context, roomID string, env *model.Envelope) (int64, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return 0, errors.Wrap(err, "marshal envelope")
	}
	n, err := b.rdb.Publish(ctx, b.Channel(roomID), payload).Result()
	if err != nil {
		return 0, errors.Wrap(err, "publish envelope")
	}
	return n, nil
}

// Subscribe pattern-subscribes to every room channel and pumps decoded
// envelopes into the returned channel until ctx is done. Envelopes that fail
// to decode are logged and dropped; they can never become deliverable frames.
func (b *RoomBus) Subscribe(ctx context.Context) (<-chan *model.Envelope, error) {
	sub := b.rdb.PSubscribe(ctx, b.prefix+"*")
	// Force the SUBSCRIBE round trip so a dead broker fails startup instead
	// of failing silently in the pump goroutine.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "psubscribe")
	}

	out := make(chan *model.Envelope, 64)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env model.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Warnf("[bus] drop undecodable envelope on %s: %v", msg.Channel, err)
					continue
				}
				out <- &env
			}
		}
	}()
	return out, nil
}
